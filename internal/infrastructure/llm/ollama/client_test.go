package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/infrastructure/resilience"
)

func TestCompleterSendsPromptAndTrims(t *testing.T) {
	var capturedPrompt string
	var capturedModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		capturedPrompt, _ = payload["prompt"].(string)
		capturedModel, _ = payload["model"].(string)
		_, _ = w.Write([]byte(`{"response":"  the answer  "}`))
	}))
	defer server.Close()

	completer := NewCompleter(New(server.URL, "gen-model", "embed-model"))
	got, err := completer.Complete(context.Background(), "What is the term?")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "the answer" {
		t.Fatalf("expected trimmed answer, got %q", got)
	}
	if capturedPrompt != "What is the term?" || capturedModel != "gen-model" {
		t.Fatalf("unexpected request: prompt=%q model=%q", capturedPrompt, capturedModel)
	}
}

func TestEmbedParsesVectors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"embeddings":[[0.1,0.2],[0.3,0.4]]}`))
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	vectors, err := embedder.Embed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vectors) != 2 || len(vectors[0]) != 2 {
		t.Fatalf("unexpected vectors: %+v", vectors)
	}
}

func TestEmbedEmptyInputSkipsRequest(t *testing.T) {
	embedder := NewEmbedder(New("http://unused", "gen", "embed"))
	vectors, err := embedder.Embed(context.Background(), nil)
	if err != nil || vectors != nil {
		t.Fatalf("expected nil/nil for empty input, got %v / %v", vectors, err)
	}
}

func TestEmbedIncludesHTTPBodyInError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	embedder := NewEmbedder(New(server.URL, "gen", "embed"))
	_, err := embedder.Embed(context.Background(), []string{"hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}

func TestRetryableStatusWrappedTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	completer := NewCompleter(New(server.URL, "gen", "embed"))
	_, err := completer.Complete(context.Background(), "q")
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind for 503, got %v", err)
	}
}

func TestClientErrorNotWrappedTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad model name", http.StatusBadRequest)
	}))
	defer server.Close()

	completer := NewCompleter(New(server.URL, "gen", "embed"))
	_, err := completer.Complete(context.Background(), "q")
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not be marked temporary: %v", err)
	}
}

func TestExecutorRetriesThroughTransport(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"response":"ready"}`))
	}))
	defer server.Close()

	executor := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1,
		RetryMaxBackoff:     2,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})
	completer := NewCompleter(NewWithExecutor(server.URL, "gen", "embed", executor))

	got, err := completer.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got != "ready" || attempts != 3 {
		t.Fatalf("expected success on third attempt, got %q after %d attempts", got, attempts)
	}
}

func TestClassifyOllamaError(t *testing.T) {
	if class := classifyOllamaError(context.Canceled); class.Retryable || class.RecordFailure {
		t.Fatalf("cancellation must not retry or record failure: %+v", class)
	}

	retryable := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusBadGateway})
	if !retryable.Retryable || !retryable.RecordFailure {
		t.Fatalf("502 should retry and record: %+v", retryable)
	}

	permanent := classifyOllamaError(&HTTPStatusError{StatusCode: http.StatusUnprocessableEntity})
	if permanent.Retryable {
		t.Fatalf("422 must not retry: %+v", permanent)
	}
}
