// evalqa runs a question-answer evaluation set against a live API instance
// and reports exact-match, token-F1, and citation rates.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"

	"gopkg.in/yaml.v3"
)

type evalCase struct {
	Question       string   `yaml:"question"`
	ExpectedAnswer string   `yaml:"expected_answer"`
	DocumentIDs    []string `yaml:"document_ids"`
}

type evalSet struct {
	Cases []evalCase `yaml:"cases"`
}

type queryRequest struct {
	Question    string   `json:"question"`
	DocumentIDs []string `json:"document_ids,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

type queryResponse struct {
	Answer  string `json:"answer"`
	Sources []struct {
		DocumentID string `json:"document_id"`
		Page       int    `json:"page"`
	} `json:"sources"`
}

func main() {
	evalPath := flag.String("eval", "eval/qa_eval_set.yaml", "path to the YAML evaluation set")
	apiURL := flag.String("api", "http://localhost:8080", "base URL of a running API instance")
	limit := flag.Int("limit", 0, "retrieval limit per question (0 uses the server default)")
	flag.Parse()

	set, err := loadEvalSet(*evalPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load eval set: %v\n", err)
		os.Exit(1)
	}
	if len(set.Cases) == 0 {
		fmt.Fprintln(os.Stderr, "eval set has no cases")
		os.Exit(1)
	}

	client := &http.Client{Timeout: 120 * time.Second}

	var exactCount, citedCount, failures int
	var f1Sum float64

	for i, c := range set.Cases {
		resp, err := runQuery(client, *apiURL, c, *limit)
		if err != nil {
			failures++
			fmt.Printf("[%d/%d] FAIL %q: %v\n", i+1, len(set.Cases), c.Question, err)
			continue
		}

		exact := normalize(resp.Answer) == normalize(c.ExpectedAnswer)
		f1 := tokenF1(resp.Answer, c.ExpectedAnswer)
		cited := len(resp.Sources) > 0

		if exact {
			exactCount++
		}
		if cited {
			citedCount++
		}
		f1Sum += f1

		fmt.Printf("[%d/%d] exact=%t f1=%.3f sources=%d question=%q\n",
			i+1, len(set.Cases), exact, f1, len(resp.Sources), c.Question)
	}

	answered := len(set.Cases) - failures
	fmt.Println()
	fmt.Printf("cases:          %d (%d failed)\n", len(set.Cases), failures)
	if answered > 0 {
		fmt.Printf("exact match:    %.1f%%\n", 100*float64(exactCount)/float64(answered))
		fmt.Printf("mean token F1:  %.3f\n", f1Sum/float64(answered))
		fmt.Printf("citation rate:  %.1f%%\n", 100*float64(citedCount)/float64(answered))
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func loadEvalSet(path string) (*evalSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var set evalSet
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	return &set, nil
}

func runQuery(client *http.Client, apiURL string, c evalCase, limit int) (*queryResponse, error) {
	body, err := json.Marshal(queryRequest{
		Question:    c.Question,
		DocumentIDs: c.DocumentIDs,
		Limit:       limit,
	})
	if err != nil {
		return nil, err
	}

	resp, err := client.Post(strings.TrimRight(apiURL, "/")+"/v1/rag/query", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var out queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// tokenF1 is the harmonic mean of token precision and recall over the
// normalized answers, with multiset overlap counting.
func tokenF1(got, want string) float64 {
	gotTokens := strings.Fields(normalize(got))
	wantTokens := strings.Fields(normalize(want))
	if len(gotTokens) == 0 || len(wantTokens) == 0 {
		return 0
	}

	wantCounts := map[string]int{}
	for _, tok := range wantTokens {
		wantCounts[tok]++
	}
	overlap := 0
	for _, tok := range gotTokens {
		if wantCounts[tok] > 0 {
			wantCounts[tok]--
			overlap++
		}
	}
	if overlap == 0 {
		return 0
	}

	precision := float64(overlap) / float64(len(gotTokens))
	recall := float64(overlap) / float64(len(wantTokens))
	return 2 * precision * recall / (precision + recall)
}
