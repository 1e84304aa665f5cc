// Package qdrant talks to qdrant's REST API directly. Points carry the chunk
// text plus its page number and character range so retrieval results can cite
// their exact position in the source contract.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/contract-intel/internal/core/domain"
)

type Client struct {
	baseURL    string
	collection string
	httpClient *http.Client

	ensureMu          sync.Mutex
	ensuredCollection bool
	ensuredVectorSize int
}

func New(baseURL, collection string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) IndexChunks(ctx context.Context, documentID string, chunks []domain.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 || len(vectors) == 0 {
		return nil
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks/vectors mismatch")
	}

	if err := c.ensureCollection(ctx, len(vectors[0])); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	points := make([]point, 0, len(chunks))
	for i, chunk := range chunks {
		points = append(points, point{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: map[string]any{
				"doc_id":      documentID,
				"chunk_index": i,
				"text":        chunk.Text,
				"page_number": chunk.PageNumber,
				"char_start":  chunk.CharStart,
				"char_end":    chunk.CharEnd,
			},
		})
	}

	reqBody := map[string]any{"points": points}
	var resp struct{}
	if err := c.call(ctx, http.MethodPut, fmt.Sprintf("/collections/%s/points?wait=true", c.collection), reqBody, &resp, "upsert"); err != nil {
		return err
	}
	return nil
}

func (c *Client) Search(ctx context.Context, queryVector []float32, limit int, documentIDs []string) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        limit,
		"with_payload": true,
	}
	if filter := documentFilter(documentIDs); filter != nil {
		reqBody["filter"] = filter
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/search", c.collection), reqBody, &searchResp, "search"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		chunk := chunkFromPayload(r.Payload)
		chunk.Score = r.Score
		out = append(out, chunk)
	}
	return out, nil
}

// Sample scrolls stored points without ranking. It backs the retrieval
// fallback when similarity search returns nothing.
func (c *Client) Sample(ctx context.Context, limit int, documentIDs []string) ([]domain.RetrievedChunk, error) {
	reqBody := map[string]any{
		"limit":        limit,
		"with_payload": true,
	}
	if filter := documentFilter(documentIDs); filter != nil {
		reqBody["filter"] = filter
	}

	var scrollResp struct {
		Result struct {
			Points []struct {
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := c.call(ctx, http.MethodPost, fmt.Sprintf("/collections/%s/points/scroll", c.collection), reqBody, &scrollResp, "scroll"); err != nil {
		return nil, err
	}

	out := make([]domain.RetrievedChunk, 0, len(scrollResp.Result.Points))
	for _, p := range scrollResp.Result.Points {
		out = append(out, chunkFromPayload(p.Payload))
	}
	return out, nil
}

func documentFilter(documentIDs []string) map[string]any {
	if len(documentIDs) == 0 {
		return nil
	}
	return map[string]any{
		"must": []map[string]any{
			{
				"key": "doc_id",
				"match": map[string]any{
					"any": documentIDs,
				},
			},
		},
	}
}

func chunkFromPayload(payload map[string]any) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		DocumentID: getString(payload, "doc_id"),
		Text:       getString(payload, "text"),
		PageNumber: getInt(payload, "page_number"),
		CharStart:  getInt(payload, "char_start"),
		CharEnd:    getInt(payload, "char_end"),
	}
}

func (c *Client) call(ctx context.Context, method, path string, payload any, out any, operation string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant %s request: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
		}
		return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", operation, err)
	}
	return nil
}

func (c *Client) ensureCollection(ctx context.Context, vectorSize int) error {
	c.ensureMu.Lock()
	if c.ensuredCollection && c.ensuredVectorSize == vectorSize {
		c.ensureMu.Unlock()
		return nil
	}
	c.ensureMu.Unlock()

	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     vectorSize,
			"distance": "Cosine",
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", c.baseURL, c.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant ensure collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode == http.StatusConflict {
		c.markCollectionEnsured(vectorSize)
		return nil
	}
	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if msg := strings.TrimSpace(string(raw)); msg != "" {
			return fmt.Errorf("qdrant ensure collection status: %s: %s", resp.Status, msg)
		}
		return fmt.Errorf("qdrant ensure collection status: %s", resp.Status)
	}
	c.markCollectionEnsured(vectorSize)
	return nil
}

func (c *Client) markCollectionEnsured(vectorSize int) {
	c.ensureMu.Lock()
	defer c.ensureMu.Unlock()
	c.ensuredCollection = true
	c.ensuredVectorSize = vectorSize
}

func getString(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getInt(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	default:
		return 0
	}
}
