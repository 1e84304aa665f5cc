package domain

type RetrievedChunk struct {
	DocumentID string  `json:"document_id"`
	Text       string  `json:"text"`
	PageNumber int     `json:"page_number"`
	CharStart  int     `json:"char_start"`
	CharEnd    int     `json:"char_end"`
	Score      float64 `json:"score"`
}

// Source points a caller back at the chunk an answer was drawn from.
type Source struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Excerpt    string `json:"excerpt"`
}

type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}
