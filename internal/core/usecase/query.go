package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/avolkov/contract-intel/internal/core/domain"
	"github.com/avolkov/contract-intel/internal/core/ports"
)

const (
	defaultTopK       = 5
	answerContextSize = 3000
	sourceExcerptSize = 200

	refusalAnswer = "I cannot answer this question as no relevant information was found in the uploaded documents."
)

// questionStopWords never count as matchable keywords in the extractive
// fallback.
var questionStopWords = map[string]bool{
	"what": true, "when": true, "where": true, "who": true, "how": true,
	"is": true, "are": true, "the": true, "a": true, "an": true,
}

type AnswerQuestionUseCase struct {
	embedder  ports.Embedder
	vectorDB  ports.VectorStore
	completer ports.Completer
}

// NewAnswerQuestionUseCase builds the RAG use case. A nil completer switches
// answer generation to the extractive fallback permanently.
func NewAnswerQuestionUseCase(
	embedder ports.Embedder,
	vectorDB ports.VectorStore,
	completer ports.Completer,
) *AnswerQuestionUseCase {
	return &AnswerQuestionUseCase{
		embedder:  embedder,
		vectorDB:  vectorDB,
		completer: completer,
	}
}

// Answer retrieves the chunks most similar to the question and generates an
// answer from them. Retrieval degrades rather than fails: an embedding or
// search problem falls back to sampling stored chunks, and only an empty
// store produces the refusal answer.
func (uc *AnswerQuestionUseCase) Answer(
	ctx context.Context,
	question string,
	documentIDs []string,
	limit int,
) (*domain.Answer, error) {
	if limit <= 0 {
		limit = defaultTopK
	}

	chunks, err := uc.retrieve(ctx, question, documentIDs, limit)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		return &domain.Answer{Text: refusalAnswer, Sources: []domain.Source{}}, nil
	}

	contextText := buildContext(chunks)
	answerText := uc.generate(ctx, question, contextText)

	return &domain.Answer{
		Text:    answerText,
		Sources: buildSources(chunks),
	}, nil
}

func (uc *AnswerQuestionUseCase) retrieve(ctx context.Context, question string, documentIDs []string, limit int) ([]domain.RetrievedChunk, error) {
	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return uc.sample(ctx, limit, documentIDs)
	}

	chunks, err := uc.vectorDB.Search(ctx, queryVector, limit, documentIDs)
	if err != nil || len(chunks) == 0 {
		return uc.sample(ctx, limit, documentIDs)
	}
	return chunks, nil
}

func (uc *AnswerQuestionUseCase) sample(ctx context.Context, limit int, documentIDs []string) ([]domain.RetrievedChunk, error) {
	chunks, err := uc.vectorDB.Sample(ctx, limit, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("sample stored chunks: %w", err)
	}
	return chunks, nil
}

func (uc *AnswerQuestionUseCase) generate(ctx context.Context, question, contextText string) string {
	if uc.completer == nil {
		return extractiveAnswer(question, contextText)
	}

	response, err := uc.completer.Complete(ctx, buildAnswerPrompt(question, contextText))
	if err != nil || strings.TrimSpace(response) == "" {
		return extractiveAnswer(question, contextText)
	}
	return strings.TrimSpace(response)
}

func buildContext(chunks []domain.RetrievedChunk) string {
	parts := make([]string, len(chunks))
	for i, chunk := range chunks {
		parts[i] = fmt.Sprintf("[Document %s, Page %d]:\n%s", chunk.DocumentID, chunk.PageNumber, chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

func buildAnswerPrompt(question, contextText string) string {
	return fmt.Sprintf(`Answer the following question based ONLY on the provided context. Do not use external knowledge.
If the answer cannot be found in the context, say "I cannot answer this question based on the provided documents."

Context:
%s

Question: %s

Answer:`, firstN(contextText, answerContextSize), question)
}

// extractiveAnswer stitches an answer out of context sentences that share a
// keyword with the question. With no overlapping sentence at all it degrades
// to a raw context prefix.
func extractiveAnswer(question, contextText string) string {
	keywords := questionKeywords(question)

	var relevant []string
	for _, sentence := range strings.Split(contextText, ".") {
		lower := strings.ToLower(sentence)
		for keyword := range keywords {
			if strings.Contains(lower, keyword) {
				relevant = append(relevant, strings.TrimSpace(sentence))
				break
			}
		}
	}

	if len(relevant) > 0 {
		if len(relevant) > 3 {
			relevant = relevant[:3]
		}
		return strings.Join(relevant, ". ") + "."
	}
	return firstN(contextText, 500) + "..."
}

func questionKeywords(question string) map[string]bool {
	keywords := make(map[string]bool)
	for _, word := range strings.Fields(strings.ToLower(question)) {
		if !questionStopWords[word] {
			keywords[word] = true
		}
	}
	return keywords
}

func buildSources(chunks []domain.RetrievedChunk) []domain.Source {
	sources := make([]domain.Source, len(chunks))
	for i, chunk := range chunks {
		sources[i] = domain.Source{
			DocumentID: chunk.DocumentID,
			Page:       chunk.PageNumber,
			CharStart:  chunk.CharStart,
			CharEnd:    chunk.CharEnd,
			Excerpt:    firstN(chunk.Text, sourceExcerptSize),
		}
	}
	return sources
}

func firstN(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
