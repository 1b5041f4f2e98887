package ai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/hackerchat/ragbot/internal/log"
)

// Task types understood by the Gemini embedding endpoint. Documents and
// queries are embedded asymmetrically so that question-shaped text lands
// near answer-shaped text in the vector space.
const (
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
)

// embedModels is the slice of the GenAI client the embedder actually calls.
type embedModels interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Embedder turns text into fixed-width vectors via the Gemini embedding API.
type Embedder struct {
	models    embedModels
	model     string
	dimension int32
	logger    log.Logger
}

// NewEmbedder builds an Embedder over the given client. The dimension must
// match the width of the vector column the embeddings are stored in.
func NewEmbedder(client *genai.Client, model string, dimension int, logger log.Logger) (*Embedder, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Embedder{
		models:    client.Models,
		model:     model,
		dimension: int32(dimension),
		logger:    logger,
	}, nil
}

// Dimension reports the width of the vectors this embedder produces.
func (e *Embedder) Dimension() int {
	return int(e.dimension)
}

// EmbedDocuments embeds a batch of corpus documents for indexing. The result
// is positionally aligned with the input.
func (e *Embedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := e.embed(ctx, contents, taskRetrievalDocument)
	if err != nil {
		return nil, fmt.Errorf("embedding %d documents: %w", len(texts), err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d, got %d", len(texts), len(resp.Embeddings))
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil || len(emb.Values) == 0 {
			return nil, ErrEmptyEmbedding
		}
		vectors[i] = emb.Values
	}
	return vectors, nil
}

// EmbedQuery embeds a single search query.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	contents := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	resp, err := e.embed(ctx, contents, taskRetrievalQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}
	if len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, ErrEmptyEmbedding
	}
	return resp.Embeddings[0].Values, nil
}

func (e *Embedder) embed(ctx context.Context, contents []*genai.Content, taskType string) (*genai.EmbedContentResponse, error) {
	dim := e.dimension
	return e.models.EmbedContent(ctx, e.model, contents, &genai.EmbedContentConfig{
		TaskType:             taskType,
		OutputDimensionality: &dim,
	})
}
