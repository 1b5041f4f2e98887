// Package ai wraps the Google GenAI SDK behind the two capabilities the bot
// needs: embedding chat history for the vector index and generating reply
// text from a query plus retrieved context.
package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var (
	// ErrNilClient indicates a constructor received a nil GenAI client.
	ErrNilClient = errors.New("genai client is required")

	// ErrEmptyEmbedding indicates the API returned no usable vector.
	ErrEmptyEmbedding = errors.New("empty embedding response")

	// ErrEmptyReply indicates the model produced no reply text.
	ErrEmptyReply = errors.New("empty model reply")
)

// NewClient builds a Gemini API client. With an empty key the SDK falls back
// to the GEMINI_API_KEY environment variable.
func NewClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return client, nil
}
