package ai

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
)

// Template placeholders substituted into the prompt before generation.
const (
	placeholderQuery   = "{query}"
	placeholderContext = "{context}"
)

// generateModels is the slice of the GenAI client the generator actually calls.
type generateModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator produces reply text from a query and retrieved passages. It
// satisfies the dispatch.Generator contract.
type Generator struct {
	models      generateModels
	model       string
	temperature float32
	template    string
	logger      log.Logger
}

// NewGenerator builds a Generator. The template must contain the {query} and
// {context} placeholders; both are substituted on every call.
func NewGenerator(client *genai.Client, model string, temperature float32, template string, logger log.Logger) (*Generator, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	if !strings.Contains(template, placeholderQuery) {
		return nil, fmt.Errorf("prompt template missing %s placeholder", placeholderQuery)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Generator{
		models:      client.Models,
		model:       model,
		temperature: temperature,
		template:    template,
		logger:      logger,
	}, nil
}

// Generate assembles the combined prompt from the query and passages and asks
// the model for a reply.
func (g *Generator) Generate(ctx context.Context, query string, passages []dispatch.Passage) (string, error) {
	prompt := g.buildPrompt(query, passages)

	temp := g.temperature
	resp, err := g.models.GenerateContent(ctx, g.model,
		[]*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)},
		&genai.GenerateContentConfig{Temperature: &temp},
	)
	if err != nil {
		return "", fmt.Errorf("generating reply: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyReply
	}

	g.logger.Debug("reply generated", "model", g.model, "passages", len(passages), "length", len(text))
	return text, nil
}

// buildPrompt substitutes the query and the passage block into the template.
// Passages arrive most-relevant-first and are joined in that order.
func (g *Generator) buildPrompt(query string, passages []dispatch.Passage) string {
	texts := make([]string, 0, len(passages))
	for _, p := range passages {
		texts = append(texts, p.Text)
	}

	prompt := strings.ReplaceAll(g.template, placeholderQuery, query)
	return strings.ReplaceAll(prompt, placeholderContext, strings.Join(texts, "\n\n"))
}
