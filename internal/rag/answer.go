package rag

import (
	"context"
	"errors"
	"fmt"

	"github.com/hackerchat/ragbot/internal/dispatch"
)

// ReplyGenerator produces reply text from a query and retrieved passages.
type ReplyGenerator interface {
	Generate(ctx context.Context, query string, passages []dispatch.Passage) (string, error)
}

// Asker runs the retrieve-then-generate flow for one-off questions, outside
// the dispatch pipeline. The REPL and the HTTP ask endpoint both use it.
type Asker struct {
	store     dispatch.ContextStore
	generator ReplyGenerator
}

// NewAsker builds an Asker over the given store and generator.
func NewAsker(store dispatch.ContextStore, generator ReplyGenerator) (*Asker, error) {
	if store == nil {
		return nil, errors.New("context store is required")
	}
	if generator == nil {
		return nil, errors.New("generator is required")
	}
	return &Asker{store: store, generator: generator}, nil
}

// Answer retrieves context for the question and generates a reply.
func (a *Asker) Answer(ctx context.Context, question string) (string, []dispatch.Passage, error) {
	passages, err := a.store.Retrieve(ctx, question)
	if err != nil {
		return "", nil, fmt.Errorf("retrieving context: %w", err)
	}

	text, err := a.generator.Generate(ctx, question, passages)
	if err != nil {
		return "", nil, fmt.Errorf("generating answer: %w", err)
	}
	return text, passages, nil
}
