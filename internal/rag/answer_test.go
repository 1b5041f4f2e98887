package rag

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackerchat/ragbot/internal/dispatch"
)

type stubRetriever struct {
	passages []dispatch.Passage
	err      error
}

func (s stubRetriever) Retrieve(context.Context, string) ([]dispatch.Passage, error) {
	return s.passages, s.err
}

type stubReplyGenerator struct {
	reply string
	err   error
	query string
	got   []dispatch.Passage
}

func (s *stubReplyGenerator) Generate(_ context.Context, query string, passages []dispatch.Passage) (string, error) {
	s.query = query
	s.got = passages
	return s.reply, s.err
}

func TestAsker_Answer(t *testing.T) {
	passages := []dispatch.Passage{{Text: "kiln talk", Channel: "ceramics", Author: "crumbqueen", Timestamp: time.Now()}}
	gen := &stubReplyGenerator{reply: "they discussed the kiln"}

	asker, err := NewAsker(stubRetriever{passages: passages}, gen)
	require.NoError(t, err)

	text, got, err := asker.Answer(context.Background(), "what happened?")
	require.NoError(t, err)
	assert.Equal(t, "they discussed the kiln", text)
	assert.Equal(t, passages, got)
	assert.Equal(t, "what happened?", gen.query)
	assert.Equal(t, passages, gen.got)
}

func TestAsker_RetrieveFailure(t *testing.T) {
	gen := &stubReplyGenerator{reply: "unused"}
	asker, err := NewAsker(stubRetriever{err: errors.New("index down")}, gen)
	require.NoError(t, err)

	_, _, err = asker.Answer(context.Background(), "q")
	assert.ErrorContains(t, err, "index down")
	assert.Empty(t, gen.query, "generator untouched when retrieval fails")
}

func TestAsker_GenerateFailure(t *testing.T) {
	asker, err := NewAsker(stubRetriever{}, &stubReplyGenerator{err: errors.New("overloaded")})
	require.NoError(t, err)

	_, _, err = asker.Answer(context.Background(), "q")
	assert.ErrorContains(t, err, "overloaded")
}

func TestNewAsker_Validation(t *testing.T) {
	_, err := NewAsker(nil, &stubReplyGenerator{})
	assert.Error(t, err)

	_, err = NewAsker(stubRetriever{}, nil)
	assert.Error(t, err)
}
