// Package dispatch implements the inbound-message dispatch and rate-limited
// response pipeline.
//
// The pipeline decouples event arrival from response computation: the
// realtime transport pushes every received chat message into an unbounded
// FIFO queue and returns immediately; a single worker drains the queue,
// filters events, bounds the reply rate per conversation, and turns each
// accepted event into at most one outbound reply.
//
//	transport ──Push──▶ Queue ──Pop──▶ Worker ──▶ Limiter.Gate
//	                                      │
//	                                      ├─▶ ContextStore.Retrieve
//	                                      ├─▶ Generator.Generate
//	                                      └─▶ Transport.Send
//
// The worker owns all mutable pipeline state. Every per-event failure is
// logged and dropped; nothing an event does can terminate the loop.
package dispatch

import (
	"context"
	"time"
)

// InboundEvent represents one received chat message.
// Immutable once enqueued; consumed exactly once by the worker and then
// discarded, success or failure.
type InboundEvent struct {
	ConversationID string
	AuthorID       string
	Text           string
	ReceivedAt     time.Time
}

// OutboundReply is a generated answer awaiting delivery.
// CorrelationID is freshly generated per reply and ties log lines for one
// dispatch together; it is unrelated to any transport-level message id.
type OutboundReply struct {
	ConversationID string
	Text           string
	CorrelationID  string
}

// Passage is a retrieved snippet of prior conversational text used as
// context for generation, with its provenance.
type Passage struct {
	Text      string
	Channel   string
	Author    string
	Timestamp time.Time
}

// ContextStore returns passages relevant to a free-text query,
// most-relevant-first as determined by the backing similarity metric.
type ContextStore interface {
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}

// Generator produces reply text from a query and its retrieved passages.
type Generator interface {
	Generate(ctx context.Context, query string, passages []Passage) (string, error)
}

// Transport delivers a reply into a conversation. Failures surface as an
// error; the pipeline never retries delivery.
type Transport interface {
	Send(ctx context.Context, conversationID, text string) error
}
