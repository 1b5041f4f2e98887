package dispatch

import (
	"context"
	"sync"
)

// Queue is an unbounded FIFO buffer of inbound events.
//
// Push never blocks and never fails, so the transport's read loop is never
// stalled by dispatch processing. Pop blocks until an event is available or
// the context is done. There is no capacity bound: if arrival persistently
// outpaces processing, memory grows — an accepted risk for this bot.
//
// Queue is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	events []InboundEvent
	notify chan struct{}
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends an event to the tail. Callable from any goroutine, including
// the transport's event-delivery context.
func (q *Queue) Push(ev InboundEvent) {
	q.mu.Lock()
	q.events = append(q.events, ev)
	q.mu.Unlock()

	// Coalesced wakeup: one pending signal is enough, Pop re-checks length.
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the head event, blocking while the queue is empty.
// Returns ctx.Err() when the context is done first.
func (q *Queue) Pop(ctx context.Context) (InboundEvent, error) {
	for {
		q.mu.Lock()
		if len(q.events) > 0 {
			ev := q.events[0]
			q.events = q.events[1:]
			if len(q.events) == 0 {
				q.events = nil // release the drained backing array
			}
			q.mu.Unlock()
			return ev, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return InboundEvent{}, ctx.Err()
		case <-q.notify:
		}
	}
}

// Depth reports the number of queued events, for the readiness endpoint.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}
