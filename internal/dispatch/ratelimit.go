package dispatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter enforces a minimum interval between replies emitted into the same
// conversation, using one golang.org/x/time/rate limiter per conversation.
//
// Gate delays, it never drops: inbound events are unaffected, only the
// resulting reply waits. Entries are kept for the process lifetime; the map
// is bounded by the number of conversations the bot replies into.
//
// The map is mutex-protected so the interval invariant holds even if more
// than one worker is ever introduced.
type Limiter struct {
	mu            sync.Mutex
	interval      time.Duration
	conversations map[string]*rate.Limiter
}

// NewLimiter creates a limiter with the given minimum emit interval.
func NewLimiter(minInterval time.Duration) *Limiter {
	return &Limiter{
		interval:      minInterval,
		conversations: make(map[string]*rate.Limiter),
	}
}

// Gate blocks until at least the minimum interval has elapsed since the
// previous emit into the conversation, then records the new emit time.
// The first emit into a conversation passes immediately.
// Returns early with ctx.Err() if the context is done while waiting.
func (l *Limiter) Gate(ctx context.Context, conversationID string) error {
	l.mu.Lock()
	lim, ok := l.conversations[conversationID]
	if !ok {
		// Burst 1: one token available immediately, refilled every interval.
		lim = rate.NewLimiter(rate.Every(l.interval), 1)
		l.conversations[conversationID] = lim
	}
	l.mu.Unlock()

	return lim.Wait(ctx)
}
