package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_FirstEmitImmediate(t *testing.T) {
	l := NewLimiter(time.Second)

	start := time.Now()
	require.NoError(t, l.Gate(t.Context(), "c1"))

	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"first emit into a conversation should not wait")
}

func TestLimiter_EnforcesMinInterval(t *testing.T) {
	const interval = 100 * time.Millisecond
	l := NewLimiter(interval)
	ctx := t.Context()

	require.NoError(t, l.Gate(ctx, "c1"))
	first := time.Now()

	require.NoError(t, l.Gate(ctx, "c1"))
	elapsed := time.Since(first)

	assert.GreaterOrEqual(t, elapsed, interval,
		"second emit must wait out the minimum interval")
}

func TestLimiter_ConversationsIndependent(t *testing.T) {
	l := NewLimiter(time.Second)
	ctx := t.Context()

	require.NoError(t, l.Gate(ctx, "c1"))

	start := time.Now()
	require.NoError(t, l.Gate(ctx, "c2"))

	assert.Less(t, time.Since(start), 100*time.Millisecond,
		"a hot conversation must not delay other conversations")
}

func TestLimiter_GateReturnsOnCancel(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, l.Gate(ctx, "c1"))

	done := make(chan error, 1)
	go func() {
		done <- l.Gate(ctx, "c1")
	}()

	cancel()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("Gate did not return after cancel")
	}
}
