package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hackerchat/ragbot/internal/config"
)

// Pipeline bundles the queue, the per-conversation limiter, and the worker
// into one explicitly constructed object. It is the only handle the rest of
// the process needs: the transport pushes into it, the health endpoint reads
// its depth, and the serve command runs it.
type Pipeline struct {
	queue   *Queue
	limiter *Limiter
	worker  *Worker
}

// NewPipeline wires a pipeline from configuration and the three adapters.
func NewPipeline(cfg *config.Config, store ContextStore, gen Generator, transport Transport, logger *slog.Logger) (*Pipeline, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	minInterval := cfg.MinReplyInterval
	if minInterval <= 0 {
		minInterval = time.Second
	}

	queue := NewQueue()
	limiter := NewLimiter(minInterval)

	worker, err := NewWorker(WorkerConfig{
		Queue:              queue,
		Limiter:            limiter,
		Store:              store,
		Generator:          gen,
		Transport:          transport,
		Logger:             logger.With("component", "dispatch"),
		BotID:              cfg.BotID,
		RetrieveTimeout:    cfg.RetrieveTimeout,
		GenerateTimeout:    cfg.GenerateTimeout,
		SendTimeout:        cfg.SendTimeout,
		RespondWithApology: cfg.RespondWithApology,
		ApologyText:        cfg.ApologyText,
	})
	if err != nil {
		return nil, fmt.Errorf("creating dispatch worker: %w", err)
	}

	return &Pipeline{
		queue:   queue,
		limiter: limiter,
		worker:  worker,
	}, nil
}

// Push enqueues an inbound event. Never blocks; safe to call from the
// transport's read loop.
func (p *Pipeline) Push(ev InboundEvent) {
	p.queue.Push(ev)
}

// Depth reports the current queue depth.
func (p *Pipeline) Depth() int {
	return p.queue.Depth()
}

// Run blocks consuming the queue until the context is cancelled.
func (p *Pipeline) Run(ctx context.Context) error {
	return p.worker.Run(ctx)
}
