package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Default per-call timeouts for the external collaborators. A slow retrieval
// or generation throttles throughput (the worker is single-threaded by
// design) but must never block it forever.
const (
	DefaultRetrieveTimeout = 10 * time.Second
	DefaultGenerateTimeout = 30 * time.Second
	DefaultSendTimeout     = 5 * time.Second
)

// WorkerConfig contains all required parameters for a Worker.
type WorkerConfig struct {
	Queue     *Queue
	Limiter   *Limiter
	Store     ContextStore
	Generator Generator
	Transport Transport
	Logger    *slog.Logger

	// BotID is the bot's own user id; events it authored are dropped to
	// prevent self-triggered loops.
	BotID string

	// Per-call timeouts (zero-value uses defaults).
	RetrieveTimeout time.Duration
	GenerateTimeout time.Duration
	SendTimeout     time.Duration

	// RespondWithApology switches the failure policy for retrieval and
	// generation errors from fail-silent (drop the event) to sending
	// ApologyText into the conversation instead.
	RespondWithApology bool
	ApologyText        string
}

// validate checks if all required parameters are present.
func (cfg WorkerConfig) validate() error {
	if cfg.Queue == nil {
		return errors.New("queue is required")
	}
	if cfg.Limiter == nil {
		return errors.New("limiter is required")
	}
	if cfg.Store == nil {
		return errors.New("context store is required")
	}
	if cfg.Generator == nil {
		return errors.New("generator is required")
	}
	if cfg.Transport == nil {
		return errors.New("transport is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if strings.TrimSpace(cfg.BotID) == "" {
		return errors.New("bot id is required")
	}
	if cfg.RespondWithApology && strings.TrimSpace(cfg.ApologyText) == "" {
		return errors.New("apology text is required when apology mode is on")
	}
	return nil
}

// Worker is the single consumer of the inbound event queue. It validates
// each event, applies the per-conversation rate limit, computes a reply via
// the context store and generator, and hands it to the transport.
//
// All configuration is captured immutably at construction.
type Worker struct {
	queue     *Queue
	limiter   *Limiter
	store     ContextStore
	generator Generator
	transport Transport
	logger    *slog.Logger

	botID string

	retrieveTimeout time.Duration
	generateTimeout time.Duration
	sendTimeout     time.Duration

	apologize   bool
	apologyText string
}

// NewWorker creates a Worker with the given configuration.
func NewWorker(cfg WorkerConfig) (*Worker, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	retrieveTimeout := cfg.RetrieveTimeout
	if retrieveTimeout <= 0 {
		retrieveTimeout = DefaultRetrieveTimeout
	}
	generateTimeout := cfg.GenerateTimeout
	if generateTimeout <= 0 {
		generateTimeout = DefaultGenerateTimeout
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout <= 0 {
		sendTimeout = DefaultSendTimeout
	}

	return &Worker{
		queue:           cfg.Queue,
		limiter:         cfg.Limiter,
		store:           cfg.Store,
		generator:       cfg.Generator,
		transport:       cfg.Transport,
		logger:          cfg.Logger,
		botID:           cfg.BotID,
		retrieveTimeout: retrieveTimeout,
		generateTimeout: generateTimeout,
		sendTimeout:     sendTimeout,
		apologize:       cfg.RespondWithApology,
		apologyText:     cfg.ApologyText,
	}, nil
}

// Run consumes the queue until the context is cancelled. Each event is
// processed fully, including its external calls, before the next is popped,
// which preserves per-conversation reply ordering. Run returns nil on
// shutdown; per-event failures never propagate.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("dispatch worker started", "bot_id", w.botID)

	for {
		ev, err := w.queue.Pop(ctx)
		if err != nil {
			// Only context cancellation reaches here.
			w.logger.Info("dispatch worker stopped")
			return nil
		}
		w.process(ctx, ev)
	}
}

// process turns one event into zero or one outbound reply.
func (w *Worker) process(ctx context.Context, ev InboundEvent) {
	if reason, ok := w.accept(ev); !ok {
		w.logger.Debug("event rejected",
			"reason", reason,
			"conversation_id", ev.ConversationID,
			"author_id", ev.AuthorID,
		)
		return
	}

	// May delay up to the minimum interval for a hot conversation; returns
	// early only on shutdown.
	if err := w.limiter.Gate(ctx, ev.ConversationID); err != nil {
		return
	}

	correlationID := uuid.NewString()
	logger := w.logger.With(
		"correlation_id", correlationID,
		"conversation_id", ev.ConversationID,
	)

	retrieveCtx, cancelRetrieve := context.WithTimeout(ctx, w.retrieveTimeout)
	passages, err := w.store.Retrieve(retrieveCtx, ev.Text)
	cancelRetrieve()
	if err != nil {
		logger.Warn("retrieval failed, dropping event", "error", err)
		w.maybeApologize(ctx, ev.ConversationID, correlationID, logger)
		return
	}

	generateCtx, cancelGenerate := context.WithTimeout(ctx, w.generateTimeout)
	text, err := w.generator.Generate(generateCtx, ev.Text, passages)
	cancelGenerate()
	if err != nil {
		logger.Warn("generation failed, dropping event", "error", err)
		w.maybeApologize(ctx, ev.ConversationID, correlationID, logger)
		return
	}

	reply := OutboundReply{
		ConversationID: ev.ConversationID,
		Text:           text,
		CorrelationID:  correlationID,
	}
	w.send(ctx, reply, logger)
}

// accept applies the filtering policy in order, short-circuiting on the
// first failure. The returned reason is for logging only.
func (w *Worker) accept(ev InboundEvent) (string, bool) {
	if ev.AuthorID == w.botID {
		return "own message", false
	}
	if strings.TrimSpace(ev.Text) == "" {
		return "empty text", false
	}
	if ev.ConversationID == "" || ev.AuthorID == "" {
		return "malformed event", false
	}
	return "", true
}

// send delivers a reply. Delivery failures are logged and the text is lost;
// there is no retry and no requeue.
func (w *Worker) send(ctx context.Context, reply OutboundReply, logger *slog.Logger) {
	sendCtx, cancel := context.WithTimeout(ctx, w.sendTimeout)
	defer cancel()

	if err := w.transport.Send(sendCtx, reply.ConversationID, reply.Text); err != nil {
		logger.Warn("delivery failed, reply lost", "error", err)
		return
	}
	logger.Debug("reply delivered", "length", len(reply.Text))
}

// maybeApologize sends the canned apology when apology mode is enabled.
// In the default fail-silent mode the user simply receives no reply.
func (w *Worker) maybeApologize(ctx context.Context, conversationID, correlationID string, logger *slog.Logger) {
	if !w.apologize {
		return
	}
	w.send(ctx, OutboundReply{
		ConversationID: conversationID,
		Text:           w.apologyText,
		CorrelationID:  correlationID,
	}, logger)
}
