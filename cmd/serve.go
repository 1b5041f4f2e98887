package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/hackerchat/ragbot/internal/api"
	"github.com/hackerchat/ragbot/internal/config"
	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
	"github.com/hackerchat/ragbot/internal/transport"
)

// Probe server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // generation can be slow
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

// runServe builds the full bot: index rebuild, gateway connection, dispatch
// worker, and the operational HTTP server. It blocks until a signal arrives
// or one of the long-running parts fails.
func runServe(logger log.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	addr, err := parseServeAddr(cfg.APIAddr)
	if err != nil {
		return fmt.Errorf("parsing address: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("starting ragbot", "version", Version, "bot_id", cfg.BotID)

	pool, closePool, err := openPool(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closePool()

	rc, err := buildRAG(ctx, cfg, pool, logger)
	if err != nil {
		return err
	}

	socket, err := transport.New(transport.Config{
		URL:                  cfg.SocketURL,
		Token:                cfg.SocketToken,
		ReconnectMaxInterval: cfg.ReconnectMaxInterval,
		ReconnectMaxElapsed:  cfg.ReconnectMaxElapsed,
		Logger:               logger,
	})
	if err != nil {
		return fmt.Errorf("creating gateway socket: %w", err)
	}

	pipeline, err := dispatch.NewPipeline(cfg, rc.store, rc.generator, socket, logger)
	if err != nil {
		return err
	}

	var initialized atomic.Bool

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		DB:          rc.history,
		Queue:       pipeline,
		Transport:   socket,
		Answerer:    rc.asker,
		Initialized: initialized.Load,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP probe server ready",
		"addr", addr,
		"endpoints", "/health, /ready, /ask",
	)

	runCtx, runCancel := context.WithCancel(ctx)
	defer runCancel()

	httpErr := make(chan error, 1)
	go func() {
		httpErr <- srv.ListenAndServe()
	}()

	// The probe server answers immediately; /ready reports false until the
	// index rebuild below finishes and the bot goes online.
	botErr := make(chan error, 1)
	go func() {
		botErr <- runBot(runCtx, cfg, rc, pipeline, socket, &initialized, logger)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-botErr:
		botErr = nil
		runErr = err
	case err := <-httpErr:
		httpErr = nil
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("HTTP server: %w", err)
		}
	}

	runCancel()
	if botErr != nil {
		if err := <-botErr; runErr == nil && err != nil {
			runErr = err
		}
	}

	if httpErr != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = fmt.Errorf("shutting down server: %w", err)
		}
		<-httpErr
	}

	return runErr
}

// runBot rebuilds the vector index, flips the readiness flag, and then runs
// the dispatch worker alongside the gateway socket until ctx is cancelled.
// Both loops return nil on plain cancellation, so a non-nil return always
// means a real failure.
func runBot(
	ctx context.Context,
	cfg *config.Config,
	rc *ragComponents,
	pipeline *dispatch.Pipeline,
	socket *transport.Socket,
	initialized *atomic.Bool,
	logger log.Logger,
) error {
	if err := rebuildIndex(ctx, cfg, rc, logger); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	initialized.Store(true)
	logger.Info("vector index ready, going online")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workerErr := make(chan error, 1)
	go func() {
		workerErr <- pipeline.Run(ctx)
	}()

	err := socket.Run(ctx, pipeline.Push)
	cancel()
	if werr := <-workerErr; err == nil {
		err = werr
	}
	return err
}
