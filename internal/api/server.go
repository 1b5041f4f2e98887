// Package api serves the bot's operational HTTP endpoints: liveness,
// readiness with queue depth, and an ad-hoc question endpoint for poking the
// retrieval pipeline without going through the chat gateway.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
)

// probeTimeout bounds the database ping inside the readiness check.
const probeTimeout = 2 * time.Second

// Pinger reports whether the chat database is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// QueueStats exposes the dispatch queue's current depth.
type QueueStats interface {
	Depth() int
}

// TransportStatus reports whether the gateway connection is live.
type TransportStatus interface {
	Available() bool
}

// Answerer computes an answer for an ad-hoc question, returning the reply
// text and the passages it was grounded on.
type Answerer interface {
	Answer(ctx context.Context, question string) (string, []dispatch.Passage, error)
}

// ServerConfig wires the server's collaborators. DB, Queue, Transport, and
// Answerer are each optional; absent ones are skipped in readiness and the
// ask endpoint returns 503.
type ServerConfig struct {
	Logger    log.Logger
	DB        Pinger
	Queue     QueueStats
	Transport TransportStatus
	Answerer  Answerer

	// Initialized reports whether the vector index has been built. The
	// readiness endpoint stays false until it returns true.
	Initialized func() bool
}

// Server is the operational HTTP server.
type Server struct {
	mux    *http.ServeMux
	cfg    ServerConfig
	logger log.Logger
}

// NewServer builds the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Initialized == nil {
		return nil, errors.New("initialized probe is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	s := &Server{cfg: cfg, logger: logger}

	inner := http.NewServeMux()
	inner.HandleFunc("POST /ask", s.ask)

	var handler http.Handler = inner
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.health)
	mux.HandleFunc("GET /ready", s.ready)
	mux.Handle("/", handler)

	s.mux = mux
	return s, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// health reports liveness plus whether the index build has completed.
func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"initialized": s.cfg.Initialized(),
	}, s.logger)
}

// ready reports full readiness: index built, database reachable, gateway
// connected. The dispatch queue depth rides along for monitoring.
func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{}
	ready := s.cfg.Initialized()
	body["initialized"] = ready

	if s.cfg.Queue != nil {
		body["queue_depth"] = s.cfg.Queue.Depth()
	}

	if s.cfg.DB != nil {
		pingCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := s.cfg.DB.Ping(pingCtx)
		cancel()
		body["database"] = err == nil
		if err != nil {
			ready = false
		}
	}

	if s.cfg.Transport != nil {
		available := s.cfg.Transport.Available()
		body["socket"] = available
		if !available {
			ready = false
		}
	}

	body["ready"] = ready
	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, body, s.logger)
}
