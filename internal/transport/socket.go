// Package transport connects the bot to the chat application's websocket
// gateway. It feeds inbound message notifications into the dispatch queue
// and delivers the worker's replies, reconnecting with bounded exponential
// backoff when the connection drops.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/hackerchat/ragbot/internal/dispatch"
	"github.com/hackerchat/ragbot/internal/log"
)

var (
	// ErrNotConnected indicates a send was attempted with no live connection.
	ErrNotConnected = errors.New("socket not connected")

	// ErrGaveUp indicates reconnection attempts exhausted their time budget.
	ErrGaveUp = errors.New("reconnect attempts exhausted")
)

// frameTypeMessage is the only frame type the bot reads or writes.
const frameTypeMessage = "message"

// defaultWriteTimeout bounds a single websocket write when the caller's
// context carries no deadline.
const defaultWriteTimeout = 5 * time.Second

// inboundFrame is a message notification from the gateway.
type inboundFrame struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
	AuthorID  string `json:"authorId"`
	Content   string `json:"content"`
}

// outboundFrame is a reply pushed back into a channel.
type outboundFrame struct {
	Type      string `json:"type"`
	ChannelID string `json:"channelId"`
	Content   string `json:"content"`
}

// Config holds the socket endpoint and reconnect policy.
type Config struct {
	// URL is the ws:// or wss:// gateway endpoint.
	URL string

	// Token, when set, is sent as a bearer token on the dial request.
	Token string

	// ReconnectMaxInterval caps the delay between reconnect attempts.
	ReconnectMaxInterval time.Duration

	// ReconnectMaxElapsed bounds total time spent failing to reconnect
	// before Run gives up. Zero means retry forever.
	ReconnectMaxElapsed time.Duration

	Logger log.Logger
}

// Socket is the websocket adapter. It satisfies the dispatch.Transport
// contract for sends; inbound frames are pushed through the callback given
// to Run.
type Socket struct {
	cfg    Config
	logger log.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected atomic.Bool
}

// New builds a Socket for the given endpoint.
func New(cfg Config) (*Socket, error) {
	if cfg.URL == "" {
		return nil, errors.New("socket url is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	return &Socket{cfg: cfg, logger: cfg.Logger.With("component", "socket")}, nil
}

// Available reports whether a gateway connection is currently live.
func (s *Socket) Available() bool {
	return s.connected.Load()
}

// Run dials the gateway and reads frames until the context is cancelled,
// pushing each message notification through push. Dropped connections are
// redialed with exponential backoff; Run returns ErrGaveUp only when the
// reconnect time budget is exhausted.
func (s *Socket) Run(ctx context.Context, push func(dispatch.InboundEvent)) error {
	bo := backoff.NewExponentialBackOff()
	if s.cfg.ReconnectMaxInterval > 0 {
		bo.MaxInterval = s.cfg.ReconnectMaxInterval
	}
	bo.MaxElapsedTime = s.cfg.ReconnectMaxElapsed

	for {
		if ctx.Err() != nil {
			return nil
		}

		conn, err := s.dial(ctx)
		if err != nil {
			wait := bo.NextBackOff()
			if wait == backoff.Stop {
				return fmt.Errorf("%w: %v", ErrGaveUp, err)
			}
			s.logger.Warn("dial failed, retrying", "error", err, "retry_in", wait)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(wait):
			}
			continue
		}

		bo.Reset()
		s.setConn(conn)
		s.logger.Info("connected to gateway", "url", s.cfg.URL)

		s.readLoop(ctx, conn, push)
		s.clearConn(conn)

		if ctx.Err() != nil {
			return nil
		}
		s.logger.Warn("connection lost, reconnecting")
	}
}

// Send delivers one reply into a channel. It satisfies dispatch.Transport.
func (s *Socket) Send(ctx context.Context, conversationID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("setting write deadline: %w", err)
	}

	frame := outboundFrame{Type: frameTypeMessage, ChannelID: conversationID, Content: text}
	if err := s.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("writing reply frame: %w", err)
	}
	return nil
}

func (s *Socket) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if s.cfg.Token != "" {
		header.Set("Authorization", "Bearer "+s.cfg.Token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", s.cfg.URL, err)
	}
	return conn, nil
}

// readLoop consumes frames until the connection breaks or the context is
// cancelled. Cancellation closes the connection to unblock the pending read.
func (s *Socket) readLoop(ctx context.Context, conn *websocket.Conn, push func(dispatch.InboundEvent)) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		var frame inboundFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if ctx.Err() == nil {
				s.logger.Warn("read failed", "error", err)
			}
			return
		}
		if frame.Type != frameTypeMessage {
			continue
		}

		push(dispatch.InboundEvent{
			ConversationID: frame.ChannelID,
			AuthorID:       frame.AuthorID,
			Text:           frame.Content,
			ReceivedAt:     time.Now(),
		})
	}
}

func (s *Socket) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	s.connected.Store(true)
}

// clearConn drops the connection only if it is still the current one, so a
// concurrent redial is never clobbered.
func (s *Socket) clearConn(conn *websocket.Conn) {
	s.connected.Store(false)
	s.mu.Lock()
	if s.conn == conn {
		s.conn = nil
	}
	s.mu.Unlock()
	_ = conn.Close()
}
