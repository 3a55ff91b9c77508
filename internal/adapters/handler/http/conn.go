package http

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosed
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

type ConnOptions struct {
	// IdleTimeout closes a connection that has sent nothing, not even a
	// pong, for this long. Pings go out at 9/10 of it.
	IdleTimeout     time.Duration
	WriteTimeout    time.Duration
	NoticeBuffer    int
	MaxMessageBytes int64
}

func (o ConnOptions) withDefaults() ConnOptions {
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 60 * time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 10 * time.Second
	}
	if o.NoticeBuffer <= 0 {
		o.NoticeBuffer = 16
	}
	if o.MaxMessageBytes <= 0 {
		o.MaxMessageBytes = 4096
	}
	return o
}

// subscriber is one websocket connection to a poll.
//
// State updates go through a single-slot mailbox: a pending update is
// replaced by a newer version and never by an older one, so the client sees
// versions in increasing order no matter how broadcasts interleave, and a
// slow client only ever holds one pending render.
type subscriber struct {
	conn   *websocket.Conn
	pollID domain.PollID
	userID uuid.UUID
	opts   ConnOptions
	logger *slog.Logger

	state atomic.Int32

	mu       sync.Mutex
	pending  *domain.PollStateUpdate
	accepted uint64
	hasState bool

	wake    chan struct{}
	notices chan string
	done    chan struct{}
	once    sync.Once
}

func newSubscriber(conn *websocket.Conn, pollID domain.PollID, userID uuid.UUID, opts ConnOptions, logger *slog.Logger) *subscriber {
	opts = opts.withDefaults()
	return &subscriber{
		conn:    conn,
		pollID:  pollID,
		userID:  userID,
		opts:    opts,
		logger:  logger,
		wake:    make(chan struct{}, 1),
		notices: make(chan string, opts.NoticeBuffer),
		done:    make(chan struct{}),
	}
}

func (s *subscriber) UserID() uuid.UUID {
	return s.userID
}

func (s *subscriber) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *subscriber) open() bool {
	return s.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

func (s *subscriber) Deliver(update domain.PollStateUpdate) bool {
	if s.State() == StateClosed {
		return false
	}

	s.mu.Lock()
	if s.hasState && update.Version <= s.accepted {
		s.mu.Unlock()
		return true
	}
	s.pending = &update
	s.accepted = update.Version
	s.hasState = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	return true
}

// Notify queues a notice for this connection only. Notices beyond the
// buffer are dropped.
func (s *subscriber) Notify(text string) {
	if s.State() == StateClosed {
		return
	}
	select {
	case s.notices <- text:
	default:
		s.logger.Debug("notice dropped", "poll_id", s.pollID, "user_id", s.userID)
	}
}

func (s *subscriber) Close() {
	s.closeWith(websocket.CloseGoingAway, "server closing connection")
}

func (s *subscriber) closeWith(code int, reason string) {
	s.once.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)
		deadline := time.Now().Add(s.opts.WriteTimeout)
		_ = s.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		_ = s.conn.Close()
	})
}

func (s *subscriber) takePending() *domain.PollStateUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	update := s.pending
	s.pending = nil
	return update
}

func (s *subscriber) writePump(ctx context.Context) error {
	defer s.closeWith(websocket.CloseNormalClosure, "")

	ticker := time.NewTicker(s.opts.IdleTimeout * 9 / 10)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-s.wake:
			update := s.takePending()
			if update == nil {
				continue
			}
			if err := s.write(*update); err != nil {
				return err
			}
		case text := <-s.notices:
			if err := s.write(domain.ActionResponse{Text: text}); err != nil {
				return err
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return err
			}
		}
	}
}

func (s *subscriber) write(msg domain.Outbound) error {
	data, err := EncodeOutbound(msg)
	if err != nil {
		return err
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(s.opts.WriteTimeout))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *subscriber) readPump(ctx context.Context, actions ports.ActionService) error {
	defer s.closeWith(websocket.CloseNormalClosure, "")

	s.conn.SetReadLimit(s.opts.MaxMessageBytes)
	extend := func() error {
		return s.conn.SetReadDeadline(time.Now().Add(s.opts.IdleTimeout))
	}
	_ = extend()
	s.conn.SetPongHandler(func(string) error { return extend() })

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				return nil
			}
			if s.State() == StateClosed {
				return nil
			}
			return err
		}
		_ = extend()

		if kind != websocket.TextMessage {
			s.Notify(domain.Notice(domain.ErrMalformedMessage))
			continue
		}

		action, err := DecodeAction(data)
		if err != nil {
			s.Notify(domain.Notice(err))
			continue
		}

		if _, err := actions.Apply(ctx, s.pollID, s.userID, action); err != nil {
			s.Notify(domain.Notice(err))
			if errors.Is(err, domain.ErrPollNotFound) || errors.Is(err, context.Canceled) {
				return err
			}
		}
	}
}
