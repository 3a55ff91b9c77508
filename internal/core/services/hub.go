package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type hub struct {
	repo   ports.PollRepository
	ranker ports.Ranker
	logger *slog.Logger

	mu     sync.RWMutex
	topics map[domain.PollID]*topic
	closed bool
}

// topic is the subscriber set of one poll. A dead topic has been removed
// from the hub and must not accept new subscribers.
type topic struct {
	mu   sync.Mutex
	subs map[ports.Subscriber]struct{}
	dead bool
}

func NewHub(repo ports.PollRepository, ranker ports.Ranker, logger *slog.Logger) ports.Hub {
	return &hub{
		repo:   repo,
		ranker: ranker,
		logger: resolveLogger(logger),
		topics: make(map[domain.PollID]*topic),
	}
}

// Register adds sub to the poll and hands it the current state.
func (h *hub) Register(ctx context.Context, pollID domain.PollID, sub ports.Subscriber) error {
	if err := h.add(pollID, sub); err != nil {
		return err
	}

	// registering before reading the state means a concurrent mutation is
	// either in this snapshot or broadcast to sub afterwards
	snapshot, err := h.repo.Snapshot(ctx, pollID)
	if err != nil {
		h.Unregister(pollID, sub)
		return fmt.Errorf("failed to read poll state: %w", err)
	}

	h.deliver(pollID, sub, snapshot.Version, h.ranker.Rank(snapshot))
	h.logger.Debug("subscriber registered", "poll_id", pollID, "user_id", sub.UserID())
	return nil
}

func (h *hub) add(pollID domain.PollID, sub ports.Subscriber) error {
	for {
		h.mu.Lock()
		if h.closed {
			h.mu.Unlock()
			return domain.ErrShuttingDown
		}
		t, ok := h.topics[pollID]
		if !ok {
			t = &topic{subs: make(map[ports.Subscriber]struct{})}
			h.topics[pollID] = t
		}
		h.mu.Unlock()

		t.mu.Lock()
		if t.dead {
			t.mu.Unlock()
			continue
		}
		t.subs[sub] = struct{}{}
		t.mu.Unlock()
		return nil
	}
}

// Unregister is idempotent.
func (h *hub) Unregister(pollID domain.PollID, sub ports.Subscriber) {
	h.mu.RLock()
	t, ok := h.topics[pollID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	t.mu.Lock()
	if _, ok := t.subs[sub]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.subs, sub)
	empty := len(t.subs) == 0
	if empty {
		t.dead = true
	}
	t.mu.Unlock()

	if empty {
		h.mu.Lock()
		if h.topics[pollID] == t {
			delete(h.topics, pollID)
		}
		h.mu.Unlock()
	}
	h.logger.Debug("subscriber unregistered", "poll_id", pollID, "user_id", sub.UserID())
}

// Broadcast ranks snapshot once and renders it for every subscriber of its
// poll. Subscribers that refuse delivery are dropped.
func (h *hub) Broadcast(snapshot *domain.Snapshot) {
	subs := h.members(snapshot.PollID)
	if len(subs) == 0 {
		return
	}

	ranking := h.ranker.Rank(snapshot)
	for _, sub := range subs {
		h.deliver(snapshot.PollID, sub, snapshot.Version, ranking)
	}
}

func (h *hub) deliver(pollID domain.PollID, sub ports.Subscriber, version uint64, ranking ports.Ranking) {
	update := domain.PollStateUpdate{
		Version: version,
		View:    ranking.Render(sub.UserID()),
	}
	if !sub.Deliver(update) {
		h.Unregister(pollID, sub)
	}
}

func (h *hub) members(pollID domain.PollID) []ports.Subscriber {
	h.mu.RLock()
	t, ok := h.topics[pollID]
	h.mu.RUnlock()
	if !ok {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	subs := make([]ports.Subscriber, 0, len(t.subs))
	for sub := range t.subs {
		subs = append(subs, sub)
	}
	return subs
}

func (h *hub) Subscribers(pollID domain.PollID) int {
	return len(h.members(pollID))
}

// Close closes every subscriber and rejects further registrations.
func (h *hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	topics := h.topics
	h.topics = make(map[domain.PollID]*topic)
	h.mu.Unlock()

	var subs []ports.Subscriber
	for _, t := range topics {
		t.mu.Lock()
		for sub := range t.subs {
			subs = append(subs, sub)
		}
		t.subs = make(map[ports.Subscriber]struct{})
		t.dead = true
		t.mu.Unlock()
	}

	for _, sub := range subs {
		sub.Close()
	}
	h.logger.Info("hub closed", "subscribers", len(subs))
}
