package services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

// fakeSubscriber records every update it accepts.
type fakeSubscriber struct {
	user uuid.UUID

	mu      sync.Mutex
	updates []domain.PollStateUpdate
	closed  bool
	refuse  bool
}

func newFakeSubscriber(user uuid.UUID) *fakeSubscriber {
	return &fakeSubscriber{user: user}
}

func (f *fakeSubscriber) UserID() uuid.UUID { return f.user }

func (f *fakeSubscriber) Deliver(update domain.PollStateUpdate) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.refuse {
		return false
	}
	f.updates = append(f.updates, update)
	return true
}

func (f *fakeSubscriber) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

func (f *fakeSubscriber) last(t *testing.T) domain.PollStateUpdate {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.updates)
	return f.updates[len(f.updates)-1]
}

func (f *fakeSubscriber) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fixture struct {
	repo    ports.PollRepository
	hub     ports.Hub
	actions ports.ActionService
	polls   ports.PollService
}

func newFixture(limits services.RankingLimits) *fixture {
	repo := memory.NewPollRepository()
	hub := services.NewHub(repo, services.NewRanker(limits), nil)
	return &fixture{
		repo:    repo,
		hub:     hub,
		actions: services.NewActionService(repo, hub, nil),
		polls:   services.NewPollService(repo),
	}
}

func (f *fixture) createPoll(t *testing.T, owner uuid.UUID) domain.PollID {
	t.Helper()
	poll, err := f.polls.Create(context.Background(), ports.CreatePollInput{Title: "Lunch", Owner: owner})
	require.NoError(t, err)
	return poll.ID
}

func (f *fixture) subscribe(t *testing.T, pollID domain.PollID, user uuid.UUID) *fakeSubscriber {
	t.Helper()
	sub := newFakeSubscriber(user)
	require.NoError(t, f.hub.Register(context.Background(), pollID, sub))
	return sub
}

// snapshotOf builds a snapshot from scripted actions with strictly
// increasing creation times.
func snapshotOf(t *testing.T, build func(p *domain.Poll, at func() time.Time)) *domain.Snapshot {
	t.Helper()
	p, err := domain.NewPoll("poll", "Lunch", uuid.New(), domain.AddItemAnyone, time.Unix(0, 0))
	require.NoError(t, err)

	clock := time.Unix(1000, 0)
	build(p, func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	return p.Snapshot()
}

func portsInput(title string, owner uuid.UUID, permit domain.AddItemPermit) ports.CreatePollInput {
	return ports.CreatePollInput{Title: title, Owner: owner, AddItemPermit: permit}
}
