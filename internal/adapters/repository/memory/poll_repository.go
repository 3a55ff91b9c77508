package memory

import (
	"context"
	"sync"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// pollEntry serializes every read and write of one poll.
type pollEntry struct {
	mu   sync.Mutex
	poll *domain.Poll
}

type pollRepository struct {
	mu    sync.RWMutex
	polls map[domain.PollID]*pollEntry
}

func NewPollRepository() ports.PollRepository {
	return &pollRepository{
		polls: make(map[domain.PollID]*pollEntry),
	}
}

func (r *pollRepository) Save(ctx context.Context, poll *domain.Poll) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.polls[poll.ID]; exists {
		return domain.ErrPollExists
	}
	r.polls[poll.ID] = &pollEntry{poll: poll}
	return nil
}

func (r *pollRepository) Get(ctx context.Context, id domain.PollID) (domain.PollSummary, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return domain.PollSummary{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.poll.Summary(), nil
}

func (r *pollRepository) Snapshot(ctx context.Context, id domain.PollID) (*domain.Snapshot, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.poll.Snapshot(), nil
}

// Update applies fn under the poll's lock. fn must leave the poll untouched
// when it returns an error.
func (r *pollRepository) Update(ctx context.Context, id domain.PollID, fn func(*domain.Poll) error) (*domain.Snapshot, error) {
	entry, err := r.entry(ctx, id)
	if err != nil {
		return nil, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if err := fn(entry.poll); err != nil {
		return nil, err
	}
	return entry.poll.Snapshot(), nil
}

func (r *pollRepository) entry(ctx context.Context, id domain.PollID) (*pollEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	entry, ok := r.polls[id]
	r.mu.RUnlock()
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return entry, nil
}
