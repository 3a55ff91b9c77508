package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// PollRepository owns the in-memory state of every poll. Update runs fn with
// exclusive access to a single poll; calls on different polls never contend.
type PollRepository interface {
	Save(ctx context.Context, poll *domain.Poll) error
	Get(ctx context.Context, id domain.PollID) (domain.PollSummary, error)
	Snapshot(ctx context.Context, id domain.PollID) (*domain.Snapshot, error)
	Update(ctx context.Context, id domain.PollID, fn func(*domain.Poll) error) (*domain.Snapshot, error)
}

type CreatePollInput struct {
	Title         string
	Owner         uuid.UUID
	AddItemPermit domain.AddItemPermit
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (domain.PollSummary, error)
	GetPoll(ctx context.Context, id string) (domain.PollSummary, error)
}
