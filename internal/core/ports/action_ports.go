package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// ActionService validates and applies client actions. A successful action
// returns the snapshot it produced, which has already been broadcast.
type ActionService interface {
	Apply(ctx context.Context, pollID domain.PollID, user uuid.UUID, action domain.Action) (*domain.Snapshot, error)
}

type Ranker interface {
	Rank(snapshot *domain.Snapshot) Ranking
}

// Ranking holds the recipient-independent ordering of one snapshot.
type Ranking interface {
	Render(user uuid.UUID) domain.PollView
}
