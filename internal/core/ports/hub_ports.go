package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// Subscriber is one open connection to a poll. Deliver must not block; it
// reports false once the subscriber is closed.
type Subscriber interface {
	UserID() uuid.UUID
	Deliver(update domain.PollStateUpdate) bool
	Close()
}

type Hub interface {
	Register(ctx context.Context, pollID domain.PollID, sub Subscriber) error
	Unregister(pollID domain.PollID, sub Subscriber)
	Broadcast(snapshot *domain.Snapshot)
	Subscribers(pollID domain.PollID) int
	Close()
}
