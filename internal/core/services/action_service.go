package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type actionService struct {
	repo   ports.PollRepository
	hub    ports.Hub
	logger *slog.Logger
	now    func() time.Time
}

func NewActionService(repo ports.PollRepository, hub ports.Hub, logger *slog.Logger) ports.ActionService {
	return &actionService{
		repo:   repo,
		hub:    hub,
		logger: resolveLogger(logger),
		now:    time.Now,
	}
}

func (s *actionService) Apply(ctx context.Context, pollID domain.PollID, user uuid.UUID, action domain.Action) (*domain.Snapshot, error) {
	var mutate func(*domain.Poll) error

	switch a := action.(type) {
	case domain.AddItem:
		mutate = func(p *domain.Poll) error {
			// the timestamp is taken under the poll lock so creation order
			// and createdAt never disagree
			_, err := p.AddItem(user, a.Text, s.now())
			return err
		}
	case domain.VoteItem:
		mutate = func(p *domain.Poll) error {
			return p.VoteItem(user, a.ItemID, a.Vote)
		}
	case domain.UnknownAction:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownMessage, a.Type)
	default:
		return nil, fmt.Errorf("%w: %T", domain.ErrUnknownMessage, action)
	}

	snapshot, err := s.repo.Update(ctx, pollID, mutate)
	if err != nil {
		s.logger.Debug("action rejected", "poll_id", pollID, "user_id", user, "error", err)
		return nil, err
	}

	s.hub.Broadcast(snapshot)
	return snapshot, nil
}
