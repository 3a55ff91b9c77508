package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type pollService struct {
	repo ports.PollRepository
	now  func() time.Time
}

func NewPollService(repo ports.PollRepository) ports.PollService {
	return &pollService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (domain.PollSummary, error) {
	poll, err := domain.NewPoll(domain.PollID(uuid.NewString()), input.Title, input.Owner, input.AddItemPermit, s.now())
	if err != nil {
		return domain.PollSummary{}, err
	}

	if err := s.repo.Save(ctx, poll); err != nil {
		return domain.PollSummary{}, fmt.Errorf("failed to save poll: %w", err)
	}

	return poll.Summary(), nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (domain.PollSummary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.PollSummary{}, domain.ErrInvalidPollID
	}

	return s.repo.Get(ctx, domain.PollID(id))
}
