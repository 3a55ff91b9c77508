package services

import (
	"slices"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// RankingLimits caps the length of each rendered list. Zero means no cap.
type RankingLimits struct {
	Top    int
	Latest int
	Mine   int
}

type ranker struct {
	limits RankingLimits
}

func NewRanker(limits RankingLimits) ports.Ranker {
	return &ranker{limits: limits}
}

// Rank orders snapshot once for every recipient:
//
//   - top: score descending, ties by earlier creation, then by item id
//   - latest: newest first
//   - mine: items owned by the recipient, newest first
func (r *ranker) Rank(snapshot *domain.Snapshot) ports.Ranking {
	items := snapshot.Items

	top := slices.Clone(items)
	slices.SortStableFunc(top, func(a, b domain.Item) int {
		if a.Score != b.Score {
			return b.Score - a.Score
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	top = top[:capped(len(top), r.limits.Top)]

	latestN := capped(len(items), r.limits.Latest)
	latest := make([]domain.Item, 0, latestN)
	for i := len(items) - 1; i >= 0 && len(latest) < latestN; i-- {
		latest = append(latest, items[i])
	}

	return &ranking{
		snapshot: snapshot,
		mineCap:  r.limits.Mine,
		top:      top,
		latest:   latest,
	}
}

type ranking struct {
	snapshot *domain.Snapshot
	mineCap  int
	top      []domain.Item
	latest   []domain.Item
}

// Render projects the ranking for user: its votes and its own items.
func (r *ranking) Render(user uuid.UUID) domain.PollView {
	mine := make([]domain.ItemView, 0)
	items := r.snapshot.Items
	for i := len(items) - 1; i >= 0; i-- {
		if r.mineCap > 0 && len(mine) == r.mineCap {
			break
		}
		if items[i].Owner == user {
			mine = append(mine, view(items[i], user))
		}
	}

	return domain.PollView{
		PollTitle:   r.snapshot.Title,
		TopItems:    views(r.top, user),
		LatestItems: views(r.latest, user),
		UserItems:   mine,
	}
}

func views(items []domain.Item, user uuid.UUID) []domain.ItemView {
	out := make([]domain.ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, view(it, user))
	}
	return out
}

func view(it domain.Item, user uuid.UUID) domain.ItemView {
	return domain.ItemView{
		ID:       it.ID,
		Text:     it.Text,
		Score:    it.Score,
		UserVote: it.VoteOf(user),
	}
}

func capped(n, limit int) int {
	if limit > 0 && limit < n {
		return limit
	}
	return n
}
