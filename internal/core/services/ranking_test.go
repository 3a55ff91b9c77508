package services_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func texts(items []domain.ItemView) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}

func TestRenderTopOrdering(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()

	snap := snapshotOf(t, func(p *domain.Poll, at func() time.Time) {
		a, _ := p.AddItem(alice, "A", at())
		b, _ := p.AddItem(alice, "B", at())
		c, _ := p.AddItem(bob, "C", at())
		d, _ := p.AddItem(bob, "D", at())
		_, _ = p.AddItem(carol, "E", at())

		require.NoError(t, p.VoteItem(alice, c, domain.Upvote))
		require.NoError(t, p.VoteItem(bob, c, domain.Upvote))
		require.NoError(t, p.VoteItem(alice, b, domain.Upvote))
		require.NoError(t, p.VoteItem(bob, d, domain.Upvote))
		require.NoError(t, p.VoteItem(carol, a, domain.Downvote))
	})

	view := services.NewRanker(services.RankingLimits{}).Rank(snap).Render(alice)

	// C=2, B=1, D=1 (B created first), E=0, A=-1
	assert.Equal(t, []string{"C", "B", "D", "E", "A"}, texts(view.TopItems))
	for i := 1; i < len(view.TopItems); i++ {
		assert.GreaterOrEqual(t, view.TopItems[i-1].Score, view.TopItems[i].Score)
	}
}

func TestRenderTopTiesSameInstantKeepInsertionOrder(t *testing.T) {
	alice := uuid.New()
	now := time.Unix(2000, 0)

	snap := snapshotOf(t, func(p *domain.Poll, _ func() time.Time) {
		for _, text := range []string{"first", "second", "third"} {
			_, err := p.AddItem(alice, text, now)
			require.NoError(t, err)
		}
	})

	view := services.NewRanker(services.RankingLimits{}).Rank(snap).Render(alice)
	assert.Equal(t, []string{"first", "second", "third"}, texts(view.TopItems))
}

func TestRenderLatestAndMine(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	snap := snapshotOf(t, func(p *domain.Poll, at func() time.Time) {
		_, _ = p.AddItem(alice, "A1", at())
		_, _ = p.AddItem(bob, "B1", at())
		_, _ = p.AddItem(alice, "A2", at())
		_, _ = p.AddItem(bob, "B2", at())
	})

	ranker := services.NewRanker(services.RankingLimits{})

	forAlice := ranker.Rank(snap).Render(alice)
	assert.Equal(t, []string{"B2", "A2", "B1", "A1"}, texts(forAlice.LatestItems))
	assert.Equal(t, []string{"A2", "A1"}, texts(forAlice.UserItems))

	forBob := ranker.Rank(snap).Render(bob)
	assert.Equal(t, forAlice.LatestItems, forBob.LatestItems)
	assert.Equal(t, []string{"B2", "B1"}, texts(forBob.UserItems))

	stranger := ranker.Rank(snap).Render(uuid.New())
	assert.NotNil(t, stranger.UserItems)
	assert.Empty(t, stranger.UserItems)
}

func TestRenderUserVoteIsPerRecipient(t *testing.T) {
	alice, bob := uuid.New(), uuid.New()

	snap := snapshotOf(t, func(p *domain.Poll, at func() time.Time) {
		id, _ := p.AddItem(alice, "X", at())
		require.NoError(t, p.VoteItem(alice, id, domain.Upvote))
		require.NoError(t, p.VoteItem(bob, id, domain.Downvote))
	})

	ranker := services.NewRanker(services.RankingLimits{})
	a := ranker.Rank(snap).Render(alice).TopItems[0]
	b := ranker.Rank(snap).Render(bob).TopItems[0]
	c := ranker.Rank(snap).Render(uuid.New()).TopItems[0]

	assert.Equal(t, 0, a.Score)
	assert.Equal(t, 0, b.Score)
	assert.Equal(t, domain.Upvote, a.UserVote)
	assert.Equal(t, domain.Downvote, b.UserVote)
	assert.Equal(t, domain.NoVote, c.UserVote)
}

func TestRenderLimits(t *testing.T) {
	alice := uuid.New()

	snap := snapshotOf(t, func(p *domain.Poll, at func() time.Time) {
		for _, text := range []string{"1", "2", "3", "4", "5"} {
			_, _ = p.AddItem(alice, text, at())
		}
	})

	view := services.NewRanker(services.RankingLimits{Top: 2, Latest: 3, Mine: 4}).Rank(snap).Render(alice)
	assert.Equal(t, []string{"1", "2"}, texts(view.TopItems))
	assert.Equal(t, []string{"5", "4", "3"}, texts(view.LatestItems))
	assert.Equal(t, []string{"5", "4", "3", "2"}, texts(view.UserItems))
}

func TestRenderEmptyPoll(t *testing.T) {
	snap := snapshotOf(t, func(*domain.Poll, func() time.Time) {})

	view := services.NewRanker(services.RankingLimits{Top: 10, Latest: 10}).Rank(snap).Render(uuid.New())
	assert.Equal(t, "Lunch", view.PollTitle)
	assert.NotNil(t, view.TopItems)
	assert.NotNil(t, view.LatestItems)
	assert.Empty(t, view.TopItems)
	assert.Empty(t, view.LatestItems)
}
