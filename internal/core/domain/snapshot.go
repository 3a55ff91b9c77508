package domain

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is an immutable, full copy of a poll's state at one version.
// Items are in creation order.
type Snapshot struct {
	PollID  PollID
	Title   string
	Version uint64
	Items   []Item
}

type Item struct {
	ID        ItemID
	Text      string
	Owner     uuid.UUID
	CreatedAt time.Time
	Score     int

	votes map[uuid.UUID]Vote
}

// VoteOf returns user's current vote, NoVote when the user has none.
func (i Item) VoteOf(user uuid.UUID) Vote {
	return i.votes[user]
}

// VoteSum recomputes the score from the individual votes.
func (i Item) VoteSum() int {
	sum := 0
	for _, v := range i.votes {
		sum += int(v)
	}
	return sum
}

// PollView is the per-recipient render of a snapshot.
type PollView struct {
	PollTitle   string     `json:"poll_title"`
	TopItems    []ItemView `json:"top_items"`
	LatestItems []ItemView `json:"latest_items"`
	UserItems   []ItemView `json:"user_items"`
}

type ItemView struct {
	ID       ItemID `json:"id"`
	Text     string `json:"text"`
	Score    int    `json:"score"`
	UserVote Vote   `json:"user_vote"`
}
