package domain

import (
	"maps"
	"strings"
	"time"

	"github.com/google/uuid"
)

type PollID string

type ItemID int

type AddItemPermit string

const (
	AddItemAnyone    AddItemPermit = "anyone"
	AddItemOwnerOnly AddItemPermit = "owner_only"
)

func (p AddItemPermit) Valid() bool {
	return p == AddItemAnyone || p == AddItemOwnerOnly
}

const MinPollTitleLength = 3

// Poll is the authoritative state of a single poll. It is not safe for
// concurrent use; the store serializes every call on a poll.
type Poll struct {
	ID            PollID
	Title         string
	Owner         uuid.UUID
	AddItemPermit AddItemPermit
	CreatedAt     time.Time

	version uint64
	items   []*item
}

type item struct {
	id        ItemID
	text      string
	owner     uuid.UUID
	createdAt time.Time
	score     int
	// replaced on every vote, never written in place: snapshots share it
	votes map[uuid.UUID]Vote
}

func NewPoll(id PollID, title string, owner uuid.UUID, permit AddItemPermit, now time.Time) (*Poll, error) {
	title = strings.TrimSpace(title)
	if len([]rune(title)) < MinPollTitleLength {
		return nil, ErrInvalidPollTitle
	}
	if permit == "" {
		permit = AddItemAnyone
	}
	if !permit.Valid() {
		return nil, ErrInvalidPermit
	}
	return &Poll{
		ID:            id,
		Title:         title,
		Owner:         owner,
		AddItemPermit: permit,
		CreatedAt:     now,
	}, nil
}

func (p *Poll) Version() uint64 {
	return p.version
}

func (p *Poll) ItemCount() int {
	return len(p.items)
}

// AddItem appends a new item owned by user with a zero score.
func (p *Poll) AddItem(user uuid.UUID, text string, now time.Time) (ItemID, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, ErrEmptyItemText
	}
	if p.AddItemPermit == AddItemOwnerOnly && user != p.Owner {
		return 0, ErrNotPollOwner
	}

	id := ItemID(len(p.items))
	p.items = append(p.items, &item{
		id:        id,
		text:      text,
		owner:     user,
		createdAt: now,
		votes:     map[uuid.UUID]Vote{},
	})
	p.version++
	return id, nil
}

// VoteItem overwrites user's vote on the item. A zero vote is stored
// explicitly so the user's influence is retracted without losing the entry.
func (p *Poll) VoteItem(user uuid.UUID, id ItemID, vote Vote) error {
	if !vote.Valid() {
		return ErrInvalidVote
	}
	if id < 0 || int(id) >= len(p.items) {
		return ErrItemNotFound
	}

	it := p.items[id]
	old := it.votes[user]
	votes := maps.Clone(it.votes)
	votes[user] = vote
	it.votes = votes
	it.score += int(vote - old)
	p.version++
	return nil
}

// Snapshot captures the current state. The result shares no mutable memory
// with the poll and stays consistent after further mutations.
func (p *Poll) Snapshot() *Snapshot {
	items := make([]Item, len(p.items))
	for i, it := range p.items {
		items[i] = Item{
			ID:        it.id,
			Text:      it.text,
			Owner:     it.owner,
			CreatedAt: it.createdAt,
			Score:     it.score,
			votes:     it.votes,
		}
	}
	return &Snapshot{
		PollID:  p.ID,
		Title:   p.Title,
		Version: p.version,
		Items:   items,
	}
}

type PollSummary struct {
	ID            PollID        `json:"id"`
	Title         string        `json:"title"`
	AddItemPermit AddItemPermit `json:"add_item_permit"`
	ItemCount     int           `json:"item_count"`
	CreatedAt     time.Time     `json:"created_at"`
}

func (p *Poll) Summary() PollSummary {
	return PollSummary{
		ID:            p.ID,
		Title:         p.Title,
		AddItemPermit: p.AddItemPermit,
		ItemCount:     len(p.items),
		CreatedAt:     p.CreatedAt,
	}
}
