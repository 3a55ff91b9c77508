package domain

// Vote is a participant's signed preference on a single item.
type Vote int

const (
	Downvote Vote = -1
	NoVote   Vote = 0
	Upvote   Vote = 1
)

func (v Vote) Valid() bool {
	return v >= Downvote && v <= Upvote
}
