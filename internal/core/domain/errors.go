package domain

import "errors"

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrPollExists       = errors.New("poll already exists")
	ErrInvalidPollID    = errors.New("invalid poll id")
	ErrInvalidPollTitle = errors.New("poll title must be at least 3 characters long")
	ErrItemNotFound     = errors.New("no such item exists with this item id")
	ErrEmptyItemText    = errors.New("poll item text cannot be empty")
	ErrInvalidVote      = errors.New("vote value must be -1, 0 or 1")
	ErrNotPollOwner     = errors.New("only the poll owner can add items")
	ErrInvalidPermit    = errors.New("add item permit must be anyone or owner_only")
	ErrInvalidSession   = errors.New("invalid session token")
	ErrShuttingDown     = errors.New("server is shutting down")
	ErrMalformedMessage = errors.New("malformed client message")
	ErrUnknownMessage   = errors.New("unknown client message type")
)

// Notice returns the participant-facing text for an action failure.
func Notice(err error) string {
	switch {
	case errors.Is(err, ErrEmptyItemText):
		return "Poll item text cannot be empty."
	case errors.Is(err, ErrInvalidVote):
		return "Provided vote value is invalid for this poll item."
	case errors.Is(err, ErrItemNotFound):
		return "No such item exists with this item ID."
	case errors.Is(err, ErrNotPollOwner):
		return "You have to be owner of this poll to add item."
	case errors.Is(err, ErrMalformedMessage):
		return "Failed to deserialize client message."
	case errors.Is(err, ErrUnknownMessage):
		return "Unknown client message type."
	case errors.Is(err, ErrPollNotFound):
		return "The poll you are looking for may have been closed."
	case errors.Is(err, ErrShuttingDown):
		return "Server is restarting, please reconnect."
	default:
		return "Something went wrong, please try again."
	}
}
