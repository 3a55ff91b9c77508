package ports

import (
	"time"

	"github.com/google/uuid"
)

// ConnectionInfo is what the transport knows about an inbound client.
type ConnectionInfo struct {
	RemoteAddr   string
	ForwardedFor string
	SessionToken string
}

type Identity struct {
	UserID uuid.UUID
	// SessionToken is set when the client must be handed a new token.
	SessionToken string
}

type IdentityResolver interface {
	Resolve(info ConnectionInfo) Identity
}

// Session is a verified session token.
type Session struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type SessionCodec interface {
	Issue(user uuid.UUID) (string, error)
	Parse(token string) (Session, error)
}
