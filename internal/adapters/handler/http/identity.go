package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type contextKey string

const UserIDKey contextKey = "user_id"

const DefaultSessionCookie = "livepoll_session"

type CookieConfig struct {
	Name   string
	Path   string
	Secure bool
	MaxAge time.Duration
}

// Identity resolves the caller of every request and stores its user id in
// the request context under UserIDKey.
type Identity struct {
	resolver ports.IdentityResolver
	cookie   CookieConfig
}

func NewIdentity(resolver ports.IdentityResolver, cookie CookieConfig) *Identity {
	if cookie.Name == "" {
		cookie.Name = DefaultSessionCookie
	}
	if cookie.Path == "" {
		cookie.Path = "/"
	}
	return &Identity{
		resolver: resolver,
		cookie:   cookie,
	}
}

func (i *Identity) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info := ports.ConnectionInfo{
			RemoteAddr:   r.RemoteAddr,
			ForwardedFor: r.Header.Get("X-Forwarded-For"),
		}
		if c, err := r.Cookie(i.cookie.Name); err == nil {
			info.SessionToken = c.Value
		}

		identity := i.resolver.Resolve(info)
		if identity.SessionToken != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     i.cookie.Name,
				Value:    identity.SessionToken,
				Path:     i.cookie.Path,
				HttpOnly: true,
				Secure:   i.cookie.Secure,
				SameSite: http.SameSiteLaxMode,
				MaxAge:   int(i.cookie.MaxAge.Seconds()),
			})
		}

		ctx := context.WithValue(r.Context(), UserIDKey, identity.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
