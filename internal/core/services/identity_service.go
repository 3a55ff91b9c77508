package services

import (
	"log/slog"
	"net"
	"net/netip"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

// ipNamespace seeds the name-based UUIDs derived from client addresses.
var ipNamespace = uuid.MustParse("6f1c2a4e-9b0d-4c8e-a3f5-2d7b8e1c4a90")

type sessionResolver struct {
	codec  ports.SessionCodec
	logger *slog.Logger
	now    func() time.Time
}

// NewSessionResolver identifies clients by a signed session token. Clients
// without a valid token get a fresh identity and a token to keep it. A token
// past half its lifetime is reissued for the same user, so active clients
// keep their identity indefinitely.
func NewSessionResolver(codec ports.SessionCodec, logger *slog.Logger) ports.IdentityResolver {
	return &sessionResolver{
		codec:  codec,
		logger: resolveLogger(logger),
		now:    time.Now,
	}
}

func (r *sessionResolver) Resolve(info ports.ConnectionInfo) ports.Identity {
	if info.SessionToken != "" {
		session, err := r.codec.Parse(info.SessionToken)
		if err == nil {
			if r.needsRefresh(session) {
				return r.issue(session.UserID)
			}
			return ports.Identity{UserID: session.UserID}
		}
		r.logger.Debug("discarding session token", "remote", info.RemoteAddr, "error", err)
	}

	return r.issue(uuid.New())
}

func (r *sessionResolver) needsRefresh(session ports.Session) bool {
	if session.IssuedAt.IsZero() {
		return true
	}
	half := session.ExpiresAt.Sub(session.IssuedAt) / 2
	return !r.now().Before(session.IssuedAt.Add(half))
}

func (r *sessionResolver) issue(userID uuid.UUID) ports.Identity {
	token, err := r.codec.Issue(userID)
	if err != nil {
		// the identity still holds for this connection, it just won't
		// survive a reconnect
		r.logger.Error("failed to issue session token", "error", err)
		return ports.Identity{UserID: userID}
	}
	return ports.Identity{UserID: userID, SessionToken: token}
}

type ipResolver struct {
	trustForwarded bool
}

// NewIPResolver identifies clients by network address. With trustForwarded
// the left-most X-Forwarded-For entry wins over the peer address.
func NewIPResolver(trustForwarded bool) ports.IdentityResolver {
	return &ipResolver{trustForwarded: trustForwarded}
}

func (r *ipResolver) Resolve(info ports.ConnectionInfo) ports.Identity {
	return ports.Identity{
		UserID: uuid.NewSHA1(ipNamespace, []byte(r.clientIP(info))),
	}
}

func (r *ipResolver) clientIP(info ports.ConnectionInfo) string {
	if r.trustForwarded && info.ForwardedFor != "" {
		first, _, _ := strings.Cut(info.ForwardedFor, ",")
		if addr, err := netip.ParseAddr(strings.TrimSpace(first)); err == nil {
			return addr.Unmap().String()
		}
	}

	host, _, err := net.SplitHostPort(info.RemoteAddr)
	if err != nil {
		host = info.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String()
	}
	return host
}
