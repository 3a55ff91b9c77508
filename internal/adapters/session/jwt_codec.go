package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

const issuer = "livepoll"

type JWTCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTCodec(secret []byte, ttl time.Duration) ports.SessionCodec {
	return &JWTCodec{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (c *JWTCodec) Issue(user uuid.UUID) (string, error) {
	now := c.now()
	claims := jwt.RegisteredClaims{
		Subject:   user.String(),
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

func (c *JWTCodec) Parse(token string) (ports.Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return ports.Session{}, errors.Join(domain.ErrInvalidSession, err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ports.Session{}, fmt.Errorf("%w: bad subject: %v", domain.ErrInvalidSession, err)
	}

	session := ports.Session{
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		session.IssuedAt = claims.IssuedAt.Time
	}
	return session, nil
}
