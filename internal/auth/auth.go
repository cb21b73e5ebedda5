// Package auth issues and verifies the bearer tokens that carry a caller's
// role and entrepreneur id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"hubtrack/internal/cache"
	"hubtrack/internal/core"
)

var (
	ErrMissingSecret = errors.New("missing JWT secret")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

const (
	issuer         = "hubtrack"
	verifiedTokens = 1024
)

// Claims is the token payload. Subject holds the entrepreneur id for
// entrepreneurs and is empty for administrators.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator signs and verifies HS256 tokens. Verified tokens are cached
// until they expire.
type Authenticator struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	verified *cache.LRUCache[core.Identity]
}

func New(secret string, ttl time.Duration) (*Authenticator, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Authenticator{
		secret:   []byte(secret),
		ttl:      ttl,
		now:      time.Now,
		verified: cache.NewLRUCache[core.Identity](verifiedTokens, ttl),
	}, nil
}

// Cache exposes the verified-token cache for periodic cleanup.
func (a *Authenticator) Cache() cache.Cleaner {
	return a.verified
}

// TTL is the lifetime of issued tokens.
func (a *Authenticator) TTL() time.Duration {
	return a.ttl
}

// Issue signs a token for id.
func (a *Authenticator) Issue(id core.Identity) (string, error) {
	if !id.Role.IsValid() {
		return "", fmt.Errorf("issue token: unknown role %q", id.Role)
	}
	if id.Role == core.RoleEntrepreneur && id.EntrepreneurID <= 0 {
		return "", errors.New("issue token: entrepreneur id required")
	}
	now := a.now()
	claims := Claims{
		Role: string(id.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
	}
	if id.Role == core.RoleEntrepreneur {
		claims.Subject = strconv.FormatInt(id.EntrepreneurID, 10)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// Authenticate verifies token and returns the identity it asserts.
func (a *Authenticator) Authenticate(token string) (core.Identity, error) {
	if token == "" {
		return core.Identity{}, ErrInvalidToken
	}
	if id, ok := a.verified.Get(token); ok {
		return id, nil
	}

	var claims Claims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return core.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	id, err := claims.identity()
	if err != nil {
		return core.Identity{}, err
	}
	a.verified.SetWithTTL(token, id, claims.ExpiresAt.Time.Sub(a.now()))
	return id, nil
}

func (c Claims) identity() (core.Identity, error) {
	switch core.Role(c.Role) {
	case core.RoleAdmin:
		return core.Admin(), nil
	case core.RoleEntrepreneur:
		eid, err := strconv.ParseInt(c.Subject, 10, 64)
		if err != nil || eid <= 0 {
			return core.Identity{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
		}
		return core.EntrepreneurIdentity(eid), nil
	default:
		return core.Identity{}, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, c.Role)
	}
}

type identityKey struct{}

// WithIdentity returns a context carrying id.
func WithIdentity(ctx context.Context, id core.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity stored by WithIdentity.
func IdentityFrom(ctx context.Context) (core.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(core.Identity)
	return id, ok
}
