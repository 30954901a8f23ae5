// Package session holds authenticated web session state and its stores.
package session

import (
	"context"
	"errors"
	"maps"
	"time"
)

// ErrNotFound is returned by stores when a session or transaction is missing or expired.
var ErrNotFound = errors.New("session: not found")

// UpdatedAtClaim is the user claim refreshed on every proxied request.
const UpdatedAtClaim = "updatedAt"

// Session is the server-side identity state referenced by the session cookie.
//
// The cookie itself only carries the session id; tokens never leave the server
// except through the access-token endpoint.
type Session struct {
	ID      string `json:"id"`
	Subject string `json:"sub"`

	AccessToken    string    `json:"access_token,omitempty"`
	RefreshToken   string    `json:"refresh_token,omitempty"`
	IDToken        string    `json:"id_token,omitempty"`
	TokenExpiresAt time.Time `json:"token_expires_at,omitempty"`

	// User holds the ID token claims plus application claims such as updatedAt.
	User map[string]any `json:"user,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) IsExpired(reference time.Time) bool {
	if s == nil {
		return true
	}
	if reference.IsZero() {
		reference = time.Now()
	}
	return !s.ExpiresAt.After(reference)
}

// TokenExpired reports whether the access token is past its expiry.
// A zero expiry means the provider did not report one.
func (s *Session) TokenExpired(reference time.Time) bool {
	if s == nil || s.TokenExpiresAt.IsZero() {
		return false
	}
	return !s.TokenExpiresAt.After(reference)
}

// WithUpdatedAt returns a copy with the updatedAt user claim set to now (unix ms).
func (s *Session) WithUpdatedAt(now time.Time) *Session {
	out := *s
	out.User = make(map[string]any, len(s.User)+1)
	maps.Copy(out.User, s.User)
	out.User[UpdatedAtClaim] = now.UnixMilli()
	out.UpdatedAt = now
	return &out
}

// Transaction is the short-lived login state kept between /auth/login and /auth/callback.
type Transaction struct {
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	ReturnTo     string    `json:"return_to"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store persists sessions by id.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}

// TransactionStore persists login transactions. TakeTransaction is single use.
type TransactionStore interface {
	PutTransaction(ctx context.Context, t Transaction, ttl time.Duration) error
	TakeTransaction(ctx context.Context, state string) (Transaction, error)
}
