package auth

import (
	"context"
	"time"
)

// Provider is the identity provider behind the login flow.
type Provider interface {
	// AuthCodeURL returns the authorization endpoint URL for state with an S256 challenge of codeVerifier.
	AuthCodeURL(state, codeVerifier string) string
	Exchange(ctx context.Context, code, codeVerifier string) (*Tokens, error)
	Refresh(ctx context.Context, refreshToken string) (*Tokens, error)
	// LogoutURL returns where the browser goes after the local session is cleared.
	LogoutURL(returnTo string) string
}

// Tokens is the result of a code exchange or refresh.
type Tokens struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	Expiry       time.Time

	// Subject and Claims come from the verified ID token. Refresh responses may omit them.
	Subject string
	Claims  map[string]any
}
