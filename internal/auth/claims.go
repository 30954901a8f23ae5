package auth

import "github.com/golang-jwt/jwt/v5"

// CookieClaims is the only supported shape of the session cookie token.
// The cookie references a server-side session; it never carries provider tokens.
type CookieClaims struct {
	jwt.RegisteredClaims

	SessionID string `json:"sid"`
}
