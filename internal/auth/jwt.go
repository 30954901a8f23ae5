package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Manager signs and verifies session cookie values with the application secret.
type Manager struct {
	secret []byte
	issuer string
}

func NewManager(secret, issuer string) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("AUTH0_SECRET is required")
	}
	return &Manager{secret: []byte(secret), issuer: issuer}, nil
}

/* ===================== ISSUE ===================== */

// Issue returns a signed cookie value for sessionID valid until expiresAt.
func (m *Manager) Issue(now time.Time, sessionID string, expiresAt time.Time) (string, error) {
	if sessionID == "" {
		return "", errors.New("session id is required")
	}
	claims := CookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		SessionID: sessionID,
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(m.secret)
}

/* ===================== VERIFY ===================== */

func (m *Manager) Verify(value string, now time.Time) (CookieClaims, error) {
	var claims CookieClaims

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithIssuedAt(),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	_, err := jwt.NewParser(opts...).ParseWithClaims(value, &claims, func(token *jwt.Token) (any, error) {
		return m.secret, nil
	})
	if err != nil {
		return CookieClaims{}, err
	}
	if claims.SessionID == "" {
		return CookieClaims{}, errors.New("sid missing")
	}
	return claims, nil
}
