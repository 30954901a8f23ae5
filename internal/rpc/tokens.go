package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"platform-console/internal/auth"
)

// TokenSource yields the access token attached to outgoing calls.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// TokenFunc adapts a function to TokenSource.
type TokenFunc func(ctx context.Context) (string, error)

func (f TokenFunc) Token(ctx context.Context) (string, error) { return f(ctx) }

// SessionTokens reads the session the proxy put on the request context and
// refreshes its access token through the identity layer when needed.
type SessionTokens struct {
	Identity *auth.Identity
}

func (s SessionTokens) Token(ctx context.Context) (string, error) {
	sess, ok := auth.SessionFrom(ctx)
	if !ok {
		return "", auth.ErrNoSession
	}
	return s.Identity.AccessToken(ctx, sess)
}

// AccessTokenEndpoint fetches the token from the console's /auth/access-token
// route, presenting the session cookie. Used outside the console process.
type AccessTokenEndpoint struct {
	// ConsoleURL is the console origin, e.g. http://localhost:3000.
	ConsoleURL string
	// Cookie is the session cookie value; CookieName defaults to __session.
	Cookie     string
	CookieName string
	HTTPClient *http.Client
}

func (a AccessTokenEndpoint) Token(ctx context.Context) (string, error) {
	if a.Cookie == "" {
		return "", auth.ErrNoSession
	}
	name := a.CookieName
	if name == "" {
		name = auth.DefaultCookieName
	}
	hc := a.HTTPClient
	if hc == nil {
		hc = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(a.ConsoleURL, "/")+"/auth/access-token", nil)
	if err != nil {
		return "", err
	}
	req.AddCookie(&http.Cookie{Name: name, Value: a.Cookie})
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("access token endpoint: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("access token endpoint: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("access token endpoint: status %d: %s", resp.StatusCode, e.Error)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("access token endpoint: decode: %w", err)
	}
	if out.Token == "" {
		return "", auth.ErrNoAccessToken
	}
	return out.Token, nil
}
