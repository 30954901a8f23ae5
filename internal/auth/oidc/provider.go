// Package oidc implements auth.Provider over OpenID Connect (Auth0 by default).
//
// The authorization code flow always uses PKCE (S256). The ID token is verified
// against the issuer's published keys before any session is created.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"platform-console/internal/auth"
)

// Config holds the OIDC client registration.
type Config struct {
	// Domain is the tenant domain ("tenant.us.auth0.com") or a full issuer URL.
	Domain       string
	ClientID     string
	ClientSecret string
	RedirectURL  string

	// Audience is sent as the audience authorization parameter when set, so the
	// access token is minted for the backend API.
	Audience string

	// Scopes default to openid, profile, email and offline_access.
	Scopes []string
}

type Provider struct {
	cfg        Config
	issuer     string
	oauth2     *oauth2.Config
	verifier   *oidc.IDTokenVerifier
	endSession string
}

var _ auth.Provider = (*Provider)(nil)

// NewProvider discovers the issuer configuration and builds the client.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{oidc.ScopeOpenID, "profile", "email", oidc.ScopeOfflineAccess}
	}

	issuer := IssuerURL(cfg.Domain)
	op, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc: discover %s: %w", issuer, err)
	}

	var meta struct {
		EndSession string `json:"end_session_endpoint"`
	}
	_ = op.Claims(&meta)

	return &Provider{
		cfg:    cfg,
		issuer: issuer,
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     op.Endpoint(),
			Scopes:       cfg.Scopes,
		},
		verifier:   op.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		endSession: meta.EndSession,
	}, nil
}

// IssuerURL normalizes a tenant domain into the issuer URL (with trailing slash).
func IssuerURL(domain string) string {
	d := strings.TrimSpace(domain)
	if !strings.HasPrefix(d, "https://") && !strings.HasPrefix(d, "http://") {
		d = "https://" + d
	}
	return strings.TrimRight(d, "/") + "/"
}

func (p *Provider) AuthCodeURL(state, codeVerifier string) string {
	opts := []oauth2.AuthCodeOption{oauth2.S256ChallengeOption(codeVerifier)}
	if p.cfg.Audience != "" {
		opts = append(opts, oauth2.SetAuthURLParam("audience", p.cfg.Audience))
	}
	return p.oauth2.AuthCodeURL(state, opts...)
}

func (p *Provider) Exchange(ctx context.Context, code, codeVerifier string) (*auth.Tokens, error) {
	tok, err := p.oauth2.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return nil, fmt.Errorf("oidc: exchange code: %w", err)
	}
	rawIDToken, ok := tok.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return nil, errors.New("oidc: no id_token in token response")
	}
	return p.tokens(ctx, tok, rawIDToken)
}

func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*auth.Tokens, error) {
	if refreshToken == "" {
		return nil, errors.New("oidc: no refresh token")
	}
	tok, err := p.oauth2.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("oidc: refresh: %w", err)
	}
	rawIDToken, _ := tok.Extra("id_token").(string)
	return p.tokens(ctx, tok, rawIDToken)
}

// LogoutURL prefers the discovered end_session_endpoint and falls back to Auth0's /v2/logout.
func (p *Provider) LogoutURL(returnTo string) string {
	q := url.Values{}
	q.Set("client_id", p.cfg.ClientID)
	if p.endSession != "" {
		q.Set("post_logout_redirect_uri", returnTo)
		return p.endSession + "?" + q.Encode()
	}
	q.Set("returnTo", returnTo)
	return p.issuer + "v2/logout?" + q.Encode()
}

func (p *Provider) tokens(ctx context.Context, tok *oauth2.Token, rawIDToken string) (*auth.Tokens, error) {
	out := &auth.Tokens{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		IDToken:      rawIDToken,
		Expiry:       tok.Expiry,
	}
	if rawIDToken == "" {
		return out, nil
	}

	idToken, err := p.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("oidc: verify id token: %w", err)
	}
	var claims map[string]any
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("oidc: parse id token claims: %w", err)
	}
	// Protocol claims stay in the ID token; the session keeps user claims only.
	for _, k := range []string{"iss", "aud", "exp", "iat", "nbf", "nonce", "sid", "at_hash", "c_hash", "auth_time"} {
		delete(claims, k)
	}
	out.Subject = idToken.Subject
	out.Claims = claims
	return out, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if cfg.Domain == "" {
		missing = append(missing, "domain")
	}
	if cfg.ClientID == "" {
		missing = append(missing, "client id")
	}
	if cfg.ClientSecret == "" {
		missing = append(missing, "client secret")
	}
	if cfg.RedirectURL == "" {
		missing = append(missing, "redirect url")
	}
	if len(missing) > 0 {
		return fmt.Errorf("oidc: %s required", strings.Join(missing, ", "))
	}
	return nil
}
