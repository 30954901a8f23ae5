package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"platform-console/internal/session"
)

func (i *Identity) handleLogin(r *http.Request, res *Result) *Result {
	ctx := r.Context()

	state, err := randomString(32)
	if err != nil {
		return res.json(http.StatusInternalServerError, errorBody("login_failed"))
	}
	verifier, err := randomString(43)
	if err != nil {
		return res.json(http.StatusInternalServerError, errorBody("login_failed"))
	}

	txn := session.Transaction{
		State:        state,
		CodeVerifier: verifier,
		ReturnTo:     safeReturnTo(r.URL.Query().Get("returnTo")),
		CreatedAt:    i.clock(),
	}
	if err := i.txns.PutTransaction(ctx, txn, transactionTTL); err != nil {
		i.log.Error("store login transaction failed", "err", err)
		return res.json(http.StatusInternalServerError, errorBody("login_failed"))
	}
	return res.redirect(i.provider.AuthCodeURL(state, verifier))
}

func (i *Identity) handleCallback(r *http.Request, res *Result) *Result {
	ctx := r.Context()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		i.log.Warn("identity provider returned error", "error", e, "description", q.Get("error_description"))
		return res.json(http.StatusBadRequest, errorBody(e))
	}
	code, state := q.Get("code"), q.Get("state")
	if code == "" || state == "" {
		return res.json(http.StatusBadRequest, errorBody("missing_code_or_state"))
	}

	txn, err := i.txns.TakeTransaction(ctx, state)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			i.log.Error("load login transaction failed", "err", err)
		}
		return res.json(http.StatusBadRequest, errorBody("invalid_state"))
	}

	tokens, err := i.provider.Exchange(ctx, code, txn.CodeVerifier)
	if err != nil {
		i.log.Error("code exchange failed", "err", err)
		return res.json(http.StatusInternalServerError, errorBody("callback_failed"))
	}

	now := i.clock()
	s := &session.Session{
		ID:             uuid.NewString(),
		Subject:        tokens.Subject,
		AccessToken:    tokens.AccessToken,
		RefreshToken:   tokens.RefreshToken,
		IDToken:        tokens.IDToken,
		TokenExpiresAt: tokens.Expiry,
		User:           tokens.Claims,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := i.UpdateSession(ctx, res, s); err != nil {
		i.log.Error("create session failed", "err", err)
		return res.json(http.StatusInternalServerError, errorBody("callback_failed"))
	}

	if i.recorder != nil {
		if err := i.recorder.LogLogin(ctx, s.Subject, ClientIPFromContext(ctx)); err != nil {
			i.log.Warn("audit login failed", "err", err)
		}
	}
	return res.redirect(i.absolute(txn.ReturnTo))
}

func (i *Identity) handleLogout(r *http.Request, res *Result) *Result {
	ctx := r.Context()

	if s, err := i.GetSession(ctx, r); err == nil {
		if err := i.sessions.Delete(ctx, s.ID); err != nil {
			i.log.Warn("delete session failed", "err", err)
		}
		if i.recorder != nil {
			if err := i.recorder.LogLogout(ctx, s.Subject, ClientIPFromContext(ctx)); err != nil {
				i.log.Warn("audit logout failed", "err", err)
			}
		}
	}
	res.setCookie(i.clearCookie())

	target := i.provider.LogoutURL(i.absolute("/"))
	if target == "" {
		target = i.absolute("/")
	}
	return res.redirect(target)
}

func (i *Identity) handleProfile(r *http.Request, res *Result) *Result {
	s, err := i.GetSession(r.Context(), r)
	if err != nil {
		return res.json(http.StatusUnauthorized, errorBody("missing_session"))
	}
	profile := make(map[string]any, len(s.User)+1)
	for k, v := range s.User {
		profile[k] = v
	}
	profile["sub"] = s.Subject
	return res.json(http.StatusOK, profile)
}

// accessTokenResponse is the body of /auth/access-token.
type accessTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

func (i *Identity) handleAccessToken(r *http.Request, res *Result) *Result {
	ctx := r.Context()
	s, err := i.GetSession(ctx, r)
	if err != nil {
		return res.json(http.StatusUnauthorized, errorBody("missing_session"))
	}
	token, err := i.AccessToken(ctx, s)
	if err != nil {
		i.log.Warn("access token unavailable", "err", err, "sub", s.Subject)
		return res.json(http.StatusUnauthorized, errorBody("failed_to_refresh_token"))
	}
	out := accessTokenResponse{Token: token}
	if !s.TokenExpiresAt.IsZero() {
		out.ExpiresAt = s.TokenExpiresAt.Unix()
	}
	return res.json(http.StatusOK, out)
}

// safeReturnTo keeps post-login redirects on this origin.
func safeReturnTo(v string) string {
	if v == "" || !strings.HasPrefix(v, "/") || strings.HasPrefix(v, "//") || strings.Contains(v, `\`) {
		return "/"
	}
	return v
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
