package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"platform-console/internal/session"
)

const (
	DefaultCookieName       = "__session"
	DefaultRollingDuration  = 24 * time.Hour
	DefaultAbsoluteDuration = 3 * 24 * time.Hour

	transactionTTL = 10 * time.Minute
)

var (
	// ErrNoSession means the request carries no usable session. Callers redirect to login.
	ErrNoSession = errors.New("auth: no session")

	ErrNoAccessToken = errors.New("auth: session has no access token")
	ErrTokenExpired  = errors.New("auth: access token expired and cannot be refreshed")
)

// EventRecorder receives best-effort audit events from the login flow.
type EventRecorder interface {
	LogLogin(ctx context.Context, subject, ip string) error
	LogLogout(ctx context.Context, subject, ip string) error
	LogSessionRejected(ctx context.Context, ip, reason string) error
}

type Options struct {
	// BaseURL is the externally visible origin of the console, e.g. https://console.example.com.
	BaseURL string

	CookieName       string
	RollingDuration  time.Duration
	AbsoluteDuration time.Duration

	Logger   *slog.Logger
	Recorder EventRecorder
	Clock    func() time.Time
}

// Identity owns the session cookie and the /auth/* routes.
type Identity struct {
	provider Provider
	sessions session.Store
	txns     session.TransactionStore
	cookies  *Manager

	baseURL  *url.URL
	opts     Options
	secure   bool
	log      *slog.Logger
	recorder EventRecorder
	clock    func() time.Time

	// refreshes collapses concurrent token refreshes of one session, keyed by session id.
	refreshes singleflight.Group
}

func NewIdentity(p Provider, sessions session.Store, txns session.TransactionStore, cookies *Manager, opts Options) (*Identity, error) {
	if p == nil || sessions == nil || txns == nil || cookies == nil {
		return nil, errors.New("auth: provider, stores and cookie manager are required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("auth: invalid base url %q", opts.BaseURL)
	}
	if opts.CookieName == "" {
		opts.CookieName = DefaultCookieName
	}
	if opts.RollingDuration <= 0 {
		opts.RollingDuration = DefaultRollingDuration
	}
	if opts.AbsoluteDuration <= 0 {
		opts.AbsoluteDuration = DefaultAbsoluteDuration
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Identity{
		provider: p,
		sessions: sessions,
		txns:     txns,
		cookies:  cookies,
		baseURL:  base,
		opts:     opts,
		secure:   base.Scheme == "https",
		log:      log,
		recorder: opts.Recorder,
		clock:    opts.Clock,
	}, nil
}

// Middleware runs the identity layer for one request. Paths under /auth get a
// final response; everything else gets a pass-through Result.
func (i *Identity) Middleware(r *http.Request) *Result {
	res := passThrough()
	path := r.URL.Path
	if !strings.HasPrefix(path, "/auth") {
		return res
	}
	switch path {
	case "/auth/login":
		return i.handleLogin(r, res)
	case "/auth/callback":
		return i.handleCallback(r, res)
	case "/auth/logout":
		return i.handleLogout(r, res)
	case "/auth/profile":
		return i.handleProfile(r, res)
	case "/auth/access-token":
		return i.handleAccessToken(r, res)
	default:
		return res.json(http.StatusNotFound, errorBody("not_found"))
	}
}

// GetSession resolves the session referenced by the request cookie.
// Every failure is reported as ErrNoSession (wrapped when there is a cause).
func (i *Identity) GetSession(ctx context.Context, r *http.Request) (*session.Session, error) {
	c, err := r.Cookie(i.opts.CookieName)
	if err != nil || c.Value == "" {
		return nil, ErrNoSession
	}
	now := i.clock()
	claims, err := i.cookies.Verify(c.Value, now)
	if err != nil {
		i.recordRejected(ctx, err.Error())
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	s, err := i.sessions.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	if s.IsExpired(now) {
		_ = i.sessions.Delete(ctx, s.ID)
		return nil, ErrNoSession
	}
	return s, nil
}

// UpdateSession persists s, extends its rolling expiry and writes the refreshed
// cookie into res.
func (i *Identity) UpdateSession(ctx context.Context, res *Result, s *session.Session) error {
	if s == nil || s.ID == "" {
		return ErrNoSession
	}
	now := i.clock()
	expiresAt := now.Add(i.opts.RollingDuration)
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	if absolute := s.CreatedAt.Add(i.opts.AbsoluteDuration); expiresAt.After(absolute) {
		expiresAt = absolute
	}
	if !expiresAt.After(now) {
		return ErrNoSession
	}
	s.ExpiresAt = expiresAt

	if err := i.sessions.Save(ctx, s, expiresAt.Sub(now)); err != nil {
		return fmt.Errorf("auth: save session: %w", err)
	}
	value, err := i.cookies.Issue(now, s.ID, expiresAt)
	if err != nil {
		return fmt.Errorf("auth: issue cookie: %w", err)
	}
	res.setCookie(i.sessionCookie(value, expiresAt))
	return nil
}

// AccessToken returns a usable access token for s, refreshing it through the
// provider when it expired and a refresh token is available.
func (i *Identity) AccessToken(ctx context.Context, s *session.Session) (string, error) {
	if s == nil {
		return "", ErrNoSession
	}
	if s.AccessToken == "" {
		return "", ErrNoAccessToken
	}
	now := i.clock()
	if !s.TokenExpired(now) {
		return s.AccessToken, nil
	}
	if s.RefreshToken == "" {
		return "", ErrTokenExpired
	}

	v, err, _ := i.refreshes.Do(s.ID, func() (any, error) {
		return i.refresh(context.WithoutCancel(ctx), s, now)
	})
	if err != nil {
		return "", err
	}
	fresh := v.(*session.Session)
	s.AccessToken = fresh.AccessToken
	s.TokenExpiresAt = fresh.TokenExpiresAt
	s.RefreshToken = fresh.RefreshToken
	s.IDToken = fresh.IDToken
	return s.AccessToken, nil
}

// refresh runs once per session at a time. A stored copy that already holds a
// live token is returned without calling the provider.
func (i *Identity) refresh(ctx context.Context, s *session.Session, now time.Time) (*session.Session, error) {
	if stored, err := i.sessions.Get(ctx, s.ID); err == nil && stored.AccessToken != "" && !stored.TokenExpired(now) {
		return stored, nil
	}

	tokens, err := i.provider.Refresh(ctx, s.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	}
	next := *s
	next.AccessToken = tokens.AccessToken
	next.TokenExpiresAt = tokens.Expiry
	if tokens.RefreshToken != "" {
		next.RefreshToken = tokens.RefreshToken
	}
	if tokens.IDToken != "" {
		next.IDToken = tokens.IDToken
	}
	if ttl := next.ExpiresAt.Sub(now); ttl > 0 {
		if err := i.sessions.Save(ctx, &next, ttl); err != nil {
			i.log.Warn("persist refreshed token failed", "err", err, "sub", s.Subject)
		}
	}
	return &next, nil
}

func (i *Identity) sessionCookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     i.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (i *Identity) clearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     i.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// absolute resolves a same-origin path against the base URL.
func (i *Identity) absolute(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		ref = &url.URL{Path: "/"}
	}
	return i.baseURL.ResolveReference(ref).String()
}

func (i *Identity) recordRejected(ctx context.Context, reason string) {
	if i.recorder == nil {
		return
	}
	if err := i.recorder.LogSessionRejected(ctx, ClientIPFromContext(ctx), reason); err != nil {
		i.log.Warn("audit session_rejected failed", "err", err)
	}
}

func errorBody(code string) map[string]string {
	return map[string]string{"error": code}
}
