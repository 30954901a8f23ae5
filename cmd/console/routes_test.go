package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/auth"
	"platform-console/internal/rpc"
	"platform-console/internal/session"
)

type stubProvider struct{}

func (stubProvider) AuthCodeURL(state, _ string) string {
	return "https://idp.test/authorize?state=" + state
}

func (stubProvider) Exchange(context.Context, string, string) (*auth.Tokens, error) {
	return &auth.Tokens{}, nil
}

func (stubProvider) Refresh(context.Context, string) (*auth.Tokens, error) {
	return &auth.Tokens{}, nil
}

func (stubProvider) LogoutURL(returnTo string) string { return returnTo }

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	cookies, err := auth.NewManager("0123456789abcdef0123456789abcdef", "http://console.test")
	require.NoError(t, err)
	store := session.NewMemoryStore()
	identity, err := auth.NewIdentity(stubProvider{}, store, store, cookies, auth.Options{
		BaseURL: "http://console.test",
		Logger:  log,
	})
	require.NoError(t, err)

	tokens := rpc.SessionTokens{Identity: identity}
	clients, err := rpc.New(rpc.Config{BaseURL: "http://api.test", TokenSource: tokens, Logger: log})
	require.NoError(t, err)

	r := gin.New()
	require.NoError(t, registerRoutes(r, routeDeps{
		identity: identity,
		clients:  clients,
		tokens:   tokens,
		pageSize: 10,
		log:      log,
	}))
	return r
}

func serve(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestRoutes_HealthWithoutRegisteredRoute(t *testing.T) {
	w := serve(newTestRouter(t), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRoutes_LoginAnsweredByIdentity(t *testing.T) {
	w := serve(newTestRouter(t), "/auth/login")
	require.Equal(t, http.StatusFound, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Location"), "https://idp.test/authorize?state="), w.Header().Get("Location"))
}

func TestRoutes_UnknownPathRedirectsToLogin(t *testing.T) {
	r := newTestRouter(t)
	for _, path := range []string{"/nope", "/dashboard", "/users"} {
		w := serve(r, path)
		assert.Equal(t, http.StatusTemporaryRedirect, w.Code, path)
		assert.Equal(t, "http://example.com/auth/login", w.Header().Get("Location"), path)
	}
}

func TestRoutes_StaticAssetsSkipAuth(t *testing.T) {
	w := serve(newTestRouter(t), "/static/console.css")
	assert.Equal(t, http.StatusOK, w.Code)
}
