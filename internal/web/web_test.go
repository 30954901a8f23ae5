package web

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/auth"
	"platform-console/internal/devapi"
	"platform-console/internal/rpc"
	"platform-console/internal/session"
)

func bearerFor(sub string) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).SignedString([]byte("unused"))
	return tok
}

// newRouter serves pages for sub; an empty sub means no session on the request.
func newRouter(t *testing.T, sub string, pageSize int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	api := httptest.NewServer(devapi.Handler(
		devapi.NewService(devapi.SeedRepo(time.Now()), "ws-001"),
		nil,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	))
	t.Cleanup(api.Close)

	tokens := rpc.TokenFunc(func(ctx context.Context) (string, error) {
		s, ok := auth.SessionFrom(ctx)
		if !ok {
			return "", auth.ErrNoSession
		}
		return s.AccessToken, nil
	})
	clients, err := rpc.New(rpc.Config{BaseURL: api.URL, HTTPClient: api.Client(), TokenSource: tokens})
	require.NoError(t, err)

	r := gin.New()
	if sub != "" {
		r.Use(func(c *gin.Context) {
			s := &session.Session{
				ID: "s1", Subject: sub, AccessToken: bearerFor(sub),
				User: map[string]any{"name": "Signed In"},
			}
			c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), s))
			c.Next()
		})
	}
	require.NoError(t, NewHandlers(clients, tokens, pageSize).Register(r))
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	for _, name := range []string{"dashboard.html", "me.html", "users.html", "loading.html", "header", "footer", "error"} {
		assert.NotNil(t, tmpl.Lookup(name), name)
	}
}

func TestPages_RedirectWithoutUser(t *testing.T) {
	r := newRouter(t, "", 10)
	for _, p := range []string{"/", "/me", "/users", "/dashboard"} {
		w := get(r, p)
		assert.Equal(t, http.StatusFound, w.Code, p)
		assert.Equal(t, auth.LoginPath, w.Header().Get("Location"), p)
	}
}

func TestHome_RedirectsToDashboard(t *testing.T) {
	w := get(newRouter(t, "auth0|user002", 10), "/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))
}

func TestDashboard(t *testing.T) {
	w := get(newRouter(t, "auth0|user002", 10), "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "User Information (from Backend API)")
	assert.Contains(t, body, "user02@example.com")
	assert.Contains(t, body, `href="/auth/logout"`)
}

func TestDashboard_BackendErrorShown(t *testing.T) {
	w := get(newRouter(t, "auth0|nobody", 10), "/dashboard")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
	assert.NotContains(t, w.Body.String(), "User Information (from Backend API)")
}

func TestMe(t *testing.T) {
	w := get(newRouter(t, "auth0|6952b421821fed371daac9df", 10), "/me")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "My Profile")
	assert.Contains(t, body, "wsu-001")
	assert.Contains(t, body, "tenant-003")
	assert.Contains(t, body, "Viewer")
	assert.Contains(t, body, "Access Token")
	assert.Contains(t, body, "Workspace Users")
}

func TestUsers_Paging(t *testing.T) {
	r := newRouter(t, "auth0|user002", 2)

	w := get(r, "/users")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "wsu-003")
	assert.Contains(t, body, "wsu-002")
	assert.NotContains(t, body, "wsu-001")
	assert.Contains(t, body, `href="/users?pages=2"`)
	assert.Contains(t, body, "Load More")

	w = get(r, "/users?pages=2")
	body = w.Body.String()
	assert.Contains(t, body, "wsu-001")
	assert.NotContains(t, body, "Load More")
	assert.NotContains(t, body, "No users found")
}

func TestUsers_ErrorReplacesList(t *testing.T) {
	w := get(newRouter(t, "auth0|nobody", 10), "/users")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Error")
	assert.NotContains(t, w.Body.String(), "Load More")
}

func TestStaticAssets(t *testing.T) {
	w := get(newRouter(t, "", 10), "/static/console.css")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), ".side-menu"))
}

func TestParsePages(t *testing.T) {
	assert.Equal(t, 1, parsePages(""))
	assert.Equal(t, 1, parsePages("0"))
	assert.Equal(t, 1, parsePages("abc"))
	assert.Equal(t, 3, parsePages("3"))
	assert.Equal(t, MaxPages, parsePages("1000"))
}
