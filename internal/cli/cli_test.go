package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/auth"
	"platform-console/internal/config"
	"platform-console/internal/devapi"
)

// fakeConsole answers /auth/access-token for the "good" session only.
func fakeConsole(t *testing.T, sub string) *httptest.Server {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).SignedString([]byte("unused"))
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(auth.DefaultCookieName)
		w.Header().Set("Content-Type", "application/json")
		if err != nil || c.Value != "good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"missing_session"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": tok})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func run(t *testing.T, sub string, args ...string) (string, string, error) {
	t.Helper()
	console := fakeConsole(t, sub)
	api := httptest.NewServer(devapi.Handler(
		devapi.NewService(devapi.SeedRepo(time.Now()), "ws-001"), nil,
		slog.New(slog.NewJSONHandler(io.Discard, nil)),
	))
	t.Cleanup(api.Close)

	cmd := NewRootCommand(config.CLIConfig{
		Env:        "production",
		ConsoleURL: console.URL,
		APIURL:     api.URL,
		Timeout:    5 * time.Second,
	})
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestWhoami(t *testing.T) {
	out, _, err := run(t, "auth0|6952b421821fed371daac9df", "whoami", "--session", "good")
	require.NoError(t, err)
	assert.Contains(t, out, "User 01")
	assert.Contains(t, out, "wsu-001")
	assert.Contains(t, out, "tenant-001 (tu-001) Admin")
}

func TestWhoami_JSON(t *testing.T) {
	out, _, err := run(t, "auth0|user002", "whoami", "--session", "good", "-o", "json")
	require.NoError(t, err)

	var me map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &me))
	assert.Equal(t, "wsu-002", me["workspaceUserId"])
}

func TestWhoami_RequiresSession(t *testing.T) {
	_, _, err := run(t, "auth0|user002", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no session")
}

func TestWhoami_RejectedSessionIsUnauthenticated(t *testing.T) {
	_, stderr, err := run(t, "auth0|user002", "whoami", "--session", "stale")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthenticated")
	assert.Contains(t, stderr, "failed to get access token")
}

func TestUsers(t *testing.T) {
	out, stderr, err := run(t, "auth0|user002", "users", "--session", "good", "--page-size", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "wsu-003")
	assert.Contains(t, out, "wsu-002")
	assert.NotContains(t, out, "wsu-001")
	assert.Contains(t, stderr, "--pages 2")

	out, _, err = run(t, "auth0|user002", "users", "--session", "good", "--page-size", "1", "--all")
	require.NoError(t, err)
	for _, id := range []string{"wsu-001", "wsu-002", "wsu-003"} {
		assert.Contains(t, out, id)
	}
}

func TestUsers_JSON(t *testing.T) {
	out, _, err := run(t, "auth0|user002", "users", "--session", "good", "-o", "json", "--all")
	require.NoError(t, err)

	var res struct {
		Users []map[string]string `json:"users"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Len(t, res.Users, 3)
}

func TestInvalidOutput(t *testing.T) {
	_, _, err := run(t, "auth0|user002", "users", "--session", "good", "-o", "yaml")
	require.Error(t, err)
}
