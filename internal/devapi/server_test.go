package devapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/rpc"
	"platform-console/internal/workspace"
)

func testToken(t *testing.T, sub string) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: sub}).SignedString([]byte("unused"))
	require.NoError(t, err)
	return tok
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc := NewService(SeedRepo(time.Now()), "ws-001")
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := httptest.NewServer(Handler(svc, []string{"http://localhost:3000"}, log))
	t.Cleanup(srv.Close)
	return srv
}

func clientsFor(t *testing.T, srv *httptest.Server, token string) *rpc.Clients {
	t.Helper()
	c, err := rpc.New(rpc.Config{
		BaseURL:     srv.URL,
		HTTPClient:  srv.Client(),
		TokenSource: rpc.TokenFunc(func(context.Context) (string, error) { return token, nil }),
	})
	require.NoError(t, err)
	return c
}

func TestGetMe(t *testing.T) {
	srv := newTestServer(t)
	c := clientsFor(t, srv, testToken(t, "auth0|6952b421821fed371daac9df"))

	me, err := c.Me.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ws-001", me.WorkspaceID)
	assert.Equal(t, "wsu-001", me.WorkspaceUserID)
	assert.Equal(t, "User 01", me.Name)
	require.Len(t, me.Tenants, 3)
	assert.Equal(t, rpc.TenantUserInfo{TenantID: "tenant-001", TenantUserID: "tu-001", Role: rpc.RoleAdmin}, me.Tenants[0])

	user, err := c.Users.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rpc.GetUserResponse{UserID: "auth0|6952b421821fed371daac9df", Email: "user01@example.com", Name: "User 01"}, *user)
}

func TestCallerErrors(t *testing.T) {
	srv := newTestServer(t)

	_, err := clientsFor(t, srv, "").Me.GetMe(context.Background())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = clientsFor(t, srv, "not-a-jwt").Me.GetMe(context.Background())
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = clientsFor(t, srv, testToken(t, "auth0|nobody")).Users.GetMe(context.Background())
	assert.Equal(t, connect.CodeNotFound, connect.CodeOf(err))

	_, err = clientsFor(t, srv, testToken(t, "auth0|user002")).Me.ListWorkspaceUsers(context.Background(),
		&rpc.ListWorkspaceUsersRequest{PageToken: "x"})
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}

func TestListWorkspaceUsers_WithPager(t *testing.T) {
	srv := newTestServer(t)
	c := clientsFor(t, srv, testToken(t, "auth0|user002"))

	p := workspace.NewUsersPager(c.Me, 2)
	st := p.Load(context.Background())
	require.Empty(t, st.Err)
	assert.Len(t, st.Users, 2)
	assert.Equal(t, "2", st.NextPageToken)

	st = p.LoadMore(context.Background())
	require.Empty(t, st.Err)
	require.Len(t, st.Users, 3)
	assert.Equal(t, "wsu-001", st.Users[2].WorkspaceUserID)
	assert.False(t, st.HasMore())
}

func TestHealthAndCORS(t *testing.T) {
	srv := newTestServer(t)

	res, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(res.Body)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "OK", string(body))

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+rpc.MeGetMeProcedure, nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "authorization,content-type")
	res, err = srv.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, "http://localhost:3000", res.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", res.Header.Get("Access-Control-Allow-Credentials"))

	req, _ = http.NewRequest(http.MethodOptions, srv.URL+rpc.MeGetMeProcedure, nil)
	req.Header.Set("Origin", "http://evil.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	res, err = srv.Client().Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}

func TestH2CClient(t *testing.T) {
	srv := newTestServer(t)

	c, err := rpc.New(rpc.Config{
		BaseURL:     srv.URL,
		HTTPClient:  rpc.NewH2CClient(5 * time.Second),
		TokenSource: rpc.TokenFunc(func(context.Context) (string, error) { return testToken(t, "auth0|user003"), nil }),
	})
	require.NoError(t, err)

	user, err := c.Users.GetMe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "User 03", user.Name)
}
