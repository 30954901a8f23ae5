package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/rpc"
)

func TestProfileLoader(t *testing.T) {
	me := &fakeMe{me: &rpc.GetMeResponse{WorkspaceUserID: "wsu-001", Name: "Ada"}}
	l := NewProfileLoader(me, rpc.TokenFunc(func(context.Context) (string, error) { return "tok", nil }))

	assert.Nil(t, l.State().Value)

	st := l.Load(context.Background())
	require.Empty(t, st.Err)
	require.NotNil(t, st.Value)
	assert.Equal(t, "tok", st.Value.AccessToken)
	assert.Equal(t, "wsu-001", st.Value.Me.WorkspaceUserID)
	assert.False(t, st.Loading)
}

func TestProfileLoader_TokenFailure(t *testing.T) {
	me := &fakeMe{me: &rpc.GetMeResponse{}}
	l := NewProfileLoader(me, rpc.TokenFunc(func(context.Context) (string, error) {
		return "", errors.New("auth: no session")
	}))

	st := l.Load(context.Background())
	assert.Equal(t, "auth: no session", st.Err)
	assert.Nil(t, st.Value)
	assert.False(t, st.Loading)
}

type fakeUsers struct {
	res *rpc.GetUserResponse
	err error
}

func (f fakeUsers) GetMe(context.Context) (*rpc.GetUserResponse, error) { return f.res, f.err }

func TestIdentityLoader(t *testing.T) {
	st := NewIdentityLoader(fakeUsers{res: &rpc.GetUserResponse{UserID: "auth0|u1"}}).Load(context.Background())
	require.NotNil(t, st.Value)
	assert.Equal(t, "auth0|u1", st.Value.UserID)

	st = NewIdentityLoader(fakeUsers{err: emptyError{}}).Load(context.Background())
	assert.Equal(t, "Failed to fetch user info", st.Err)
}

func TestIdentityLoader_ErrorClearedOnRetry(t *testing.T) {
	f := &flakyUsers{err: errors.New("unavailable")}
	l := NewIdentityLoader(f)

	assert.Equal(t, "unavailable", l.Load(context.Background()).Err)
	f.err = nil
	st := l.Load(context.Background())
	assert.Empty(t, st.Err)
	require.NotNil(t, st.Value)
}

type flakyUsers struct{ err error }

func (f *flakyUsers) GetMe(context.Context) (*rpc.GetUserResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &rpc.GetUserResponse{UserID: "auth0|u1"}, nil
}
