// Package workspace loads the data behind the console pages: the caller's
// profile, the identity view and the paged workspace user list.
//
// Every loader follows the same contract: Loading is set while a fetch is in
// flight and always cleared afterwards; errors are kept as display strings;
// results that arrive after the caller's context is done are discarded.
package workspace

import (
	"context"
	"sync"

	"platform-console/internal/rpc"
)

const (
	profileFailed = "Failed to fetch user info"
	usersFailed   = "Failed to fetch workspace users"
)

// MeService is the subset of gateway.v1.MeService the loaders use.
type MeService interface {
	GetMe(ctx context.Context) (*rpc.GetMeResponse, error)
	ListWorkspaceUsers(ctx context.Context, req *rpc.ListWorkspaceUsersRequest) (*rpc.ListWorkspaceUsersResponse, error)
}

// UserService is the subset of identity.v1.UserService the loaders use.
type UserService interface {
	GetMe(ctx context.Context) (*rpc.GetUserResponse, error)
}

// State is a snapshot of a single-value loader.
type State[T any] struct {
	Value   *T
	Loading bool
	Err     string
}

// loader runs one fetch at a time and keeps the last outcome.
type loader[T any] struct {
	mu       sync.Mutex
	state    State[T]
	fallback string
}

func (l *loader[T]) snapshot() State[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *loader[T]) begin() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.Loading {
		return false
	}
	l.state.Loading = true
	l.state.Err = ""
	return true
}

func (l *loader[T]) run(ctx context.Context, fetch func(context.Context) (*T, error)) (st State[T]) {
	if !l.begin() {
		return l.snapshot()
	}

	var (
		v   *T
		err error
	)
	defer func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.state.Loading = false
		switch {
		case ctx.Err() != nil:
		case err != nil:
			l.state.Err = errorText(err, l.fallback)
		case v != nil:
			l.state.Value = v
		}
		st = l.state
	}()

	v, err = fetch(ctx)
	return st
}

func errorText(err error, fallback string) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallback
}
