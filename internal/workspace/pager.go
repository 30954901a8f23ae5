package workspace

import (
	"context"
	"strings"
	"sync"

	"platform-console/internal/rpc"
)

const DefaultPageSize = 10

// UsersState is a snapshot of the workspace user list.
type UsersState struct {
	Users         []rpc.WorkspaceUser
	NextPageToken string
	Loading       bool
	Err           string
	// Pages counts successfully loaded pages.
	Pages int
}

// HasMore reports whether LoadMore would fetch anything.
func (s UsersState) HasMore() bool { return s.NextPageToken != "" }

// UsersPager walks ListWorkspaceUsers with page tokens, appending each page.
type UsersPager struct {
	me       MeService
	pageSize int32

	mu    sync.Mutex
	state UsersState
}

func NewUsersPager(me MeService, pageSize int) *UsersPager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &UsersPager{me: me, pageSize: int32(pageSize)}
}

// Load fetches the first page and replaces the list.
func (p *UsersPager) Load(ctx context.Context) UsersState {
	if _, ok := p.begin(false); !ok {
		return p.State()
	}
	return p.fetch(ctx, "", false)
}

// LoadMore appends the next page. It does nothing while a fetch is running or
// when there is no next page.
func (p *UsersPager) LoadMore(ctx context.Context) UsersState {
	token, ok := p.begin(true)
	if !ok {
		return p.State()
	}
	return p.fetch(ctx, token, true)
}

func (p *UsersPager) State() UsersState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.copyState()
}

// Collect loads the first page and follows next page tokens until the list is
// exhausted, maxPages pages are loaded (0 means no limit) or a fetch fails.
func (p *UsersPager) Collect(ctx context.Context, maxPages int) UsersState {
	st := p.Load(ctx)
	for st.Err == "" && st.HasMore() && (maxPages <= 0 || st.Pages < maxPages) {
		if ctx.Err() != nil {
			break
		}
		st = p.LoadMore(ctx)
	}
	return st
}

// begin is the test-and-set on Loading. For LoadMore it also requires a next
// page and returns its token.
func (p *UsersPager) begin(more bool) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state.Loading {
		return "", false
	}
	if more && p.state.NextPageToken == "" {
		return "", false
	}
	p.state.Loading = true
	return p.state.NextPageToken, true
}

func (p *UsersPager) fetch(ctx context.Context, token string, appendPage bool) (st UsersState) {
	var (
		res *rpc.ListWorkspaceUsersResponse
		err error
	)
	defer func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.state.Loading = false
		p.commit(ctx, token, res, err, appendPage)
		st = p.copyState()
	}()

	res, err = p.me.ListWorkspaceUsers(ctx, &rpc.ListWorkspaceUsersRequest{
		PageSize:  p.pageSize,
		PageToken: token,
	})
	return st
}

// commit must be called with mu held. A next token equal to the one just
// requested ends the list.
func (p *UsersPager) commit(ctx context.Context, token string, res *rpc.ListWorkspaceUsersResponse, err error, appendPage bool) {
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		p.state.Err = errorText(err, usersFailed)
		return
	}
	if res == nil {
		return
	}
	if appendPage {
		p.state.Users = append(p.state.Users, res.Users...)
		p.state.Pages++
	} else {
		p.state.Users = append([]rpc.WorkspaceUser(nil), res.Users...)
		p.state.Pages = 1
	}
	next := strings.TrimSpace(res.NextPageToken)
	if next == token {
		next = ""
	}
	p.state.NextPageToken = next
	p.state.Err = ""
}

// copyState must be called with mu held.
func (p *UsersPager) copyState() UsersState {
	out := p.state
	out.Users = append([]rpc.WorkspaceUser(nil), p.state.Users...)
	return out
}
