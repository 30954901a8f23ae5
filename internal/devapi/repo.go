// Package devapi is a local stand-in for the backend gateway and identity
// services. It serves the same Connect procedures from in-memory data.
package devapi

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"time"

	"platform-console/internal/rpc"
)

var (
	ErrUserNotFound     = errors.New("devapi: workspace user not found")
	ErrInvalidPageToken = errors.New("devapi: invalid page token")
)

const defaultPageSize = 10

type WorkspaceUser struct {
	ID          string
	WorkspaceID string
	Subject     string
	Email       string
	Name        string
	CreatedAt   time.Time
}

type TenantUser struct {
	ID              string
	TenantID        string
	WorkspaceUserID string
	Role            rpc.Role
	CreatedAt       time.Time
}

// MemoryRepo holds workspace and tenant memberships.
type MemoryRepo struct {
	mu      sync.RWMutex
	users   map[string]WorkspaceUser // by subject
	tenants []TenantUser
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]WorkspaceUser)}
}

// SeedRepo returns the fixture data used by `devapi` out of the box.
func SeedRepo(now time.Time) *MemoryRepo {
	r := NewMemoryRepo()
	day := 24 * time.Hour
	r.PutUser(WorkspaceUser{ID: "wsu-001", WorkspaceID: "ws-001", Subject: "auth0|6952b421821fed371daac9df", Email: "user01@example.com", Name: "User 01", CreatedAt: now.Add(-10 * day)})
	r.PutUser(WorkspaceUser{ID: "wsu-002", WorkspaceID: "ws-001", Subject: "auth0|user002", Email: "user02@example.com", Name: "User 02", CreatedAt: now.Add(-9 * day)})
	r.PutUser(WorkspaceUser{ID: "wsu-003", WorkspaceID: "ws-001", Subject: "auth0|user003", Email: "user03@example.com", Name: "User 03", CreatedAt: now.Add(-8 * day)})

	r.PutTenant(TenantUser{ID: "tu-001", TenantID: "tenant-001", WorkspaceUserID: "wsu-001", Role: rpc.RoleAdmin, CreatedAt: now.Add(-10 * day)})
	r.PutTenant(TenantUser{ID: "tu-002", TenantID: "tenant-002", WorkspaceUserID: "wsu-001", Role: rpc.RoleMember, CreatedAt: now.Add(-8 * day)})
	r.PutTenant(TenantUser{ID: "tu-003", TenantID: "tenant-003", WorkspaceUserID: "wsu-001", Role: rpc.RoleViewer, CreatedAt: now.Add(-5 * day)})
	return r
}

func (r *MemoryRepo) PutUser(u WorkspaceUser) {
	r.mu.Lock()
	r.users[u.Subject] = u
	r.mu.Unlock()
}

func (r *MemoryRepo) PutTenant(t TenantUser) {
	r.mu.Lock()
	r.tenants = append(r.tenants, t)
	r.mu.Unlock()
}

func (r *MemoryRepo) FindBySubject(ctx context.Context, subject string) (WorkspaceUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[subject]
	if !ok {
		return WorkspaceUser{}, ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryRepo) TenantsOf(ctx context.Context, workspaceUserID string) []TenantUser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []TenantUser
	for _, t := range r.tenants {
		if t.WorkspaceUserID == workspaceUserID {
			out = append(out, t)
		}
	}
	return out
}

// ListByWorkspace pages users newest first. Page tokens are decimal offsets;
// the next token is empty on the last page.
func (r *MemoryRepo) ListByWorkspace(ctx context.Context, workspaceID string, pageSize int32, pageToken string) ([]WorkspaceUser, string, error) {
	start := 0
	if pageToken != "" {
		n, err := strconv.Atoi(pageToken)
		if err != nil || n < 0 {
			return nil, "", ErrInvalidPageToken
		}
		start = n
	}
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	r.mu.RLock()
	var users []WorkspaceUser
	for _, u := range r.users {
		if u.WorkspaceID == workspaceID {
			users = append(users, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.After(users[j].CreatedAt)
	})

	if start >= len(users) {
		return nil, "", nil
	}
	end := min(start+int(pageSize), len(users))
	next := ""
	if end < len(users) {
		next = strconv.Itoa(end)
	}
	return users[start:end], next, nil
}
