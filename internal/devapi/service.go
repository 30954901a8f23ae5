package devapi

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"platform-console/internal/rpc"
)

// Service implements gateway.v1.MeService and identity.v1.UserService.
type Service struct {
	repo        *MemoryRepo
	workspaceID string
}

func NewService(repo *MemoryRepo, workspaceID string) *Service {
	return &Service{repo: repo, workspaceID: workspaceID}
}

func (s *Service) caller(ctx context.Context) (WorkspaceUser, error) {
	sub := subjectFrom(ctx)
	if sub == "" {
		return WorkspaceUser{}, connect.NewError(connect.CodeUnauthenticated, nil)
	}
	u, err := s.repo.FindBySubject(ctx, sub)
	if err != nil {
		return WorkspaceUser{}, connect.NewError(connect.CodeNotFound, err)
	}
	return u, nil
}

func (s *Service) GetMe(ctx context.Context, req *connect.Request[rpc.GetMeRequest]) (*connect.Response[rpc.GetMeResponse], error) {
	u, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	tenants := s.repo.TenantsOf(ctx, u.ID)
	infos := make([]rpc.TenantUserInfo, 0, len(tenants))
	for _, t := range tenants {
		infos = append(infos, rpc.TenantUserInfo{TenantID: t.TenantID, TenantUserID: t.ID, Role: t.Role})
	}
	return connect.NewResponse(&rpc.GetMeResponse{
		WorkspaceID:     u.WorkspaceID,
		WorkspaceUserID: u.ID,
		Email:           u.Email,
		Name:            u.Name,
		Tenants:         infos,
	}), nil
}

func (s *Service) ListWorkspaceUsers(ctx context.Context, req *connect.Request[rpc.ListWorkspaceUsersRequest]) (*connect.Response[rpc.ListWorkspaceUsersResponse], error) {
	u, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if req.Msg.PageSize < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("page_size must be >= 0"))
	}
	users, next, err := s.repo.ListByWorkspace(ctx, u.WorkspaceID, req.Msg.PageSize, req.Msg.PageToken)
	if err != nil {
		if errors.Is(err, ErrInvalidPageToken) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	out := make([]rpc.WorkspaceUser, 0, len(users))
	for _, wu := range users {
		out = append(out, rpc.WorkspaceUser{WorkspaceUserID: wu.ID, Email: wu.Email, Name: wu.Name})
	}
	return connect.NewResponse(&rpc.ListWorkspaceUsersResponse{Users: out, NextPageToken: next}), nil
}

// IdentityGetMe is identity.v1.UserService/GetMe.
func (s *Service) IdentityGetMe(ctx context.Context, req *connect.Request[rpc.GetUserRequest]) (*connect.Response[rpc.GetUserResponse], error) {
	u, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&rpc.GetUserResponse{UserID: u.Subject, Email: u.Email, Name: u.Name}), nil
}
