// Package rpc is the authenticated Connect client for the backend gateway and identity services.
//
// Messages are plain structs serialized with the JSON field names protojson emits,
// so the console needs no generated code to talk to the backend.
package rpc

const (
	MeGetMeProcedure              = "/gateway.v1.MeService/GetMe"
	MeListWorkspaceUsersProcedure = "/gateway.v1.MeService/ListWorkspaceUsers"
	UserGetMeProcedure            = "/identity.v1.UserService/GetMe"
)

type Role string

const (
	RoleUnspecified Role = "ROLE_UNSPECIFIED"
	RoleAdmin       Role = "ROLE_ADMIN"
	RoleMember      Role = "ROLE_MEMBER"
	RoleViewer      Role = "ROLE_VIEWER"
)

// Label is the display form used by pages.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleMember:
		return "Member"
	case RoleViewer:
		return "Viewer"
	default:
		return "Unspecified"
	}
}

type GetMeRequest struct{}

// TenantUserInfo is the caller's membership in one tenant.
type TenantUserInfo struct {
	TenantID     string `json:"tenantId,omitempty"`
	TenantUserID string `json:"tenantUserId,omitempty"`
	Role         Role   `json:"role,omitempty"`
}

type GetMeResponse struct {
	WorkspaceID     string           `json:"workspaceId,omitempty"`
	WorkspaceUserID string           `json:"workspaceUserId,omitempty"`
	Email           string           `json:"email,omitempty"`
	Name            string           `json:"name,omitempty"`
	Tenants         []TenantUserInfo `json:"tenants,omitempty"`
}

type ListWorkspaceUsersRequest struct {
	PageSize  int32  `json:"pageSize,omitempty"`
	PageToken string `json:"pageToken,omitempty"`
}

type WorkspaceUser struct {
	WorkspaceUserID string `json:"workspaceUserId,omitempty"`
	Email           string `json:"email,omitempty"`
	Name            string `json:"name,omitempty"`
}

type ListWorkspaceUsersResponse struct {
	Users []WorkspaceUser `json:"users,omitempty"`
	// NextPageToken is empty on the last page.
	NextPageToken string `json:"nextPageToken,omitempty"`
}

type GetUserRequest struct{}

// GetUserResponse is the identity service's view of the caller.
type GetUserResponse struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
}
