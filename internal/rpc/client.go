package rpc

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
)

// Config wires the clients. Nothing here is global; each process builds its own.
type Config struct {
	BaseURL     string
	HTTPClient  connect.HTTPClient
	TokenSource TokenSource
	Logger      *slog.Logger
	Options     []connect.ClientOption
}

// Clients groups the backend services used by the console.
type Clients struct {
	Me    *MeClient
	Users *UserClient
}

func New(cfg Config) (*Clients, error) {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		return nil, errors.New("rpc: base url is required")
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	opts := append([]connect.ClientOption{
		connect.WithCodec(Codec{}),
		connect.WithInterceptors(AuthInterceptor(cfg.TokenSource, cfg.Logger)),
	}, cfg.Options...)

	return &Clients{
		Me: &MeClient{
			getMe:     connect.NewClient[GetMeRequest, GetMeResponse](hc, base+MeGetMeProcedure, opts...),
			listUsers: connect.NewClient[ListWorkspaceUsersRequest, ListWorkspaceUsersResponse](hc, base+MeListWorkspaceUsersProcedure, opts...),
		},
		Users: &UserClient{
			getMe: connect.NewClient[GetUserRequest, GetUserResponse](hc, base+UserGetMeProcedure, opts...),
		},
	}, nil
}

// MeClient is gateway.v1.MeService.
type MeClient struct {
	getMe     *connect.Client[GetMeRequest, GetMeResponse]
	listUsers *connect.Client[ListWorkspaceUsersRequest, ListWorkspaceUsersResponse]
}

func (c *MeClient) GetMe(ctx context.Context) (*GetMeResponse, error) {
	res, err := c.getMe.CallUnary(ctx, connect.NewRequest(&GetMeRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

func (c *MeClient) ListWorkspaceUsers(ctx context.Context, req *ListWorkspaceUsersRequest) (*ListWorkspaceUsersResponse, error) {
	if req == nil {
		req = &ListWorkspaceUsersRequest{}
	}
	res, err := c.listUsers.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// UserClient is identity.v1.UserService.
type UserClient struct {
	getMe *connect.Client[GetUserRequest, GetUserResponse]
}

func (c *UserClient) GetMe(ctx context.Context) (*GetUserResponse, error) {
	res, err := c.getMe.CallUnary(ctx, connect.NewRequest(&GetUserRequest{}))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}

// NewH2CClient speaks HTTP/2 without TLS, matching backends served through h2c.
func NewH2CClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
}
