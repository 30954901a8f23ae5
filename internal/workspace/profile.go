package workspace

import (
	"context"

	"platform-console/internal/rpc"
)

// Profile is what the profile page shows: the gateway view of the caller and
// the access token the call was made with.
type Profile struct {
	Me          *rpc.GetMeResponse
	AccessToken string
}

type ProfileState = State[Profile]

// ProfileLoader fetches the access token and then GetMe from the gateway.
type ProfileLoader struct {
	me     MeService
	tokens rpc.TokenSource
	l      loader[Profile]
}

func NewProfileLoader(me MeService, tokens rpc.TokenSource) *ProfileLoader {
	return &ProfileLoader{me: me, tokens: tokens, l: loader[Profile]{fallback: profileFailed}}
}

// Load is a no-op returning the current state while another Load is running.
func (p *ProfileLoader) Load(ctx context.Context) ProfileState {
	return p.l.run(ctx, func(ctx context.Context) (*Profile, error) {
		var out Profile
		if p.tokens != nil {
			token, err := p.tokens.Token(ctx)
			if err != nil {
				return nil, err
			}
			out.AccessToken = token
		}
		me, err := p.me.GetMe(ctx)
		if err != nil {
			return nil, err
		}
		out.Me = me
		return &out, nil
	})
}

func (p *ProfileLoader) State() ProfileState { return p.l.snapshot() }

type IdentityState = State[rpc.GetUserResponse]

// IdentityLoader fetches the caller from the identity service for the dashboard.
type IdentityLoader struct {
	users UserService
	l     loader[rpc.GetUserResponse]
}

func NewIdentityLoader(users UserService) *IdentityLoader {
	return &IdentityLoader{users: users, l: loader[rpc.GetUserResponse]{fallback: profileFailed}}
}

func (i *IdentityLoader) Load(ctx context.Context) IdentityState {
	return i.l.run(ctx, i.users.GetMe)
}

func (i *IdentityLoader) State() IdentityState { return i.l.snapshot() }
