package auth

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"platform-console/internal/session"
)

const currentUserKey = "current_user"

// User is the identity shown by pages; it comes from the session's ID token claims.
type User struct {
	Subject string
	Name    string
	Email   string
}

// UserState is what the guard knows about the caller at evaluation time.
type UserState struct {
	User    *User
	Loading bool
	Err     error
}

// Decision is the outcome of Evaluate: Authorized, Redirect or Pending.
type Decision interface{ decision() }

type Authorized struct{ User User }

type Redirect struct{ Target string }

type Pending struct{}

func (Authorized) decision() {}
func (Redirect) decision()   {}
func (Pending) decision()    {}

// Evaluate decides before render whether the caller may enter a page.
func Evaluate(st UserState) Decision {
	if st.Loading {
		return Pending{}
	}
	if st.User == nil {
		return Redirect{Target: LoginPath}
	}
	return Authorized{User: *st.User}
}

// UserFromSession projects session claims into a User.
func UserFromSession(s *session.Session) *User {
	if s == nil || s.Subject == "" {
		return nil
	}
	u := &User{Subject: s.Subject}
	if v, ok := s.User["name"].(string); ok {
		u.Name = v
	}
	if v, ok := s.User["email"].(string); ok {
		u.Email = v
	}
	return u
}

// StateFromContext builds the guard input from the session attached by Proxy.
func StateFromContext(ctx context.Context) UserState {
	s, _ := SessionFrom(ctx)
	return UserState{User: UserFromSession(s)}
}

// RequireUser applies Evaluate ahead of page handlers. onPending renders the
// placeholder shown while identity is still resolving.
func RequireUser(onPending gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch d := Evaluate(StateFromContext(c.Request.Context())).(type) {
		case Authorized:
			c.Set(currentUserKey, d.User)
			c.Next()
		case Redirect:
			c.Redirect(http.StatusFound, d.Target)
			c.Abort()
		case Pending:
			if onPending != nil {
				onPending(c)
			} else {
				c.Status(http.StatusAccepted)
			}
			c.Abort()
		}
	}
}

// CurrentUser returns the user admitted by RequireUser.
func CurrentUser(c *gin.Context) (User, bool) {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return User{}, false
	}
	u, ok := v.(User)
	return u, ok
}
