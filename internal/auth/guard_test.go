package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platform-console/internal/session"
)

func TestEvaluate(t *testing.T) {
	u := &User{Subject: "auth0|user-1", Name: "Ada"}

	assert.Equal(t, Pending{}, Evaluate(UserState{Loading: true}))
	assert.Equal(t, Pending{}, Evaluate(UserState{User: u, Loading: true}))
	assert.Equal(t, Redirect{Target: LoginPath}, Evaluate(UserState{}))
	assert.Equal(t, Redirect{Target: LoginPath}, Evaluate(UserState{Err: errors.New("boom")}))
	assert.Equal(t, Authorized{User: *u}, Evaluate(UserState{User: u}))
}

func TestUserFromSession(t *testing.T) {
	assert.Nil(t, UserFromSession(nil))
	assert.Nil(t, UserFromSession(&session.Session{ID: "s1"}))

	u := UserFromSession(&session.Session{
		ID: "s1", Subject: "auth0|user-1",
		User: map[string]any{"name": "Ada", "email": "ada@example.com", "updatedAt": int64(1)},
	})
	require.NotNil(t, u)
	assert.Equal(t, User{Subject: "auth0|user-1", Name: "Ada", Email: "ada@example.com"}, *u)
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, u.Name)
	}

	t.Run("authorized", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", func(c *gin.Context) {
			s := &session.Session{ID: "s1", Subject: "auth0|user-1", User: map[string]any{"name": "Ada"}}
			c.Request = c.Request.WithContext(WithSession(c.Request.Context(), s))
			c.Next()
		}, RequireUser(nil), handler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Ada", w.Body.String())
	})

	t.Run("no user redirects before render", func(t *testing.T) {
		r := gin.New()
		r.GET("/me", RequireUser(nil), handler)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, LoginPath, w.Header().Get("Location"))
	})
}
