package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	HealthPath = "/health"
	LoginPath  = "/auth/login"

	authPrefix = "/auth"
)

// Proxy enforces an authenticated session on every request outside the asset matcher:
//
//   - /health answers 200 without touching session state
//   - /auth* is answered by the identity middleware unmodified
//   - no valid session redirects to /auth/login on the request origin
//   - otherwise the session is refreshed and its cookie headers forwarded
//
// Any failure to read or refresh the session redirects to login.
func Proxy(id *Identity, log *slog.Logger) gin.HandlerFunc {
	if log == nil {
		log = slog.Default()
	}
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if isPublicAsset(path) {
			c.Next()
			return
		}
		if path == HealthPath {
			c.String(http.StatusOK, "OK")
			c.Abort()
			return
		}

		ctx := WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		authRes := id.Middleware(c.Request)
		if strings.HasPrefix(path, authPrefix) {
			authRes.WriteTo(c.Writer)
			c.Abort()
			return
		}

		sess, err := id.GetSession(ctx, c.Request)
		if err != nil {
			redirectToLogin(c)
			return
		}

		updated := sess.WithUpdatedAt(id.clock())
		if err := id.UpdateSession(ctx, authRes, updated); err != nil {
			log.Warn("session refresh failed", "err", err, "sub", sess.Subject)
			redirectToLogin(c)
			return
		}

		mergeHeaders(c.Writer.Header(), authRes.Header)
		c.Request = c.Request.WithContext(WithSession(ctx, updated))
		c.Set("sub", updated.Subject)
		c.Next()
	}
}

func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusTemporaryRedirect, RequestOrigin(c.Request)+LoginPath)
	c.Abort()
}

// RequestOrigin returns scheme://host of the inbound request, honoring X-Forwarded-Proto.
func RequestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	} else if p := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-Proto"), ",")[0]); p == "https" || p == "http" {
		scheme = p
	}
	return scheme + "://" + r.Host
}

// isPublicAsset mirrors the proxy matcher: static files and metadata files skip auth.
func isPublicAsset(path string) bool {
	if strings.HasPrefix(path, "/static/") {
		return true
	}
	switch path {
	case "/favicon.ico", "/sitemap.xml", "/robots.txt":
		return true
	}
	return false
}
