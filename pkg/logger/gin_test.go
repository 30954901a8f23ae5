package logger

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMiddleware_RequestIDAndSummary(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	l := NewWithWriter(&buf, "local")

	r := gin.New()
	r.Use(Middleware(l, "/health"))
	r.GET("/users", func(c *gin.Context) {
		if From(c.Request.Context()) != FromGin(c) {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.Set("sub", "auth0|u1")
		c.Status(http.StatusOK)
	})
	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users", nil)
	req.Header.Set("X-Request-Id", "rid-1")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("request logger should be on both contexts, got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") != "rid-1" {
		t.Fatalf("expected request id echoed")
	}

	var line map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["request_id"] != "rid-1" || line["path"] != "/users" || line["sub"] != "auth0|u1" {
		t.Fatalf("unexpected log line %v", line)
	}

	buf.Reset()
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id")
	}
	if strings.TrimSpace(buf.String()) != "" {
		t.Fatalf("quiet paths must not be logged, got %q", buf.String())
	}
}

func TestLevel(t *testing.T) {
	if Level("dev").String() != "DEBUG" || Level("production").String() != "INFO" {
		t.Fatalf("unexpected levels")
	}
}
