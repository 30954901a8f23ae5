package devapi

import (
	"log/slog"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"platform-console/internal/rpc"
	"platform-console/pkg/logger"
)

// Handler mounts the Connect procedures and /health on a gin engine, wrapped
// in CORS for allowedOrigins and h2c so HTTP/2 clients work without TLS.
func Handler(svc *Service, allowedOrigins []string, log *slog.Logger) http.Handler {
	opts := []connect.HandlerOption{
		connect.WithCodec(rpc.Codec{}),
		connect.WithInterceptors(BearerSubject()),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log, "/health"))

	r.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "OK") })
	r.POST(rpc.MeGetMeProcedure, gin.WrapH(connect.NewUnaryHandler(rpc.MeGetMeProcedure, svc.GetMe, opts...)))
	r.POST(rpc.MeListWorkspaceUsersProcedure, gin.WrapH(connect.NewUnaryHandler(rpc.MeListWorkspaceUsersProcedure, svc.ListWorkspaceUsers, opts...)))
	r.POST(rpc.UserGetMeProcedure, gin.WrapH(connect.NewUnaryHandler(rpc.UserGetMeProcedure, svc.IdentityGetMe, opts...)))

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Connect-Protocol-Version", "Connect-Timeout-Ms"},
		ExposedHeaders:   []string{"Grpc-Status", "Grpc-Message", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           int((24 * time.Hour).Seconds()),
	})
	return h2c.NewHandler(c.Handler(r), &http2.Server{})
}

func NewServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
