// Package web renders the console pages behind the auth proxy.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"platform-console/internal/auth"
	"platform-console/internal/rpc"
	"platform-console/internal/workspace"
	"platform-console/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// MaxPages bounds ?pages= on the users page.
const MaxPages = 50

// Templates parses the embedded page templates.
func Templates() (*template.Template, error) {
	return template.ParseFS(templateFS, "templates/*.html")
}

// Static serves the embedded stylesheet.
func Static() http.FileSystem {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

type Handlers struct {
	clients  *rpc.Clients
	tokens   rpc.TokenSource
	pageSize int
}

func NewHandlers(clients *rpc.Clients, tokens rpc.TokenSource, pageSize int) *Handlers {
	return &Handlers{clients: clients, tokens: tokens, pageSize: pageSize}
}

// Register installs templates, static files and the page routes on r.
// Page routes run behind auth.RequireUser.
func (h *Handlers) Register(r *gin.Engine) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", Static())

	pages := r.Group("/", auth.RequireUser(Loading))
	pages.GET("/", h.Home)
	pages.GET("/dashboard", h.Dashboard)
	pages.GET("/me", h.Me)
	pages.GET("/users", h.Users)
	return nil
}

type pageData struct {
	Title  string
	Active string
	User   auth.User
}

func newPage(c *gin.Context, title, active string) pageData {
	u, _ := auth.CurrentUser(c)
	return pageData{Title: title, Active: active, User: u}
}

// Loading is the placeholder rendered while identity is still resolving.
func Loading(c *gin.Context) {
	c.HTML(http.StatusOK, "loading.html", pageData{Title: "Loading"})
}

func (h *Handlers) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handlers) Dashboard(c *gin.Context) {
	st := workspace.NewIdentityLoader(h.clients.Users).Load(c.Request.Context())
	if st.Err != "" {
		logger.FromGin(c).Warn("identity GetMe failed", "err", st.Err)
	}
	c.HTML(http.StatusOK, "dashboard.html", struct {
		pageData
		Identity workspace.IdentityState
	}{newPage(c, "Dashboard", "dashboard"), st})
}

func (h *Handlers) Me(c *gin.Context) {
	st := workspace.NewProfileLoader(h.clients.Me, h.tokens).Load(c.Request.Context())
	if st.Err != "" {
		logger.FromGin(c).Warn("gateway GetMe failed", "err", st.Err)
	}
	c.HTML(http.StatusOK, "me.html", struct {
		pageData
		Profile workspace.ProfileState
	}{newPage(c, "My Profile", "me"), st})
}

// Users renders ?pages=N pages of the workspace user list; "Load More" links to N+1.
func (h *Handlers) Users(c *gin.Context) {
	n := parsePages(c.Query("pages"))
	st := workspace.NewUsersPager(h.clients.Me, h.pageSize).Collect(c.Request.Context(), n)
	if st.Err != "" {
		logger.FromGin(c).Warn("ListWorkspaceUsers failed", "err", st.Err)
	}
	c.HTML(http.StatusOK, "users.html", struct {
		pageData
		Users     workspace.UsersState
		NextPages int
	}{newPage(c, "Workspace Users", "users"), st, st.Pages + 1})
}

func parsePages(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return 1
	}
	if n > MaxPages {
		return MaxPages
	}
	return n
}
