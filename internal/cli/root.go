// Package cli implements consolectl, a terminal client for the console.
//
// It authenticates with an existing console session cookie: the access token
// comes from the console's /auth/access-token route and is attached to backend
// calls exactly as the pages do.
package cli

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"platform-console/internal/config"
	"platform-console/internal/rpc"
	"platform-console/pkg/logger"
)

type options struct {
	consoleURL string
	apiURL     string
	session    string
	output     string
	timeout    time.Duration
	env        string
}

// NewRootCommand builds the command tree with defaults taken from cfg.
func NewRootCommand(cfg config.CLIConfig) *cobra.Command {
	opts := &options{env: cfg.Env}

	root := &cobra.Command{
		Use:   "consolectl",
		Short: "Query the platform console backend with your console session",
		Long: `consolectl calls the same backend procedures as the console pages.

Sign in to the console in a browser, copy the value of the __session cookie and
pass it with --session (or CONSOLE_SESSION).

Examples:
  # Who am I?
  consolectl whoami --session "$CONSOLE_SESSION"

  # Every workspace user, as JSON
  consolectl users --all -o json
`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "text", "json":
			default:
				return fmt.Errorf("--output must be text or json, got %q", opts.output)
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.consoleURL, "console-url", cfg.ConsoleURL, "console origin serving /auth/access-token (CONSOLE_URL)")
	f.StringVar(&opts.apiURL, "api-url", cfg.APIURL, "backend gateway base URL (API_URL)")
	f.StringVar(&opts.session, "session", cfg.Session, "console session cookie value (CONSOLE_SESSION)")
	f.StringVarP(&opts.output, "output", "o", "text", "output format: text or json")
	f.DurationVar(&opts.timeout, "timeout", cfg.Timeout, "per-request timeout")

	root.AddCommand(newWhoamiCommand(opts))
	root.AddCommand(newUsersCommand(opts))
	return root
}

// clients builds the rpc clients for one invocation.
func (o *options) clients(stderr io.Writer) (*rpc.Clients, error) {
	if o.session == "" {
		return nil, errors.New("no session: pass --session or set CONSOLE_SESSION")
	}
	hc := &http.Client{Timeout: o.timeout}
	if stderr == nil {
		stderr = os.Stderr
	}
	return rpc.New(rpc.Config{
		BaseURL:    o.apiURL,
		HTTPClient: hc,
		TokenSource: rpc.AccessTokenEndpoint{
			ConsoleURL: o.consoleURL,
			Cookie:     o.session,
			HTTPClient: hc,
		},
		Logger: logger.NewWithWriter(stderr, o.env),
	})
}
