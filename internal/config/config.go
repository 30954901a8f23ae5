package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all configuration required by the console process.
// All values come from env (or an env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App       AppConfig
	Auth      AuthConfig
	API       APIConfig
	Session   SessionConfig
	Audit     AuditConfig
	Workspace WorkspaceConfig
}

type AppConfig struct {
	Env  string `env:"APP_ENV" envDefault:"local"`
	Port int    `env:"APP_PORT" envDefault:"3000"`
}

// AuthConfig is the identity provider registration. Names follow the Auth0 SDK conventions.
type AuthConfig struct {
	Secret       string `env:"AUTH0_SECRET,required,notEmpty"`
	BaseURL      string `env:"AUTH0_BASE_URL,required,notEmpty"`
	Domain       string `env:"AUTH0_DOMAIN,required,notEmpty"`
	ClientID     string `env:"AUTH0_CLIENT_ID,required,notEmpty"`
	ClientSecret string `env:"AUTH0_CLIENT_SECRET,required,notEmpty"`

	// Audience is optional; when set, access tokens are minted for the backend API.
	Audience string `env:"AUTH0_AUDIENCE"`
}

type APIConfig struct {
	URL     string        `env:"API_URL" envDefault:"http://localhost:8080"`
	Timeout time.Duration `env:"API_TIMEOUT" envDefault:"10s"`
}

type SessionConfig struct {
	// Store accepts: memory, redis
	Store            string        `env:"SESSION_STORE" envDefault:"memory"`
	RedisAddr        string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RollingDuration  time.Duration `env:"SESSION_ROLLING_DURATION" envDefault:"24h"`
	AbsoluteDuration time.Duration `env:"SESSION_ABSOLUTE_DURATION" envDefault:"72h"`
}

type AuditConfig struct {
	// DatabaseURL enables Postgres persistence of auth events. Empty keeps them in memory.
	DatabaseURL     string        `env:"AUDIT_DATABASE_URL"`
	MaxConns        int           `env:"AUDIT_DB_MAX_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"AUDIT_DB_CONN_MAX_LIFETIME" envDefault:"30m"`
	// MemoryLimit caps the in-memory event log used when no database is configured.
	MemoryLimit int `env:"AUDIT_MEMORY_LIMIT" envDefault:"1000"`
}

type WorkspaceConfig struct {
	UsersPageSize int `env:"WORKSPACE_USERS_PAGE_SIZE" envDefault:"10"`
}

func Load() (Config, error) {
	return load(env.Options{})
}

// LoadFrom parses vars instead of the process environment.
func LoadFrom(vars map[string]string) (Config, error) {
	return load(env.Options{Environment: vars})
}

func load(opts env.Options) (Config, error) {
	var c Config
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return Config{}, parseError(err)
	}
	trim(&c)
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	var errs []error

	if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("AUTH0_SECRET is required"))
	}
	if c.Auth.BaseURL == "" {
		errs = append(errs, errors.New("AUTH0_BASE_URL is required"))
	} else if err := validateURL("AUTH0_BASE_URL", c.Auth.BaseURL); err != nil {
		errs = append(errs, err)
	} else if c.IsProduction() && !strings.HasPrefix(c.Auth.BaseURL, "https://") {
		errs = append(errs, errors.New("AUTH0_BASE_URL must use https in production"))
	}
	if c.Auth.Domain == "" {
		errs = append(errs, errors.New("AUTH0_DOMAIN is required"))
	}
	if c.Auth.ClientID == "" {
		errs = append(errs, errors.New("AUTH0_CLIENT_ID is required"))
	}
	if c.Auth.ClientSecret == "" {
		errs = append(errs, errors.New("AUTH0_CLIENT_SECRET is required"))
	}

	if err := validateURL("API_URL", c.API.URL); err != nil {
		errs = append(errs, err)
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("API_TIMEOUT must be > 0, got %s", c.API.Timeout))
	}

	switch c.Session.Store {
	case "memory":
	case "redis":
		if c.Session.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when SESSION_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION_STORE must be one of memory, redis, got %q", c.Session.Store))
	}
	if c.IsProduction() && c.Session.Store == "memory" {
		errs = append(errs, errors.New("SESSION_STORE=memory is not allowed in production"))
	}
	if c.Session.RollingDuration <= 0 {
		errs = append(errs, fmt.Errorf("SESSION_ROLLING_DURATION must be > 0, got %s", c.Session.RollingDuration))
	}
	if c.Session.AbsoluteDuration < c.Session.RollingDuration {
		errs = append(errs, errors.New("SESSION_ABSOLUTE_DURATION must be >= SESSION_ROLLING_DURATION"))
	}

	if c.Audit.MaxConns <= 0 {
		errs = append(errs, fmt.Errorf("AUDIT_DB_MAX_CONNS must be > 0, got %d", c.Audit.MaxConns))
	}
	if c.Audit.MemoryLimit <= 0 {
		errs = append(errs, fmt.Errorf("AUDIT_MEMORY_LIMIT must be > 0, got %d", c.Audit.MemoryLimit))
	}

	if c.Workspace.UsersPageSize <= 0 || c.Workspace.UsersPageSize > 100 {
		errs = append(errs, fmt.Errorf("WORKSPACE_USERS_PAGE_SIZE must be between 1 and 100, got %d", c.Workspace.UsersPageSize))
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

// CallbackURL is the redirect URI registered with the identity provider.
func (c Config) CallbackURL() string {
	return strings.TrimRight(c.Auth.BaseURL, "/") + "/auth/callback"
}

func trim(c *Config) {
	c.App.Env = strings.TrimSpace(c.App.Env)
	c.Auth.BaseURL = strings.TrimRight(strings.TrimSpace(c.Auth.BaseURL), "/")
	c.Auth.Domain = strings.TrimSpace(c.Auth.Domain)
	c.Auth.ClientID = strings.TrimSpace(c.Auth.ClientID)
	c.Auth.Audience = strings.TrimSpace(c.Auth.Audience)
	c.API.URL = strings.TrimRight(strings.TrimSpace(c.API.URL), "/")
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
}

func validateURL(key, v string) error {
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, v)
	}
	return nil
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

// parseError flattens env's aggregate error so every problem shows up in one report.
func parseError(err error) error {
	var agg env.AggregateError
	if errors.As(err, &agg) {
		return joinErrors(agg.Errors)
	}
	return err
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
