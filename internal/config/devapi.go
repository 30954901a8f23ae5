package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// DevAPIConfig configures the local backend used in development and tests.
type DevAPIConfig struct {
	Env            string   `env:"APP_ENV" envDefault:"local"`
	Port           int      `env:"DEVAPI_PORT" envDefault:"8080"`
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	WorkspaceID    string   `env:"DEVAPI_WORKSPACE_ID" envDefault:"ws-001"`
}

func LoadDevAPI() (DevAPIConfig, error) {
	return loadDevAPI(env.Options{})
}

func LoadDevAPIFrom(vars map[string]string) (DevAPIConfig, error) {
	return loadDevAPI(env.Options{Environment: vars})
}

func loadDevAPI(opts env.Options) (DevAPIConfig, error) {
	var c DevAPIConfig
	if err := env.ParseWithOptions(&c, opts); err != nil {
		return DevAPIConfig{}, parseError(err)
	}
	if err := c.Validate(); err != nil {
		return DevAPIConfig{}, err
	}
	return c, nil
}

func (c DevAPIConfig) Validate() error {
	var errs []error
	if c.Env == "production" {
		errs = append(errs, errors.New("devapi must not run with APP_ENV=production"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("DEVAPI_PORT must be a valid port, got %d", c.Port))
	}
	if c.WorkspaceID == "" {
		errs = append(errs, errors.New("DEVAPI_WORKSPACE_ID is required"))
	}
	return joinErrors(errs)
}

func (c DevAPIConfig) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}
