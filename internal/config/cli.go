package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// CLIConfig holds defaults for consolectl flags.
type CLIConfig struct {
	Env        string        `env:"APP_ENV" envDefault:"local"`
	ConsoleURL string        `env:"CONSOLE_URL" envDefault:"http://localhost:3000"`
	APIURL     string        `env:"API_URL" envDefault:"http://localhost:8080"`
	Session    string        `env:"CONSOLE_SESSION"`
	Timeout    time.Duration `env:"CONSOLE_TIMEOUT" envDefault:"15s"`
}

func LoadCLI() (CLIConfig, error) {
	var c CLIConfig
	if err := env.Parse(&c); err != nil {
		return CLIConfig{}, parseError(err)
	}
	return c, nil
}
