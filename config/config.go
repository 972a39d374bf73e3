package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds everything read from the environment at startup. Access
// and refresh tokens are signed with distinct secrets so a leaked
// access secret cannot forge refresh tokens.
type Config struct {
	Port          string `env:"PORT" envDefault:"5000"`
	AppEnv        string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL   string `env:"DATABASE_URL,required,notEmpty"`
	RedisURL      string `env:"REDIS_URL"`
	AccessSecret  string `env:"ACCESS_SECRET,required,notEmpty"`
	RefreshSecret string `env:"REFRESH_SECRET,required,notEmpty"`

	// Optional, only needed for the password-reset mail flow.
	SendgridAPIKey string `env:"SENDGRID_API_KEY"`
	ResetFromEmail string `env:"RESET_FROM_EMAIL" envDefault:"donotreply@taskman.local"`
}

func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if c.AccessSecret == c.RefreshSecret {
		return Config{}, fmt.Errorf("ACCESS_SECRET and REFRESH_SECRET must differ")
	}
	return c, nil
}
