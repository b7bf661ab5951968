package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/database"
	"github.com/ovaphlow/pitchfork/service-user-directory/pkg/utilities"
)

// Config contains service configuration parameters.
type Config struct {
	Env      string             `env:"APP_ENV" envDefault:"development"`
	HTTP     HTTP               `envPrefix:"HTTP_"`
	CORS     CORS               `envPrefix:"CORS_"`
	Database database.Config    `envPrefix:"DATABASE_"`
	Log      utilities.Config   `envPrefix:"LOG_"`
	ID       utilities.IDConfig `envPrefix:"ID_"`
	Admin    Admin              `envPrefix:"ADMIN_"`
}

// HTTP contains API server parameters.
type HTTP struct {
	Addr            string        `env:"ADDR" envDefault:"0.0.0.0:5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// CORS lists the browser origins allowed to call the API.
type CORS struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// DefaultAdminSessionKey signs admin cookies when ADMIN_SESSION_KEY is unset.
// It is only acceptable outside production.
const DefaultAdminSessionKey = "dev-session-key-change-me-0123456"

// Admin contains the admin frontend parameters.
type Admin struct {
	Addr       string `env:"ADDR" envDefault:"0.0.0.0:5173"`
	APIURL     string `env:"API_URL" envDefault:"http://localhost:5000"`
	SessionKey string `env:"SESSION_KEY" envDefault:"dev-session-key-change-me-0123456"`
}

// Production reports whether the service runs in production mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}

// ValidateAdmin checks the settings the admin frontend needs before it serves.
func (c *Config) ValidateAdmin() error {
	if c.Admin.SessionKey == "" {
		return errors.New("ADMIN_SESSION_KEY must not be empty")
	}
	if c.Production() && c.Admin.SessionKey == DefaultAdminSessionKey {
		return errors.New("ADMIN_SESSION_KEY must be set in production")
	}
	return nil
}

// Load reads an optional .env file, then parses the environment. Variables
// already set in the environment win over the file.
func Load() (*Config, error) {
	// best-effort: a missing .env is normal outside development
	_ = godotenv.Load()
	return Parse()
}

// Parse loads configuration from environment variables only.
func Parse() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
