// Package config loads client and development-server settings from the
// environment.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/kelseyhightower/envconfig"
)

// -----------------------------------------------------------------------------
// Environment variable guidelines:
// - required: secrets that must differ per deployment
// - default: everything a local run can live without
// -----------------------------------------------------------------------------

// Client configures the eventbook command.
type Client struct {
	API     APIConfig
	Session SessionConfig
	Log     LogConfig
}

type APIConfig struct {
	BaseURL string `envconfig:"EVENTBOOK_API_URL" default:"http://localhost:5297"`
	// AuthURL is the base URL of the auth endpoints. Empty means BaseURL.
	AuthURL        string        `envconfig:"EVENTBOOK_AUTH_URL"`
	Timeout        time.Duration `envconfig:"EVENTBOOK_HTTP_TIMEOUT" default:"15s"`
	ConflictStatus int           `envconfig:"EVENTBOOK_CONFLICT_STATUS" default:"409"`
}

type SessionConfig struct {
	Path string `envconfig:"EVENTBOOK_SESSION_PATH"`
}

type LogConfig struct {
	Level  string `envconfig:"LOG_LEVEL" default:"warn"`
	Format string `envconfig:"LOG_FORMAT" default:"text"`
}

// Server configures the development API.
type Server struct {
	Port string `envconfig:"PORT" default:"5297"`
	JWT  JWTConfig
	CORS CORSConfig
	Log  LogConfig
	Seed SeedConfig
}

// SeedConfig controls the sample data loaded at startup.
type SeedConfig struct {
	Enabled       bool   `envconfig:"SEED_EVENTS" default:"true"`
	AdminUser     string `envconfig:"SEED_ADMIN_USER" default:"admin"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD" default:"admin"`
}

type JWTConfig struct {
	Secret   string        `envconfig:"JWT_SECRET" required:"true"`
	Duration time.Duration `envconfig:"JWT_DURATION" default:"24h"`
}

type CORSConfig struct {
	AllowOrigins []string `envconfig:"CORS_ALLOW_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	AllowMethods []string `envconfig:"CORS_ALLOW_METHODS" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowHeaders []string `envconfig:"CORS_ALLOW_HEADERS" default:"Origin,Content-Type,Accept,Authorization,X-Request-Id"`
}

// AuthBaseURL returns the auth base URL, defaulting to the API base URL.
func (c APIConfig) AuthBaseURL() string {
	if c.AuthURL != "" {
		return c.AuthURL
	}
	return c.BaseURL
}

// SessionPath returns the configured session file or the per-user default
// under the user config directory.
func (c SessionConfig) SessionPath() (string, error) {
	if c.Path != "" {
		return c.Path, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(dir, "eventbook", "session.json"), nil
}

func LoadClient() (Client, error) {
	var cfg Client
	if err := envconfig.Process("", &cfg); err != nil {
		return Client{}, errors.Wrap(err, "failed to process env config")
	}
	if cfg.API.ConflictStatus < 400 || cfg.API.ConflictStatus > 599 {
		return Client{}, errors.Newf("EVENTBOOK_CONFLICT_STATUS must be a 4xx/5xx code, got %d", cfg.API.ConflictStatus)
	}
	return cfg, nil
}

func LoadServer() (Server, error) {
	var cfg Server
	if err := envconfig.Process("", &cfg); err != nil {
		return Server{}, errors.Wrap(err, "failed to process env config")
	}
	return cfg, nil
}

func NewTestServer() Server {
	return Server{
		Port: "0",
		JWT: JWTConfig{
			Secret:   "test-secret",
			Duration: time.Hour,
		},
		Log: LogConfig{
			Level:  "error", // error level only for tests
			Format: "text",
		},
	}
}
