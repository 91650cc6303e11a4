package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv removes keys for the duration of the test. envconfig treats a
// set-but-empty variable as present, so t.Setenv(key, "") is not enough.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadClientDefaults(t *testing.T) {
	unsetEnv(t, "EVENTBOOK_API_URL", "EVENTBOOK_AUTH_URL", "EVENTBOOK_HTTP_TIMEOUT",
		"EVENTBOOK_CONFLICT_STATUS", "EVENTBOOK_SESSION_PATH", "LOG_LEVEL", "LOG_FORMAT")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5297", cfg.API.BaseURL)
	assert.Equal(t, "http://localhost:5297", cfg.API.AuthBaseURL())
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, 409, cfg.API.ConflictStatus)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("EVENTBOOK_API_URL", "http://api.test")
	t.Setenv("EVENTBOOK_AUTH_URL", "http://auth.test")
	t.Setenv("EVENTBOOK_HTTP_TIMEOUT", "3s")
	t.Setenv("EVENTBOOK_CONFLICT_STATUS", "422")
	t.Setenv("EVENTBOOK_SESSION_PATH", "/tmp/session.json")

	cfg, err := LoadClient()
	require.NoError(t, err)

	assert.Equal(t, "http://api.test", cfg.API.BaseURL)
	assert.Equal(t, "http://auth.test", cfg.API.AuthBaseURL())
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, 422, cfg.API.ConflictStatus)

	path, err := cfg.Session.SessionPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/session.json", path)
}

func TestLoadClientRejectsNonErrorConflictStatus(t *testing.T) {
	unsetEnv(t, "EVENTBOOK_API_URL")
	t.Setenv("EVENTBOOK_CONFLICT_STATUS", "200")

	_, err := LoadClient()
	require.Error(t, err)
}

func TestSessionPathDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	t.Setenv("HOME", "/tmp/home")

	path, err := SessionConfig{}.SessionPath()
	require.NoError(t, err)
	assert.Equal(t, "session.json", filepath.Base(path))
	assert.Equal(t, "eventbook", filepath.Base(filepath.Dir(path)))
}

func TestLoadServerRequiresSecret(t *testing.T) {
	unsetEnv(t, "JWT_SECRET", "PORT", "JWT_DURATION", "SEED_EVENTS", "SEED_ADMIN_USER")

	_, err := LoadServer()
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "s3cret")
	cfg, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "5297", cfg.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Duration)
	assert.True(t, cfg.Seed.Enabled)
	assert.Equal(t, "admin", cfg.Seed.AdminUser)
}
