package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2333, cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 5, cfg.Versions.RetentionLimit)
	assert.Equal(t, 2*time.Second, cfg.AutosaveDebounce())
	assert.Equal(t, 30*time.Second, cfg.AutosaveBackground())
	assert.Contains(t, cfg.DSN(), "tcp(127.0.0.1:3306)/inkstone")
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
port: 8080
env: production
database:
  dsn: "user:pass@tcp(db:3306)/blog?parseTime=True"
autosave:
  debounce_ms: 500
  background_ms: 60000
versions:
  retention_limit: 10
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "production", cfg.Env)
	assert.Equal(t, "user:pass@tcp(db:3306)/blog?parseTime=True", cfg.DSN())
	assert.Equal(t, 500*time.Millisecond, cfg.AutosaveDebounce())
	assert.Equal(t, time.Minute, cfg.AutosaveBackground())
	assert.Equal(t, 10, cfg.Versions.RetentionLimit)
}

func TestLoadBackgroundFloor(t *testing.T) {
	path := writeConfig(t, `
autosave:
  background_ms: 1000
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.AutosaveBackground())
}

func TestLoadInvalidPort(t *testing.T) {
	path := writeConfig(t, "port: 99999\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
