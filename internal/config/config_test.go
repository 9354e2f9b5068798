package config

import (
	"os"
	"path/filepath"
	"testing"

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
	cfg, err := Load(writeConfig(t, "env: development\n"))
	require.NoError(t, err)

	assert.Equal(t, defaultPort, cfg.Port)
	assert.True(t, cfg.IsDev())
	assert.True(t, cfg.Import.UpdateExisting)
	assert.Equal(t, 8, cfg.Images.TimeoutSeconds)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
port: 8080
env: production
database:
  host: db.internal
  port: 3307
  user: app
  password: hunter2
  name: drinks
images:
  timeout_seconds: 3
  max_bytes: 1048576
`))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.False(t, cfg.IsDev())
	assert.Equal(t, 3, cfg.Images.TimeoutSeconds)
	assert.Equal(t, 1048576, cfg.Images.MaxBytes)

	dsn := cfg.Database.DSNValue()
	assert.Contains(t, dsn, "app:hunter2@tcp(db.internal:3307)/drinks")
	assert.Contains(t, dsn, "parseTime=true")
}

func TestLoadExplicitDSNWins(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
database:
  dsn: "root:pw@tcp(127.0.0.1:3306)/other"
`))
	require.NoError(t, err)
	assert.Equal(t, "root:pw@tcp(127.0.0.1:3306)/other", cfg.Database.DSNValue())
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	_, err := Load(writeConfig(t, "port: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "images:\n  timeout_seconds: 0\n"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "no_such_key: true\n"))
	assert.Error(t, err, "unknown keys are rejected")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	assert.Error(t, err)
}
