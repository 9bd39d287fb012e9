package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnines/repsly-export/pkg/errors"
)

func TestLoader_MinimalConfigDefaults(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	yamlContent := `
api:
  username: acme
  password: secret
`
	cfg, err := DefaultLoader().Parse([]byte(yamlContent))
	require.NoError(t, err)

	assert.Equal(t, "https://api.repsly.com/v3/export", cfg.API.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, ".", cfg.Output.Dir)
	assert.Equal(t, Cursors{Backend: "file", Path: "repsly_cursors.yaml"}, cfg.Cursors)
	assert.Equal(t, 30, cfg.Export.WindowDays)
	assert.Equal(t, Log{Level: "info", Format: "text"}, cfg.Log)
}

func TestLoader_CredentialsFromEnvironment(t *testing.T) {
	t.Setenv(EnvUsername, "env-user")
	t.Setenv(EnvPassword, "env-pass")

	cfg, err := DefaultLoader().Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, "env-user", cfg.API.Username)
	assert.Equal(t, "env-pass", cfg.API.Password)
}

func TestLoader_ExpandsVariables(t *testing.T) {
	t.Setenv("ACME_USER", "expanded")
	t.Setenv(EnvPassword, "pw")

	cfg, err := DefaultLoader().Parse([]byte("api:\n  username: ${ACME_USER}\n  timeout: 5s\n"))
	require.NoError(t, err)
	assert.Equal(t, "expanded", cfg.API.Username)
	assert.Equal(t, 5*time.Second, cfg.API.Timeout)
}

func TestLoader_MissingCredentials(t *testing.T) {
	t.Setenv(EnvUsername, "")
	t.Setenv(EnvPassword, "")

	_, err := DefaultLoader().Parse(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCredentials), "got %v", err)
}

func TestLoader_InvalidSettings(t *testing.T) {
	t.Setenv(EnvUsername, "u")
	t.Setenv(EnvPassword, "p")

	cases := map[string]string{
		"backend":     "cursors:\n  backend: redis\n",
		"concurrency": "export:\n  concurrency: -1\n",
		"log format":  "log:\n  format: xml\n",
		"schedule":    "schedule: not a cron\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DefaultLoader().Parse([]byte(content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration), "got %v", err)
		})
	}
}

func TestLoader_SQLiteDefaultPath(t *testing.T) {
	t.Setenv(EnvUsername, "u")
	t.Setenv(EnvPassword, "p")

	cfg, err := DefaultLoader().Parse([]byte("cursors:\n  backend: sqlite\n"))
	require.NoError(t, err)
	assert.Equal(t, "repsly_cursors.db", cfg.Cursors.Path)
}

func TestLoader_LoadFile(t *testing.T) {
	t.Setenv(EnvUsername, "u")
	t.Setenv(EnvPassword, "p")
	dir := t.TempDir()

	_, err := DefaultLoader().Load(filepath.Join(dir, "missing.yaml"), true)
	require.NoError(t, err, "optional missing file should yield defaults")
	_, err = DefaultLoader().Load(filepath.Join(dir, "missing.yaml"), false)
	require.Error(t, err, "required missing file")

	path := filepath.Join(dir, "repsly.yaml")
	content := "export:\n  endpoints: [clients, visits]\n  concurrency: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := DefaultLoader().Load(path, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"clients", "visits"}, cfg.Export.Endpoints)
	assert.Equal(t, 2, cfg.Export.Concurrency)
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadEnvFile(filepath.Join(dir, "absent.env")), "missing env file is ignored")

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REPSLY_TEST_ONLY=from-file\n"), 0o644))
	t.Setenv("REPSLY_TEST_ONLY", "")
	os.Unsetenv("REPSLY_TEST_ONLY")

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "from-file", os.Getenv("REPSLY_TEST_ONLY"))
}
