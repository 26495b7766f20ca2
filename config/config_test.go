package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, "uz", cfg.Api.Locale)
	assert.Equal(t, 10, cfg.Api.PageSize)
	assert.Equal(t, ":1899", cfg.Web.Listen)
}

func TestLoadConfigFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bozoradmin.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
system:
  workdir: /tmp/bozoradmin
api:
  locale: ru
  page_size: 25
web:
  listen: ":8080"
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/bozoradmin", cfg.System.Workdir)
	assert.Equal(t, "ru", cfg.Api.Locale)
	assert.Equal(t, 25, cfg.Api.PageSize)
	assert.Equal(t, ":8080", cfg.Web.Listen)
	assert.Equal(t, 30*time.Second, cfg.Api.Timeout, "unset values keep their defaults")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("BOZORADMIN_API_URL", "https://staging.example.uz/api/v1/admin")
	t.Setenv("BOZORADMIN_WEB_SECRET", "s3cret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.uz/api/v1/admin", cfg.Api.BaseURL)
	assert.Equal(t, "s3cret", cfg.Web.Secret)
}

func TestLoadConfigRejectsBadYaml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}
