package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Checkout.Delay)
	assert.Equal(t, "/login", cfg.Routes.LoginPath)
	assert.Equal(t, "/pricing", cfg.Routes.PricingPath)
	assert.Equal(t, StoreFile, cfg.Store.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PRONO_HOME", t.TempDir())

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultConfig().API.BaseURL, cfg.API.BaseURL)
	assert.Equal(t, filepath.Join(os.Getenv("PRONO_HOME"), "credentials.json"), cfg.Store.Path)
}

func TestLoadConfig_FileAndEnvOverrides(t *testing.T) {
	t.Setenv("PRONO_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
api:
  base_url: https://api.prono.example/api
  timeout: 5s
checkout:
  max_attempts: 3
output:
  format: json
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	t.Setenv("PRONO_API_TIMEOUT", "7s")
	t.Setenv("PRONO_LOG_LEVEL", "debug")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.prono.example/api", cfg.API.BaseURL)
	assert.Equal(t, 7*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.Checkout.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Checkout.Delay)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_InvalidEnv(t *testing.T) {
	t.Setenv("PRONO_HOME", t.TempDir())
	t.Setenv("PRONO_API_TIMEOUT", "soon")

	_, err := LoadConfig("")
	assert.Error(t, err)
}

func TestLoadConfig_InvalidFile(t *testing.T) {
	t.Setenv("PRONO_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: xml\n"), 0600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("PRONO_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Path = path
	require.NoError(t, cfg.Set("api.base_url", "https://other.example/api"))
	require.NoError(t, cfg.Save())

	reloaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://other.example/api", reloaded.API.BaseURL)
}

func TestSave_NoPath(t *testing.T) {
	assert.Error(t, DefaultConfig().Save())
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, cfg.Set("api.timeout", "15s"))
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)

	require.NoError(t, cfg.Set("pronostics.page_size", "25"))
	assert.Equal(t, 25, cfg.Pronostics.PageSize)

	assert.Error(t, cfg.Set("api.timeout", "later"))
	assert.Error(t, cfg.Set("output.format", "xml"))
	assert.Error(t, cfg.Set("unknown.key", "x"))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Backend = StoreRedis
	cfg.Store.Redis.Addr = ""
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.API.BaseURL = "localhost:5000"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Checkout.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}
