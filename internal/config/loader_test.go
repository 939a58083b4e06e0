package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points XDG lookups at empty temp dirs so a developer's own config
// never leaks into tests.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(home))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("LoadDefaults", func(t *testing.T) {
		isolate(t)

		cfg, err := Load(ctx)
		require.NoError(t, err)
		require.NotNil(t, cfg)

		// Verify client defaults
		assert.Equal(t, "", cfg.Client.APIKey)
		assert.Equal(t, "https://api.openrouteservice.org", cfg.Client.BaseURL)
		assert.Equal(t, time.Duration(0), cfg.Client.Timeout)
		assert.Equal(t, 60*time.Second, cfg.Client.RetryTimeout)
		assert.Equal(t, 40, cfg.Client.QueriesPerMinute)
		assert.False(t, cfg.Client.RetryOverQueryLimit)
		assert.True(t, cfg.Client.PersistQuota)

		// Verify server defaults
		assert.Equal(t, "localhost", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
		assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
		assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
		assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)

		// Verify relay defaults
		assert.Equal(t, 5.0, cfg.Relay.PerClientRate)
		assert.Equal(t, 10, cfg.Relay.PerClientBurst)
		assert.Equal(t, "X-Client-ID", cfg.Relay.ClientHeader)
		assert.Equal(t, int64(1<<20), cfg.Relay.MaxBodyBytes)

		// Verify store defaults
		assert.Equal(t, "libsql", cfg.Store.Driver)
		assert.Equal(t, DefaultStorePath(), cfg.Store.Path)
		assert.Equal(t, "", cfg.Store.URL)

		// Verify logging and metrics defaults
		assert.Equal(t, "info", cfg.Logging.Level)
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9090, cfg.Metrics.Port)
		assert.True(t, cfg.Health.Enabled)
	})

	t.Run("RuntimeOverrides", func(t *testing.T) {
		isolate(t)

		overrides := map[string]any{
			"client": map[string]any{
				"queries_per_minute": 100,
				"retry_timeout":      "2m",
			},
			"logging": map[string]any{
				"level": "debug",
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)

		assert.Equal(t, 100, cfg.Client.QueriesPerMinute)
		assert.Equal(t, 2*time.Minute, cfg.Client.RetryTimeout)
		assert.Equal(t, "debug", cfg.Logging.Level)

		// Verify non-overridden values remain default
		assert.Equal(t, "SIMPLE", cfg.Logging.Profile)
		assert.Equal(t, 9090, cfg.Metrics.Port)
	})

	t.Run("EnvOverrides", func(t *testing.T) {
		isolate(t)
		t.Setenv("ROUTELENS_API_KEY", "env-key")
		t.Setenv("ROUTELENS_PORT", "3000")
		t.Setenv("ROUTELENS_LOG_LEVEL", "warn")
		t.Setenv("ROUTELENS_METRICS_ENABLED", "false")
		t.Setenv("ROUTELENS_RETRY_OVER_QUERY_LIMIT", "true")
		t.Setenv("ROUTELENS_TIMEOUT", "15s")

		cfg, err := Load(ctx)
		require.NoError(t, err)

		assert.Equal(t, "env-key", cfg.Client.APIKey)
		assert.Equal(t, 3000, cfg.Server.Port)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.False(t, cfg.Metrics.Enabled)
		assert.True(t, cfg.Client.RetryOverQueryLimit)
		assert.Equal(t, 15*time.Second, cfg.Client.Timeout)
	})

	t.Run("ConfigPrecedence", func(t *testing.T) {
		isolate(t)
		t.Setenv("ROUTELENS_PORT", "4000")

		overrides := map[string]any{
			"server": map[string]any{
				"port": 5000,
			},
		}

		cfg, err := Load(ctx, overrides)
		require.NoError(t, err)

		// Runtime override should take precedence over env var
		assert.Equal(t, 5000, cfg.Server.Port)
	})

	t.Run("ExplicitFile", func(t *testing.T) {
		isolate(t)

		path := filepath.Join(t.TempDir(), "routelens.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
client:
  api_key: file-key
  base_url: http://localhost:8082/ors
  queries_per_minute: 20
server:
  port: 7000
`), 0600))

		cfg, err := LoadWithOptions(ctx, Options{File: path})
		require.NoError(t, err)

		assert.Equal(t, "file-key", cfg.Client.APIKey)
		assert.Equal(t, "http://localhost:8082/ors", cfg.Client.BaseURL)
		assert.Equal(t, 20, cfg.Client.QueriesPerMinute)
		assert.Equal(t, 7000, cfg.Server.Port)
		assert.Equal(t, 60*time.Second, cfg.Client.RetryTimeout)
	})

	t.Run("MissingExplicitFile", func(t *testing.T) {
		isolate(t)

		_, err := LoadWithOptions(ctx, Options{File: filepath.Join(t.TempDir(), "missing.yaml")})
		require.Error(t, err)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		isolate(t)

		_, err := Load(ctx, map[string]any{"client": map[string]any{"queries_per_minute": -1}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "queries_per_minute")
	})
}

func TestGetConfig(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	retrieved := GetConfig()
	require.NotNil(t, retrieved)
	assert.Equal(t, cfg.Server.Port, retrieved.Server.Port)
	assert.Equal(t, cfg.Client.QueriesPerMinute, retrieved.Client.QueriesPerMinute)
}

func TestEnvSpecs(t *testing.T) {
	specs := getEnvSpecs()
	assert.NotEmpty(t, specs)

	envVarNames := make(map[string]bool)
	for _, spec := range specs {
		envVarNames[spec.Name] = true
	}

	assert.True(t, envVarNames["ROUTELENS_API_KEY"], "API_KEY env var must be mapped")
	assert.True(t, envVarNames["ROUTELENS_LOG_LEVEL"], "LOG_LEVEL env var must be mapped")
	assert.True(t, envVarNames["ROUTELENS_PORT"], "PORT env var must be mapped")
	assert.True(t, envVarNames["ROUTELENS_METRICS_PORT"], "METRICS_PORT env var must be mapped")
	assert.True(t, envVarNames["ROUTELENS_DB_PATH"], "DB_PATH env var must be mapped")
}

func TestRedacted(t *testing.T) {
	cfg := Config{
		Client: ClientConfig{APIKey: "5b3ce3597851110001cf6248"},
		Store:  StoreConfig{AuthToken: "abc"},
	}

	redacted := cfg.Redacted()
	assert.Equal(t, "5b3c****", redacted.Client.APIKey)
	assert.Equal(t, "****", redacted.Store.AuthToken)
	assert.Equal(t, "5b3ce3597851110001cf6248", cfg.Client.APIKey)
}

func TestWriteStarter(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background(), map[string]any{
		"client": map[string]any{"api_key": "secret"},
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	require.NoError(t, WriteStarter(path, *cfg, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "queries_per_minute: 40")
	assert.Contains(t, string(data), "retry_timeout: 1m0s")
	assert.NotContains(t, string(data), "secret")

	err = WriteStarter(path, *cfg, false)
	require.ErrorIs(t, err, ErrConfigExists)
	require.NoError(t, WriteStarter(path, *cfg, true))

	reloaded, err := LoadWithOptions(context.Background(), Options{File: path})
	require.NoError(t, err)
	assert.Equal(t, cfg.Client.RetryTimeout, reloaded.Client.RetryTimeout)
	assert.Equal(t, cfg.Server.Port, reloaded.Server.Port)
}
