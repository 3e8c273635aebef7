package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigLoadCreatesDefault(t *testing.T) {
	for _, name := range []string{"config.json", "config.yaml", "config.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)

			require.NoError(t, ConfigLoad(path))
			assert.FileExists(t, path)
			assert.Equal(t, Default(), ConfigGet())
			assert.Equal(t, path, ConfigPath())

			// Reload from the written file
			require.NoError(t, ConfigLoad(path))
			assert.Equal(t, Default(), ConfigGet())
		})
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"c.json", "c.yml", "c.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			require.NoError(t, ConfigLoad(path))

			cfg := ConfigGet()
			cfg.LogLevel = "debug"
			cfg.IDFormat = "ksuid"
			cfg.UseColor = false
			require.NoError(t, ConfigSave(cfg))

			require.NoError(t, ConfigLoad(path))
			got := ConfigGet()
			assert.Equal(t, "debug", got.LogLevel)
			assert.Equal(t, "ksuid", got.IDFormat)
			assert.False(t, got.UseColor)
		})
	}
}

func TestConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	t.Setenv("MINDNOSCAPE_LOG_LEVEL", "warn")
	t.Setenv("MINDNOSCAPE_USE_COLOR", "false")

	require.NoError(t, ConfigLoad(path))
	assert.Equal(t, "warn", ConfigGet().LogLevel)
	assert.False(t, ConfigGet().UseColor)

	t.Setenv("MINDNOSCAPE_USE_COLOR", "maybe")
	assert.Error(t, ConfigLoad(path))
}

func TestConfigValidation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"database_type":"postgres","log_folder":"l","log_file":"f","log_level":"info","id_format":"uuid","default_user":"u"}`), 0644))

	err := ConfigLoad(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DatabaseURL")

	cfg := Default()
	cfg.LogLevel = "verbose"
	assert.ErrorContains(t, Validate(cfg), "LogLevel")

	cfg = Default()
	cfg.DatabaseType = "postgres"
	cfg.DatabaseURL = "postgres://localhost/mindnoscape"
	assert.NoError(t, Validate(cfg))
}

func TestConfigLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: [unterminated"), 0644))
	assert.ErrorContains(t, ConfigLoad(path), "failed to parse config file")
}
