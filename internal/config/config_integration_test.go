package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestConfig(t *testing.T) string {
	t.Helper()

	tmpConfigPath := filepath.Join(t.TempDir(), "config.yaml")
	cleanupEnvVars(t)
	setEnv(t, envConfigPath, tmpConfigPath)

	t.Cleanup(func() {
		cleanupEnvVars(t)
	})

	return tmpConfigPath
}

// TestConfigIntegration tests the config package with actual file operations
// This test uses a temporary directory to avoid interfering with real user configs
func TestConfigIntegration(t *testing.T) {
	t.Run("LoadDefaultConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, "auto", config.Player.Engine)
		assert.Equal(t, "mpv", config.Player.Path)
		assert.Equal(t, 0, config.Player.StartLevel)
		assert.Equal(t, 10*time.Second, config.Player.HTTPTimeout())
		assert.NotEmpty(t, config.Streams)
		for _, s := range config.Streams {
			assert.Contains(t, s.URL, ".m3u8")
		}
		assert.Empty(t, config.Metrics.ListenAddr)
		assert.Equal(t, "info", config.Logging.Level)
		assert.NotEmpty(t, config.Logging.FilePath)

		_, err := os.Stat(tmpConfigPath)
		assert.NoError(t, err, "config file should have been created")

		// The 'dynamic' configuration must not be written with the default config
		savedConfig, err := loadFromDisk(tmpConfigPath)
		require.NoError(t, err)
		assert.Empty(t, savedConfig.Logging.FilePath)
	})

	t.Run("SaveAndLoadConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		customConfig := &Config{
			Player: PlayerConfig{
				Engine:             "native",
				Path:               "/usr/local/bin/mpv",
				Args:               "--fullscreen",
				StartLevel:         2,
				HTTPTimeoutSeconds: 3,
			},
			Streams: []StreamConfig{
				{Name: "Local", URL: "http://localhost:8080/live.m3u8"},
			},
			Metrics: MetricsConfig{ListenAddr: "127.0.0.1:9100"},
			Logging: LoggingConfig{
				Level:    "error",
				FilePath: "/var/log/hlsplay.log",
			},
		}

		saveConfig(t, customConfig, tmpConfigPath)
		loadedConfig := loadConfig(t)

		assert.Equal(t, "native", loadedConfig.Player.Engine)
		assert.Equal(t, "/usr/local/bin/mpv", loadedConfig.Player.Path)
		assert.Equal(t, "--fullscreen", loadedConfig.Player.Args)
		assert.Equal(t, 2, loadedConfig.Player.StartLevel)
		assert.Equal(t, 3*time.Second, loadedConfig.Player.HTTPTimeout())
		assert.Equal(t, []StreamConfig{{Name: "Local", URL: "http://localhost:8080/live.m3u8"}}, loadedConfig.Streams)
		assert.Equal(t, "127.0.0.1:9100", loadedConfig.Metrics.ListenAddr)
		assert.Equal(t, "error", loadedConfig.Logging.Level)
		assert.Equal(t, "/var/log/hlsplay.log", loadedConfig.Logging.FilePath)
	})

	t.Run("PartialConfigKeepsDefaults", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		require.NoError(t, os.WriteFile(tmpConfigPath, []byte("logging:\n  level: debug\n"), 0600))

		config := loadConfig(t)

		assert.Equal(t, "debug", config.Logging.Level)
		assert.Equal(t, "auto", config.Player.Engine)
		assert.Equal(t, "mpv", config.Player.Path)
		assert.NotEmpty(t, config.Streams)
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		tmpConfigPath := setupTestConfig(t)
		require.NoError(t, os.WriteFile(tmpConfigPath, []byte("invalid: yaml: ["), 0600))

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("EnvironmentVariableOverrides", func(t *testing.T) {
		setupTestConfig(t)

		setEnv(t, "HLSPLAY_CONFIG_PLAYER_ENGINE", "adaptive")
		setEnv(t, "HLSPLAY_CONFIG_PLAYER_PATH", "/mpv")
		setEnv(t, "HLSPLAY_CONFIG_PLAYER_ARGS", "--fullscreen")
		setEnv(t, "HLSPLAY_CONFIG_PLAYER_START_LEVEL", "3")
		setEnv(t, "HLSPLAY_CONFIG_PLAYER_HTTP_TIMEOUT_SECONDS", "5")
		setEnv(t, "HLSPLAY_CONFIG_METRICS_LISTEN_ADDR", ":9100")
		setEnv(t, "HLSPLAY_CONFIG_LOGGING_LEVEL", "warn")
		setEnv(t, "HLSPLAY_CONFIG_LOGGING_FILE_PATH", "/hlsplay.log")

		config := loadConfig(t)

		assert.Equal(t, "adaptive", config.Player.Engine)
		assert.Equal(t, "/mpv", config.Player.Path)
		assert.Equal(t, "--fullscreen", config.Player.Args)
		assert.Equal(t, 3, config.Player.StartLevel)
		assert.Equal(t, 5*time.Second, config.Player.HTTPTimeout())
		assert.Equal(t, ":9100", config.Metrics.ListenAddr)
		assert.Equal(t, "warn", config.Logging.Level)
		assert.Equal(t, "/hlsplay.log", config.Logging.FilePath)

		// Env var overrides must not be persisted to disk
		unsetEnv(t, "HLSPLAY_CONFIG_LOGGING_LEVEL")

		config = loadConfig(t)

		assert.Equal(t, "info", config.Logging.Level)
	})

	t.Run("InvalidIntegerOverrideIgnored", func(t *testing.T) {
		setupTestConfig(t)
		setEnv(t, "HLSPLAY_CONFIG_PLAYER_START_LEVEL", "high")

		config := loadConfig(t)

		assert.Equal(t, 0, config.Player.StartLevel)
	})

	t.Run("ModifyConfig", func(t *testing.T) {
		setupTestConfig(t)
		config := loadConfig(t)

		assert.Equal(t, "auto", config.Player.Engine)

		err := UpdateConfig(func(config *Config) {
			config.Player.Engine = "native"
		})
		require.NoError(t, err)

		config = loadConfig(t)
		assert.Equal(t, "native", config.Player.Engine)
	})
}

func TestEnvVarHelp(t *testing.T) {
	help := EnvVarHelp()

	require.Len(t, help, len(supportedEnvVars))
	assert.Equal(t, envConfigPath, help[0][0])
	for _, entry := range help {
		assert.True(t, strings.HasPrefix(entry[0], "HLSPLAY_CONFIG_"), entry[0])
		assert.NotEmpty(t, entry[1])
	}
}

func setEnv(t *testing.T, key, value string) {
	t.Helper()
	if err := os.Setenv(key, value); err != nil {
		t.Fatalf("Failed to set environment variable: %v", err)
	}
}

func unsetEnv(t *testing.T, key string) {
	t.Helper()
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("Failed to unset environment variable: %v", err)
	}
}

func saveConfig(t *testing.T, config *Config, configPath string) {
	t.Helper()
	if err := save(config, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}
}

func loadConfig(t *testing.T) *Config {
	t.Helper()
	config, err := Load()
	if err != nil {
		t.Fatalf("Loading of config failed: %v", err)
	}
	return config
}

// Removes any env vars with the HLSPLAY_CONFIG prefix to ensure test isolation
func cleanupEnvVars(t *testing.T) {
	t.Helper()

	for _, envVar := range os.Environ() {
		if key := strings.Split(envVar, "=")[0]; strings.HasPrefix(key, "HLSPLAY_CONFIG") {
			unsetEnv(t, key)
		}
	}
}
