package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Player  PlayerConfig   `yaml:"player,omitempty"`
	Streams []StreamConfig `yaml:"streams,omitempty"`
	Metrics MetricsConfig  `yaml:"metrics,omitempty"`
	Logging LoggingConfig  `yaml:"logging,omitempty"`
}

// PlayerConfig contains playback settings
type PlayerConfig struct {
	Engine             string `yaml:"engine,omitempty"` // "auto", "adaptive", "native"
	Path               string `yaml:"path,omitempty"`
	Args               string `yaml:"args,omitempty"`
	StartLevel         int    `yaml:"start_level,omitempty"`
	HTTPTimeoutSeconds int    `yaml:"http_timeout_seconds,omitempty"`
}

// StreamConfig is a sample stream offered in the UI
type StreamConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// MetricsConfig contains prometheus endpoint settings
type MetricsConfig struct {
	// ListenAddr of the metrics HTTP server.  Empty disables it.
	ListenAddr string `yaml:"listen_addr,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty"`
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file, overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
func Load() (*Config, error) {
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	applyDynamicDefaults(cfg)

	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	applyEnvVarOverrides(cfg)

	return cfg, nil
}

// HTTPTimeout returns the playlist request timeout
func (p PlayerConfig) HTTPTimeout() time.Duration {
	seconds := p.HTTPTimeoutSeconds
	if seconds <= 0 {
		seconds = defaultHTTPTimeoutSeconds
	}
	return time.Duration(seconds) * time.Second
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the YAML config from disk and returns the unmarshalled Config
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	updateFn(cfg)

	return save(cfg, configPath)
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv(envConfigPath)
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, appName, "config.yaml"), nil
}

const (
	appName                   = "hlsplay"
	defaultHTTPTimeoutSeconds = 10
)

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	return &Config{
		Player: PlayerConfig{
			Engine:             "auto",
			Path:               "mpv",
			HTTPTimeoutSeconds: defaultHTTPTimeoutSeconds,
		},
		Streams: []StreamConfig{
			{Name: "Big Buck Bunny (VOD)", URL: "https://test-streams.mux.dev/x36xhzz/x36xhzz.m3u8"},
			{Name: "Apple fMP4 bipbop (VOD)", URL: "https://devstreaming-cdn.apple.com/videos/streaming/examples/img_bipbop_adv_example_fmp4/master.m3u8"},
			{Name: "Tears of Steel (VOD)", URL: "https://demo.unified-streaming.com/k8s/features/stable/video/tears-of-steel/tears-of-steel.ism/.m3u8"},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	logName := appName + ".log"
	homedir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", logName)
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\hlsplay\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, appName, "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", appName, "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/hlsplay
		basePath = filepath.Join(homedir, "Library", "Logs", appName)
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, appName, "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", appName, "logs")
		}
	}

	if err := os.MkdirAll(basePath, 0700); err != nil {
		return filepath.Join(".", logName)
	}
	return filepath.Join(basePath, logName)
}
