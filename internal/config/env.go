package config

import (
	"os"
	"strconv"
)

const envConfigPath = "HLSPLAY_CONFIG_PATH"

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string)
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  It points to where the config should be loaded from and is handled
		// prior to loading the config.
		name:  envConfigPath,
		desc:  "Sets the path to the config file.  Default: OS-specific config directory",
		apply: func(c *Config, s string) {},
	},
	{
		name:  "HLSPLAY_CONFIG_PLAYER_ENGINE",
		desc:  "Selects the playback engine.  One of: auto, adaptive, native.  Default: auto",
		apply: func(c *Config, s string) { c.Player.Engine = s },
	},
	{
		name:  "HLSPLAY_CONFIG_PLAYER_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) { c.Player.Path = s },
	},
	{
		name:  "HLSPLAY_CONFIG_PLAYER_ARGS",
		desc:  "Sets extra mpv arguments.  Default: None",
		apply: func(c *Config, s string) { c.Player.Args = s },
	},
	{
		name:  "HLSPLAY_CONFIG_PLAYER_START_LEVEL",
		desc:  "Sets the quality tier index playback starts on.  Default: 0",
		apply: func(c *Config, s string) { applyInt(&c.Player.StartLevel, s) },
	},
	{
		name:  "HLSPLAY_CONFIG_PLAYER_HTTP_TIMEOUT_SECONDS",
		desc:  "Sets the playlist request timeout in seconds.  Default: 10",
		apply: func(c *Config, s string) { applyInt(&c.Player.HTTPTimeoutSeconds, s) },
	},
	{
		name:  "HLSPLAY_CONFIG_METRICS_LISTEN_ADDR",
		desc:  "Sets the address the prometheus metrics endpoint listens on.  Default: disabled",
		apply: func(c *Config, s string) { c.Metrics.ListenAddr = s },
	},
	{
		name:  "HLSPLAY_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) { c.Logging.Level = s },
	},
	{
		name:  "HLSPLAY_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) { c.Logging.FilePath = s },
	},
}

// applyInt sets target when s is a valid integer and leaves it alone otherwise
func applyInt(target *int, s string) {
	if v, err := strconv.Atoi(s); err == nil {
		*target = v
	}
}

func applyEnvVarOverrides(c *Config) {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			envVar.apply(c, value)
		}
	}
}

// EnvVarHelp returns the supported environment variables and their descriptions, in display order
func EnvVarHelp() [][2]string {
	help := make([][2]string, 0, len(supportedEnvVars))
	for _, v := range supportedEnvVars {
		help = append(help, [2]string{v.name, v.desc})
	}
	return help
}
