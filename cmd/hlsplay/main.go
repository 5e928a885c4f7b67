package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/PizzaHomicide/hlsplay/internal/config"
	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/PizzaHomicide/hlsplay/internal/metrics"
	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui"
	"github.com/PizzaHomicide/hlsplay/internal/version"
)

func main() {
	showVersion := flag.Bool("version", false, "Print version information and exit")
	showEnv := flag.Bool("env", false, "List supported environment variables and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.GetVersionInfo())
		return
	}
	if *showEnv {
		for _, env := range config.EnvVarHelp() {
			fmt.Printf("%s\n    %s\n", env[0], env[1])
		}
		return
	}

	cfg, err := config.Load()
	if err != nil {
		// It is unrecoverable if we cannot produce an application config
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	log.SetDefaultLogger(logger)

	log.Info("Starting up hlsplay", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	var observer player.Observer
	if addr := cfg.Metrics.ListenAddr; addr != "" {
		recorder := metrics.New()
		server, err := metrics.Start(addr, recorder)
		if err != nil {
			// Playback works without metrics
			log.Error("Failed to start metrics server", "addr", addr, "error", err)
		} else {
			observer = recorder
			defer func() {
				if err := server.Shutdown(); err != nil {
					log.Warn("Metrics server shutdown failed", "error", err)
				}
			}()
		}
	}

	if err := tui.Run(cfg, observer); err != nil {
		log.Error("Unhandled error while running TUI", "error", err)
		logger.Close()
		os.Exit(1)
	}

	log.Info("hlsplay shutting down.  Goodbye!")
}
