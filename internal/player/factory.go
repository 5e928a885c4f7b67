package player

import (
	"net/http"
	"strings"

	"github.com/PizzaHomicide/hlsplay/internal/config"
	"github.com/PizzaHomicide/hlsplay/internal/log"
)

// Backend is everything a controller needs to play streams apart from its status sink and poster
type Backend struct {
	Detector *Detector
	Engines  EngineFactory
	Surface  *MPVSurface
}

// NewBackend builds the playback backend from the player configuration
func NewBackend(cfg *config.Config) *Backend {
	mode := strings.ToLower(cfg.Player.Engine)
	switch mode {
	case EngineModeAuto, EngineModeAdaptive, EngineModeNative:
	default:
		log.Warn("Unknown engine mode, falling back to auto", "engine", mode)
		mode = EngineModeAuto
	}
	log.Info("Creating playback backend", "engine", mode, "mpv", cfg.Player.Path, "start_level", cfg.Player.StartLevel)

	return &Backend{
		Detector: NewDetector(NewRuntimeEnvironment(mode, cfg.Player.Path)),
		Engines: NewHLSEngineFactory(HLSOptions{
			Client:     &http.Client{Timeout: cfg.Player.HTTPTimeout()},
			StartLevel: cfg.Player.StartLevel,
		}),
		Surface: NewMPVSurface(MPVOptions{
			Path: cfg.Player.Path,
			Args: cfg.Player.Args,
		}),
	}
}

// NewController creates a controller wired to this backend
func (b *Backend) NewController(sink StatusSink, poster Poster, opts ...Option) *Controller {
	return NewController(sink, b.Detector, b.Engines, b.Surface, poster, opts...)
}

// Close releases the media surface
func (b *Backend) Close() error {
	return b.Surface.Close()
}
