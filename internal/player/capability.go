package player

import (
	"os/exec"
	"strings"
)

// HLSMimeType is the media type asked of the native decoder
const HLSMimeType = "application/vnd.apple.mpegurl"

// Strategy is the way a stream gets played
type Strategy int

const (
	StrategyUnsupported Strategy = iota
	StrategyAdaptive
	StrategyNative
)

func (s Strategy) String() string {
	switch s {
	case StrategyAdaptive:
		return "adaptive"
	case StrategyNative:
		return "native"
	default:
		return "unsupported"
	}
}

// Environment answers capability queries about the runtime
type Environment interface {
	IsAdaptiveEngineAvailable() bool
	CanNativelyPlay(mimeType string) bool
}

// Detector picks a playback strategy.  The adaptive engine wins whenever it is available since it gives
// telemetry and low-latency mode, native playback is the fallback.
type Detector struct {
	env Environment
}

// NewDetector creates a detector querying env
func NewDetector(env Environment) *Detector {
	return &Detector{env: env}
}

// Detect returns the strategy to use.  It never fails, StrategyUnsupported is the terminal answer.
func (d *Detector) Detect() Strategy {
	if d.env.IsAdaptiveEngineAvailable() {
		return StrategyAdaptive
	}
	if d.env.CanNativelyPlay(HLSMimeType) {
		return StrategyNative
	}
	return StrategyUnsupported
}

// Engine modes accepted in the player config
const (
	EngineModeAuto     = "auto"
	EngineModeAdaptive = "adaptive"
	EngineModeNative   = "native"
)

// RuntimeEnvironment reports capabilities based on the configured engine mode and the presence of the mpv binary.
// Both strategies render through mpv, so without it nothing is playable.
type RuntimeEnvironment struct {
	mode     string
	mpvPath  string
	lookPath func(string) (string, error)
}

// NewRuntimeEnvironment creates an environment for the given engine mode and mpv path
func NewRuntimeEnvironment(mode, mpvPath string) *RuntimeEnvironment {
	if mpvPath == "" {
		mpvPath = "mpv"
	}
	return &RuntimeEnvironment{
		mode:     strings.ToLower(mode),
		mpvPath:  mpvPath,
		lookPath: exec.LookPath,
	}
}

// IsAdaptiveEngineAvailable reports whether the in-process HLS engine may be used
func (e *RuntimeEnvironment) IsAdaptiveEngineAvailable() bool {
	if e.mode == EngineModeNative {
		return false
	}
	return e.hasMPV()
}

// CanNativelyPlay reports whether mpv can be handed the stream directly
func (e *RuntimeEnvironment) CanNativelyPlay(mimeType string) bool {
	if e.mode == EngineModeAdaptive {
		return false
	}
	switch strings.ToLower(mimeType) {
	case HLSMimeType, "application/x-mpegurl", "audio/mpegurl":
		return e.hasMPV()
	default:
		return false
	}
}

func (e *RuntimeEnvironment) hasMPV() bool {
	_, err := e.lookPath(e.mpvPath)
	return err == nil
}
