package player

import (
	"fmt"
	"time"
)

// ErrorCategory classifies an engine error by the subsystem that raised it
type ErrorCategory string

const (
	// ErrorNetwork covers manifest and playlist transport failures
	ErrorNetwork ErrorCategory = "network"
	// ErrorMedia covers decode and media attach failures
	ErrorMedia ErrorCategory = "media"
	// ErrorOther covers everything else, such as unparseable or empty playlists
	ErrorOther ErrorCategory = "other"
)

// Level describes one quality tier of a stream
type Level struct {
	// Height is the vertical resolution in pixels.  Zero when unknown.
	Height int
	// Bitrate in bits per second.  Zero when unknown.
	Bitrate int
	// URI of the tier's media playlist
	URI string
	// Details is nil until the tier's media playlist has been loaded
	Details *LevelDetails
}

// LevelDetails is the metadata of a loaded media playlist
type LevelDetails struct {
	// EndSequence is the media sequence number of the last segment when the playlist carries an end marker.
	// Nil for playlists that are still growing.
	EndSequence    *uint64
	TargetDuration time.Duration
}

// Event is one asynchronous notification from an engine or media surface.  The set of implementations is closed.
type Event interface {
	isEvent()
}

// ManifestParsed is published once the manifest and the tier details needed to start have been loaded
type ManifestParsed struct {
	Levels []Level
	// StartLevel is the tier the engine starts on, -1 when undetermined
	StartLevel int
}

// LevelSwitched is published when the active quality tier changes
type LevelSwitched struct {
	Level int
}

// FragmentLoaded is published for every newly available media fragment
type FragmentLoaded struct {
	// Latency is the engine's estimate, in seconds, of the distance between the live edge and the playback
	// position.  Nil when the engine cannot estimate it.
	Latency *float64
}

// EngineError is published for every error the engine encounters
type EngineError struct {
	Fatal    bool
	Category ErrorCategory
	Detail   string
}

// Playing is published when media starts or resumes rendering
type Playing struct{}

// Buffering is published when playback stalls waiting for data
type Buffering struct{}

// PlaybackError is published by a media surface when it rejects or fails playback
type PlaybackError struct {
	Err   error
	Fatal bool
}

func (ManifestParsed) isEvent() {}
func (LevelSwitched) isEvent()  {}
func (FragmentLoaded) isEvent() {}
func (EngineError) isEvent()    {}
func (Playing) isEvent()        {}
func (Buffering) isEvent()      {}
func (PlaybackError) isEvent()  {}

func (e EngineError) Error() string {
	return fmt.Sprintf("%s error (fatal=%t): %s", e.Category, e.Fatal, e.Detail)
}

// eventName returns a short name for logging
func eventName(ev Event) string {
	switch ev.(type) {
	case ManifestParsed:
		return "manifest_parsed"
	case LevelSwitched:
		return "level_switched"
	case FragmentLoaded:
		return "fragment_loaded"
	case EngineError:
		return "engine_error"
	case Playing:
		return "playing"
	case Buffering:
		return "buffering"
	case PlaybackError:
		return "playback_error"
	default:
		return fmt.Sprintf("%T", ev)
	}
}

// latencyValue is a helper for building FragmentLoaded events
func latencyValue(seconds float64) *float64 {
	return &seconds
}
