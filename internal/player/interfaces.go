package player

import (
	"time"
)

// EngineConfig holds the fixed construction parameters handed to an adaptive engine
type EngineConfig struct {
	// Workerized moves playlist fetching and decoding for all tiers onto worker goroutines
	Workerized bool
	// LowLatency shortens the live playlist reload interval
	LowLatency bool
	// BackBuffer is how much already-played media the engine keeps track of
	BackBuffer time.Duration
}

// DefaultEngineConfig returns the configuration every adaptive engine is constructed with
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Workerized: true,
		LowLatency: true,
		BackBuffer: 90 * time.Second,
	}
}

// Engine is the command interface of an adaptive streaming engine.  All commands are fire-and-forget; their
// outcome is observed later through events published on the engine's EventSink.
type Engine interface {
	// LoadSource sets the manifest URL to load
	LoadSource(url string)

	// Attach binds the engine to a media surface.  Attaching starts loading the source.
	Attach(surface MediaSurface)

	// StartLoad (re)starts manifest and playlist loading
	StartLoad()

	// RecoverMediaError asks the engine to recover from a media/decode failure
	RecoverMediaError()

	// SwitchLevel selects the quality tier with the given index
	SwitchLevel(index int)

	// Destroy stops the engine.  No events are published after Destroy returns.
	Destroy()
}

// EngineFactory constructs an engine publishing its events to sink
type EngineFactory func(cfg EngineConfig, sink EventSink) Engine

// MediaSurface is the playback target an engine attaches to.  Used directly for native playback.
type MediaSurface interface {
	// Bind routes the surface's playback events to sink, replacing any previous binding
	Bind(sink EventSink)

	// Load points the surface at a new media URL
	Load(url string)

	// Resume points the surface at url, continuing from the current playback position
	Resume(url string)

	// Play requests playback.  Rejections are published as PlaybackError events.
	Play()

	// Reset stops playback and clears the current media
	Reset()

	// Close releases the surface for good
	Close() error
}

// EventSink receives events from an engine or media surface
type EventSink interface {
	Publish(ev Event)
}

// Poster hands a generation-tagged event to the host's event loop, which must deliver it to
// Controller.HandleEvent on its single dispatch goroutine, in the order posted.  Post may be called from any
// goroutine, including the event loop itself, and must not block.
type Poster interface {
	Post(generation uint64, ev Event)
}

// PosterFunc adapts a function to the Poster interface
type PosterFunc func(generation uint64, ev Event)

// Post calls f(generation, ev)
func (f PosterFunc) Post(generation uint64, ev Event) {
	f(generation, ev)
}

// generationSink tags everything published through it with the session generation it was created for
type generationSink struct {
	generation uint64
	poster     Poster
}

func (s generationSink) Publish(ev Event) {
	s.poster.Post(s.generation, ev)
}
