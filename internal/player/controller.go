package player

import (
	"errors"

	"github.com/PizzaHomicide/hlsplay/internal/log"
)

// Controller owns the single playback session.  It selects a strategy, commands the engine and reacts to the
// engine's events.
//
// Controller is not safe for concurrent use.  LoadStream, Destroy, SwitchLevel and HandleEvent must all be called from
// the host's single event loop; engines and surfaces reach that loop through the Poster.
type Controller struct {
	sink      StatusSink
	detector  *Detector
	newEngine EngineFactory
	surface   MediaSurface
	poster    Poster
	observer  Observer
	engineCfg EngineConfig

	state        State
	activity     Activity
	strategy     Strategy
	generation   uint64
	url          string
	engine       Engine
	surfaceInUse bool
	levels       []Level
	currentLevel int
	monitor      *Monitor
}

// Option configures a Controller
type Option func(*Controller)

// WithObserver reports session activity to o
func WithObserver(o Observer) Option {
	return func(c *Controller) {
		if o != nil {
			c.observer = o
		}
	}
}

// WithEngineConfig overrides the configuration adaptive engines are constructed with
func WithEngineConfig(cfg EngineConfig) Option {
	return func(c *Controller) {
		c.engineCfg = cfg
	}
}

// NewController creates a controller in the Idle state
func NewController(sink StatusSink, detector *Detector, engines EngineFactory, surface MediaSurface, poster Poster, opts ...Option) *Controller {
	c := &Controller{
		sink:         sink,
		detector:     detector,
		newEngine:    engines,
		surface:      surface,
		poster:       poster,
		observer:     nopObserver{},
		engineCfg:    DefaultEngineConfig(),
		state:        StateIdle,
		currentLevel: -1,
		monitor:      NewMonitor(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot is a read-only copy of the session
type Snapshot struct {
	State        State
	Activity     Activity
	Strategy     Strategy
	Generation   uint64
	URL          string
	HasEngine    bool
	IsLive       bool
	Levels       []Level
	CurrentLevel int
	Quality      *QualityLevel
	Latency      *float64
	LatencyLabel string
}

// Snapshot returns the current session state
func (c *Controller) Snapshot() Snapshot {
	return Snapshot{
		State:        c.state,
		Activity:     c.activity,
		Strategy:     c.strategy,
		Generation:   c.generation,
		URL:          c.url,
		HasEngine:    c.engine != nil,
		IsLive:       c.monitor.IsLive(),
		Levels:       append([]Level(nil), c.levels...),
		CurrentLevel: c.currentLevel,
		Quality:      c.monitor.Quality(),
		Latency:      c.monitor.Latency(),
		LatencyLabel: c.monitor.LatencyLabel(),
	}
}

// LoadStream validates raw and starts a new session for it.  Invalid input is reported to the status sink and leaves
// any current session alone.
func (c *Controller) LoadStream(raw string) {
	req, err := ParseStreamRequest(raw)
	if err != nil {
		var inputErr *InputError
		if errors.As(err, &inputErr) {
			log.Warn("Rejected stream request", "input", inputErr.Input, "reason", inputErr.Reason)
		}
		c.sink.SetStatus(err.Error(), StyleError)
		return
	}

	c.Destroy()

	generation := c.generation
	c.url = req.URL
	c.transition(StateConnecting)
	c.sink.SetLoadingVisible(true)
	c.sink.SetStatus(msgConnecting, StyleNone)

	c.strategy = c.detector.Detect()
	c.observer.SessionStarted(c.strategy)
	log.Info("Loading stream", "url", req.URL, "strategy", c.strategy, "generation", generation)

	sink := generationSink{generation: generation, poster: c.poster}
	switch c.strategy {
	case StrategyAdaptive:
		c.surface.Bind(sink)
		c.surfaceInUse = true
		c.engine = c.newEngine(c.engineCfg, sink)
		c.engine.LoadSource(req.URL)
		c.engine.Attach(c.surface)
	case StrategyNative:
		c.surface.Bind(sink)
		c.surfaceInUse = true
		c.surface.Load(req.URL)
		c.surface.Play()
	default:
		log.Warn("No playback strategy available", "url", req.URL)
		c.sink.SetStatus(msgUnsupported, StyleError)
		c.sink.SetLoadingVisible(false)
		c.url = ""
		c.transition(StateTerminated)
	}
}

// Destroy tears down the current session.  It is safe to call at any time, including with no session.
func (c *Controller) Destroy() {
	if c.engine != nil {
		c.engine.Destroy()
		c.engine = nil
	}
	if c.surfaceInUse {
		c.surface.Reset()
		c.surfaceInUse = false
	}

	// Anything still in flight from the old engine or surface carries the previous generation
	c.generation++

	c.levels = nil
	c.currentLevel = -1
	c.monitor = NewMonitor()
	c.activity = ActivityNone
	c.sink.SetLiveBadgeVisible(false)
	c.sink.SetQualityLabel(NoValue)
	c.sink.SetLatencyLabel(NoValue)

	if c.state != StateTerminated {
		c.transition(StateTerminated)
	}
}

// SwitchLevel asks the engine to move delta tiers up (positive) or down (negative).  The quality label follows once
// the engine reports the switch.
func (c *Controller) SwitchLevel(delta int) {
	if c.engine == nil || len(c.levels) == 0 || !permitted(c.state, TriggerLevelSwitched) {
		return
	}

	target := c.currentLevel + delta
	if target < 0 {
		target = 0
	}
	if target >= len(c.levels) {
		target = len(c.levels) - 1
	}
	if target == c.currentLevel {
		return
	}

	log.Info("Switching quality level", "from", c.currentLevel, "to", target)
	c.engine.SwitchLevel(target)
}

// HandleEvent processes one engine or surface event.  Events from an older session are dropped.
func (c *Controller) HandleEvent(generation uint64, ev Event) {
	if generation != c.generation {
		log.Debug("Dropping event from stale session", "event", eventName(ev), "event_generation", generation, "generation", c.generation)
		return
	}

	trigger, ok := triggerFor(ev)
	if !ok {
		log.Warn("Ignoring unknown event", "event", eventName(ev))
		return
	}
	if !permitted(c.state, trigger) {
		log.Debug("Event not accepted in current state", "event", eventName(ev), "state", c.state)
		return
	}

	log.Trace("Handling event", "event", eventName(ev), "state", c.state)

	switch e := ev.(type) {
	case ManifestParsed:
		c.onManifestParsed(e)
	case LevelSwitched:
		c.onLevelSwitched(e)
	case FragmentLoaded:
		c.onFragmentLoaded(e)
	case EngineError:
		c.onEngineError(e)
	case Playing:
		c.onPlaying()
	case Buffering:
		c.onBuffering()
	case PlaybackError:
		c.onPlaybackError(e)
	}
}

func (c *Controller) onManifestParsed(e ManifestParsed) {
	c.levels = append([]Level(nil), e.Levels...)
	live := ClassifyLive(c.levels)
	c.monitor.SetLive(live)

	if live {
		c.transition(StateLive)
	} else {
		c.transition(StateVod)
	}
	c.sink.SetLiveBadgeVisible(live)
	log.Info("Manifest parsed", "levels", len(c.levels), "live", live, "start_level", e.StartLevel)

	c.surface.Play()

	c.currentLevel = e.StartLevel
	c.updateQuality()
}

func (c *Controller) onLevelSwitched(e LevelSwitched) {
	c.currentLevel = e.Level
	c.updateQuality()
}

func (c *Controller) updateQuality() {
	q, ok := c.monitor.UpdateQuality(c.levels, c.currentLevel)
	if !ok {
		return
	}
	c.sink.SetQualityLabel(q.Label())
}

func (c *Controller) onFragmentLoaded(e FragmentLoaded) {
	c.sink.SetLatencyLabel(c.monitor.UpdateLatency(e.Latency))
	if latency := c.monitor.Latency(); latency != nil && e.Latency != nil {
		c.observer.LatencyObserved(*latency)
	}
}

func (c *Controller) onEngineError(e EngineError) {
	c.observer.EngineError(e.Category, e.Fatal)

	decision, ok := Classify(e)
	if !ok {
		log.Warn("Non-fatal engine error", "category", e.Category, "detail", e.Detail)
		return
	}

	log.Error("Fatal engine error", "category", e.Category, "detail", e.Detail, "action", decision.Action)
	c.observer.Recovery(decision.Action)

	if decision.Action == ActionTerminate {
		c.sink.SetStatus(decision.Reason, StyleError)
		c.Destroy()
		c.sink.SetLoadingVisible(false)
		return
	}
	if c.engine == nil {
		log.Warn("No engine to recover", "action", decision.Action)
		return
	}

	resume := c.state
	c.transition(StateRecovering)
	c.sink.SetStatus(decision.Reason, StyleError)
	switch decision.Action {
	case ActionRetry:
		c.engine.StartLoad()
	case ActionRecoverMedia:
		c.engine.RecoverMediaError()
	}
	c.transition(resume)
}

func (c *Controller) onPlaying() {
	c.activity = ActivityPlaying
	c.sink.SetLoadingVisible(false)
	c.sink.SetStatus(msgPlaying, StyleConnected)
}

func (c *Controller) onBuffering() {
	c.activity = ActivityBuffering
	c.sink.SetStatus(msgBuffering, StyleNone)
}

func (c *Controller) onPlaybackError(e PlaybackError) {
	log.Error("Playback error", "error", e.Err, "fatal", e.Fatal)

	if e.Fatal {
		detail := msgPlaybackError
		if e.Err != nil {
			detail = e.Err.Error()
		}
		c.sink.SetStatus(msgFatalPrefix+detail, StyleError)
		c.Destroy()
		c.sink.SetLoadingVisible(false)
		return
	}

	c.sink.SetLoadingVisible(false)
	c.sink.SetStatus(msgPlaybackError, StyleError)
}

func (c *Controller) transition(to State) {
	from := c.state
	if from == to {
		return
	}
	c.state = to
	log.Debug("Session state changed", "from", from, "to", to, "generation", c.generation)
	c.observer.StateChanged(from, to)
}
