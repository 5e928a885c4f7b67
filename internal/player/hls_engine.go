package player

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/grafov/m3u8"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	// maxReloadFailures is how many live playlist reloads in a row may fail before the error turns fatal
	maxReloadFailures = 3
	// holdBackSegments is how many target durations behind the live edge playback starts
	holdBackSegments = 3
	// workerLimit bounds concurrent level playlist fetches
	workerLimit = 4
	// maxLoadRetries is how many times a failed manifest load is retried before the error turns fatal
	maxLoadRetries = 2

	defaultRetryDelay = time.Second

	minReloadInterval     = 500 * time.Millisecond
	defaultReloadInterval = 2 * time.Second
)

// HLSOptions tunes the in-process HLS engine
type HLSOptions struct {
	// Client fetches playlists.  Defaults to a client with a 10 second timeout.
	Client *http.Client
	// StartLevel is the tier to start on.  -1 picks the first tier.
	StartLevel int
	// Now is the clock used for latency estimates
	Now func() time.Time
	// RetryDelay is the minimum time between two manifest loads.  Defaults to one second.
	RetryDelay time.Duration
}

// HLSEngine loads an HLS manifest and its media playlists, keeps live playlists fresh and points the attached media
// surface at the selected tier.  Segment download and decoding are left to the surface.
type HLSEngine struct {
	cfg        EngineConfig
	sink       EventSink
	loader     *playlistLoader
	startLevel int
	now        func() time.Time
	// limiter paces manifest loads, including the restarts asked for through StartLoad
	limiter *rate.Limiter

	destroyed atomic.Bool
	wg        sync.WaitGroup

	mu      sync.Mutex
	source  string
	surface MediaSurface
	levels  []Level
	current int
	// loaded is the URI the surface was last pointed at
	loaded string
	cancel context.CancelFunc
}

// NewHLSEngine creates an engine publishing to sink
func NewHLSEngine(cfg EngineConfig, sink EventSink, opts HLSOptions) *HLSEngine {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &HLSEngine{
		cfg:        cfg,
		sink:       sink,
		loader:     &playlistLoader{client: client},
		startLevel: opts.StartLevel,
		now:        now,
		limiter:    rate.NewLimiter(rate.Every(retryDelay), 1),
		current:    -1,
	}
}

// NewHLSEngineFactory returns an EngineFactory building HLS engines with opts
func NewHLSEngineFactory(opts HLSOptions) EngineFactory {
	return func(cfg EngineConfig, sink EventSink) Engine {
		return NewHLSEngine(cfg, sink, opts)
	}
}

// LoadSource implements Engine
func (e *HLSEngine) LoadSource(url string) {
	e.mu.Lock()
	e.source = url
	e.mu.Unlock()
}

// Attach implements Engine.  Attaching starts loading.  The surface's events are routed through the engine, which
// reports decode failures as media errors.
func (e *HLSEngine) Attach(surface MediaSurface) {
	e.mu.Lock()
	e.surface = surface
	e.loaded = ""
	e.mu.Unlock()
	if surface != nil {
		surface.Bind(surfaceSink{engine: e})
	}
	e.StartLoad()
}

// StartLoad implements Engine.  Any load in progress is abandoned and loading starts over from the manifest.  Loads
// are paced by the retry delay, and a restart keeps the selected tier and the surface's media when the manifest
// still lists them.
func (e *HLSEngine) StartLoad() {
	if e.destroyed.Load() {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.source == "" {
		log.Warn("StartLoad called without a source")
		return
	}
	if e.cancel != nil {
		e.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	e.cancel = cancel

	e.wg.Add(1)
	go e.run(ctx, e.source)
}

// RecoverMediaError implements Engine by reloading the current tier into the surface.  VOD resumes where playback
// stopped.  With nothing to reload the error turns terminal.
func (e *HLSEngine) RecoverMediaError() {
	e.mu.Lock()
	surface := e.surface
	uri := e.currentURI()
	vod := e.currentIsVod()
	if uri != "" {
		e.loaded = uri
	}
	e.mu.Unlock()

	if surface == nil || uri == "" {
		e.publish(EngineError{Fatal: true, Category: ErrorOther, Detail: DetailMediaAttach})
		return
	}

	log.Info("Recovering media", "uri", uri, "resume", vod)
	if vod {
		surface.Resume(uri)
	} else {
		surface.Load(uri)
	}
	surface.Play()
}

// SwitchLevel implements Engine
func (e *HLSEngine) SwitchLevel(index int) {
	e.mu.Lock()
	if index < 0 || index >= len(e.levels) || index == e.current {
		e.mu.Unlock()
		return
	}
	e.current = index
	surface := e.surface
	uri := e.currentURI()
	vod := e.currentIsVod()
	if surface != nil {
		e.loaded = uri
	}
	e.mu.Unlock()

	log.Info("Switching level", "level", index, "uri", uri)
	if surface != nil {
		if vod {
			surface.Resume(uri)
		} else {
			surface.Load(uri)
		}
		surface.Play()
	}
	e.publish(LevelSwitched{Level: index})
}

// Destroy implements Engine.  It does not wait for background loading to stop, use Wait for that.
func (e *HLSEngine) Destroy() {
	if e.destroyed.Swap(true) {
		return
	}
	e.mu.Lock()
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.surface = nil
	e.loaded = ""
	e.mu.Unlock()
}

// Wait blocks until all background loading has stopped.  It must not be called from the goroutine events are
// delivered on.
func (e *HLSEngine) Wait() {
	e.wg.Wait()
}

func (e *HLSEngine) publish(ev Event) {
	if e.destroyed.Load() {
		return
	}
	e.sink.Publish(ev)
}

// currentURI requires e.mu
func (e *HLSEngine) currentURI() string {
	if e.current < 0 || e.current >= len(e.levels) {
		return ""
	}
	return e.levels[e.current].URI
}

// currentIsVod requires e.mu.  Only VOD has a position worth resuming from.
func (e *HLSEngine) currentIsVod() bool {
	return len(e.levels) > 0 && !ClassifyLive(e.levels)
}

// sameLevels reports whether both level sets list the same playlists in the same order
func sameLevels(a, b []Level) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].URI != b[i].URI {
			return false
		}
	}
	return true
}

// surfaceSink forwards surface events to the engine's sink.  A playback failure the surface can come back from is a
// media error for the engine to recover.
type surfaceSink struct {
	engine *HLSEngine
}

func (s surfaceSink) Publish(ev Event) {
	if pbErr, ok := ev.(PlaybackError); ok && !pbErr.Fatal {
		log.Warn("Media surface failed", "error", pbErr.Err)
		ev = EngineError{Fatal: true, Category: ErrorMedia, Detail: DetailMediaDecode}
	}
	s.engine.publish(ev)
}

func (e *HLSEngine) run(ctx context.Context, source string) {
	defer e.wg.Done()

	e.mu.Lock()
	previous, previousLevel := e.levels, e.current
	e.mu.Unlock()

	var (
		levels        []Level
		start         int
		startPlaylist *mediaPlaylist
	)
	for attempt := 0; ; attempt++ {
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
		var err error
		levels, start, startPlaylist, err = e.loadManifest(ctx, source, previous, previousLevel)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}
		ev := toEngineError(err)
		if ev.Category == ErrorNetwork && attempt < maxLoadRetries {
			log.Warn("Manifest load failed, retrying", "url", source, "attempt", attempt+1, "error", err)
			ev.Fatal = false
			e.publish(ev)
			continue
		}
		log.Error("Failed to load manifest", "url", source, "error", err)
		e.publish(ev)
		return
	}

	e.mu.Lock()
	e.levels = levels
	e.current = start
	surface := e.surface
	reload := e.loaded != levels[start].URI
	if surface != nil {
		e.loaded = levels[start].URI
	}
	e.mu.Unlock()

	if surface == nil {
		e.publish(EngineError{Fatal: true, Category: ErrorMedia, Detail: DetailMediaAttach})
		return
	}

	if reload {
		surface.Load(levels[start].URI)
	} else {
		log.Debug("Surface already has the selected tier", "uri", levels[start].URI)
	}
	e.publish(ManifestParsed{Levels: append([]Level(nil), levels...), StartLevel: start})
	e.publish(LevelSwitched{Level: start})

	if startPlaylist.closed {
		log.Debug("Playlist is complete, no reloads needed", "url", source)
		return
	}
	e.reloadLive(ctx, startPlaylist)
}

// loadManifest fetches the manifest and the level details needed to start.  For a master playlist with Workerized
// set every tier's details are fetched concurrently, otherwise just the primary and the start tier.  When the
// manifest lists the same tiers as previous, previousLevel stays selected.
func (e *HLSEngine) loadManifest(ctx context.Context, source string, previous []Level, previousLevel int) ([]Level, int, *mediaPlaylist, error) {
	base, err := url.Parse(source)
	if err != nil {
		return nil, 0, nil, &playlistError{category: ErrorNetwork, detail: DetailManifestLoad, err: err}
	}

	playlist, listType, err := e.loader.fetch(ctx, source, DetailManifestLoad)
	if err != nil {
		return nil, 0, nil, err
	}

	if listType == m3u8.MEDIA {
		media, ok := playlist.(*m3u8.MediaPlaylist)
		if !ok {
			return nil, 0, nil, &playlistError{category: ErrorOther, detail: DetailManifestParsing}
		}
		reduced, err := reduceMediaPlaylist(media)
		if err != nil {
			return nil, 0, nil, err
		}
		details := reduced.details
		return []Level{{URI: source, Details: &details}}, 0, reduced, nil
	}

	master, ok := playlist.(*m3u8.MasterPlaylist)
	if !ok {
		return nil, 0, nil, &playlistError{category: ErrorOther, detail: DetailManifestParsing}
	}
	levels, err := levelsFromMaster(master, base)
	if err != nil {
		return nil, 0, nil, err
	}

	start := e.startLevel
	if sameLevels(previous, levels) && previousLevel >= 0 && previousLevel < len(levels) {
		start = previousLevel
	}
	if start < 0 || start >= len(levels) {
		start = 0
	}

	indexes := []int{0}
	if start != 0 {
		indexes = append(indexes, start)
	}
	if e.cfg.Workerized {
		indexes = indexes[:0]
		for i := range levels {
			indexes = append(indexes, i)
		}
	}

	playlists := make([]*mediaPlaylist, len(levels))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workerLimit)
	for _, i := range indexes {
		i := i
		g.Go(func() error {
			media, err := e.loader.fetchMedia(gctx, levels[i].URI)
			if err != nil {
				return err
			}
			playlists[i] = media
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, nil, err
	}

	for i, p := range playlists {
		if p == nil {
			continue
		}
		details := p.details
		levels[i].Details = &details
	}
	return levels, start, playlists[start], nil
}

// reloadLive refreshes the current tier's playlist and publishes a FragmentLoaded for every new segment
func (e *HLSEngine) reloadLive(ctx context.Context, initial *mediaPlaylist) {
	seen := newFragmentWindow(e.cfg.BackBuffer)
	for _, s := range initial.segments {
		seen.add(s.seq, e.now())
	}

	interval := e.reloadInterval(initial.details.TargetDuration)
	targetDuration := initial.details.TargetDuration
	failures := 0

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		e.mu.Lock()
		uri := e.currentURI()
		e.mu.Unlock()

		media, err := e.loader.fetchMedia(ctx, uri)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			fatal := failures >= maxReloadFailures
			log.Warn("Live playlist reload failed", "uri", uri, "attempt", failures, "fatal", fatal, "error", err)
			ev := toEngineError(err)
			ev.Fatal = fatal
			e.publish(ev)
			if fatal {
				return
			}
			continue
		}
		failures = 0
		if media.details.TargetDuration > 0 {
			targetDuration = media.details.TargetDuration
		}

		now := e.now()
		for _, s := range media.segments {
			if !seen.add(s.seq, now) {
				continue
			}
			e.publish(FragmentLoaded{Latency: estimateLatency(s, targetDuration, now)})
		}

		if media.closed {
			log.Info("Live playlist ended", "uri", uri)
			return
		}
	}
}

func (e *HLSEngine) reloadInterval(target time.Duration) time.Duration {
	interval := target
	if interval <= 0 {
		interval = defaultReloadInterval
	}
	if e.cfg.LowLatency {
		interval /= 2
	}
	if interval < minReloadInterval {
		interval = minReloadInterval
	}
	return interval
}

// estimateLatency computes the distance between the live edge and the playback position from the segment's program
// date time: the time since the segment's end plus the hold back playback keeps from the edge.  Nil without a
// program date time.
func estimateLatency(s segment, targetDuration time.Duration, now time.Time) *float64 {
	if s.programDateTime.IsZero() {
		return nil
	}
	edge := s.programDateTime.Add(time.Duration(s.duration * float64(time.Second)))
	latency := now.Sub(edge) + holdBackSegments*targetDuration
	if latency < 0 {
		latency = 0
	}
	return latencyValue(latency.Seconds())
}

// fragmentWindow remembers which media sequence numbers were already announced, forgetting entries older than the
// back buffer.  Anything at or below the highest forgotten number counts as seen.
type fragmentWindow struct {
	retain    time.Duration
	seen      map[uint64]time.Time
	forgotten uint64
	hasForgot bool
}

func newFragmentWindow(retain time.Duration) *fragmentWindow {
	return &fragmentWindow{retain: retain, seen: make(map[uint64]time.Time)}
}

// add records seq and reports whether it was new
func (w *fragmentWindow) add(seq uint64, now time.Time) bool {
	w.prune(now)
	if w.hasForgot && seq <= w.forgotten {
		return false
	}
	if _, ok := w.seen[seq]; ok {
		return false
	}
	w.seen[seq] = now
	return true
}

func (w *fragmentWindow) prune(now time.Time) {
	if w.retain <= 0 {
		return
	}
	for seq, at := range w.seen {
		if now.Sub(at) <= w.retain {
			continue
		}
		delete(w.seen, seq)
		if !w.hasForgot || seq > w.forgotten {
			w.forgotten = seq
			w.hasForgot = true
		}
	}
}
