package player

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineSession runs a controller on real HLS engines, delivering posted events on the test goroutine
type engineSession struct {
	t        *testing.T
	status   *fakeStatus
	surface  *fakeSurface
	observer *fakeObserver
	engines  []*HLSEngine
	posted   chan postedEvent
	c        *Controller
}

func newEngineSession(t *testing.T, opts HLSOptions) *engineSession {
	t.Helper()
	s := &engineSession{
		t:        t,
		status:   &fakeStatus{},
		surface:  &fakeSurface{},
		observer: &fakeObserver{},
		posted:   make(chan postedEvent, 1000),
	}
	factory := NewHLSEngineFactory(opts)
	engines := func(cfg EngineConfig, sink EventSink) Engine {
		e := factory(cfg, sink).(*HLSEngine)
		s.engines = append(s.engines, e)
		return e
	}
	poster := PosterFunc(func(generation uint64, ev Event) {
		s.posted <- postedEvent{generation: generation, event: ev}
	})
	s.c = NewController(s.status, NewDetector(&fakeEnvironment{adaptive: true}), engines, s.surface, poster, WithObserver(s.observer))
	t.Cleanup(func() {
		s.c.Destroy()
		for _, e := range s.engines {
			e.Wait()
		}
	})
	return s
}

// deliverFor handles posted events until d has passed
func (s *engineSession) deliverFor(d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case p := <-s.posted:
			s.c.HandleEvent(p.generation, p.event)
		case <-deadline:
			return
		}
	}
}

// deliverUntil handles posted events until done reports true
func (s *engineSession) deliverUntil(done func() bool) {
	s.t.Helper()
	deadline := time.After(5 * time.Second)
	for !done() {
		select {
		case p := <-s.posted:
			s.c.HandleEvent(p.generation, p.event)
		case <-deadline:
			require.FailNow(s.t, "timed out delivering events", "state=%s status=%q", s.c.Snapshot().State, s.status.status)
		}
	}
}

func TestControllerEngineRetriesArePaced(t *testing.T) {
	verifyNoLeaks(t)

	srv := newPlaylistServer(t, map[string]func(int) (int, string){})
	delay := 50 * time.Millisecond
	s := newEngineSession(t, HLSOptions{Client: srv.Client(), RetryDelay: delay})

	window := 500 * time.Millisecond
	s.c.LoadStream(srv.URL + "/master.m3u8")
	s.deliverFor(window)

	hits := srv.Hits("/master.m3u8")
	assert.GreaterOrEqual(t, hits, maxLoadRetries+1, "the engine retries before giving up")
	assert.LessOrEqual(t, hits, int(window/delay)+2, "restarts are paced by the retry delay")

	assert.Equal(t, msgNetworkRetry, s.status.status)
	assert.Equal(t, StateConnecting, s.c.Snapshot().State)
	assert.Contains(t, s.observer.recoveries, ActionRetry)
	assert.Len(t, s.engines, 1, "retries reuse the session's engine")
}

func TestControllerEngineRecoversSurfaceFailure(t *testing.T) {
	verifyNoLeaks(t)

	srv := newPlaylistServer(t, map[string]func(int) (int, string){
		"/master.m3u8":     static(masterPlaylist),
		"/low/index.m3u8":  static(vodPlaylist),
		"/high/index.m3u8": static(vodPlaylist),
	})
	s := newEngineSession(t, HLSOptions{Client: srv.Client()})

	s.c.LoadStream(srv.URL + "/master.m3u8")
	s.deliverUntil(func() bool { return s.c.Snapshot().CurrentLevel == 0 })
	require.Equal(t, StateVod, s.c.Snapshot().State)

	s.surface.Sink().Publish(Playing{})
	s.deliverUntil(func() bool { return s.c.Snapshot().Activity == ActivityPlaying })

	before := len(s.surface.Calls())
	s.surface.Sink().Publish(PlaybackError{Err: errors.New("mpv failed to play file: unrecognized file format")})
	s.deliverUntil(func() bool { return len(s.observer.recoveries) > 0 })

	assert.Equal(t, []Action{ActionRecoverMedia}, s.observer.recoveries)
	assert.Equal(t, []string{"media/true"}, s.observer.errors)
	assert.Equal(t, []string{"resume " + srv.URL + "/low/index.m3u8", "play"}, s.surface.Calls()[before:])
	assert.Equal(t, msgMediaRecovery, s.status.status)
	assert.Equal(t, StateVod, s.c.Snapshot().State)
	assert.Contains(t, s.observer.transitions, "vod->recovering")
}

func TestControllerEngineRetryKeepsPlayback(t *testing.T) {
	verifyNoLeaks(t)

	srv := newPlaylistServer(t, map[string]func(int) (int, string){
		"/master.m3u8": static(masterPlaylist),
		"/low/index.m3u8": func(hit int) (int, string) {
			return http.StatusOK, livePlaylistAt(hit, false)
		},
		"/high/index.m3u8": func(hit int) (int, string) {
			return http.StatusOK, livePlaylistAt(hit, false)
		},
	})
	s := newEngineSession(t, HLSOptions{Client: srv.Client(), RetryDelay: 10 * time.Millisecond})

	s.c.LoadStream(srv.URL + "/master.m3u8")
	s.deliverUntil(func() bool { return s.c.Snapshot().CurrentLevel == 0 })
	require.Equal(t, StateLive, s.c.Snapshot().State)

	s.c.SwitchLevel(1)
	s.deliverUntil(func() bool { return s.c.Snapshot().CurrentLevel == 1 })
	loaded := s.surface.Calls()

	// A network failure restarts loading without touching the surface's media
	s.engines[0].publish(EngineError{Fatal: true, Category: ErrorNetwork, Detail: DetailLevelLoad})
	s.deliverUntil(func() bool { return srv.Hits("/master.m3u8") == 2 && s.c.Snapshot().CurrentLevel == 1 })
	s.deliverFor(100 * time.Millisecond)

	assert.Equal(t, 1, s.c.Snapshot().CurrentLevel)
	assert.Equal(t, StateLive, s.c.Snapshot().State)
	for _, call := range s.surface.Calls()[len(loaded):] {
		assert.Equal(t, "play", call, "no media reloads after a retry")
	}
}
