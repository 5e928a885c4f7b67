package player

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// chanSink collects published events
type chanSink chan Event

func (s chanSink) Publish(ev Event) {
	s <- ev
}

func nextEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for event")
		return nil
	}
}

func requireNoEvent(t *testing.T, events <-chan Event, wait time.Duration) {
	t.Helper()
	select {
	case ev := <-events:
		require.FailNow(t, "unexpected event", "%#v", ev)
	case <-time.After(wait):
	}
}

// fakeSurface records the commands it receives
type fakeSurface struct {
	mu    sync.Mutex
	sink  EventSink
	calls []string
}

func (s *fakeSurface) Bind(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sink = sink
	s.calls = append(s.calls, "bind")
}

func (s *fakeSurface) Load(url string) {
	s.record("load " + url)
}

func (s *fakeSurface) Resume(url string) {
	s.record("resume " + url)
}

func (s *fakeSurface) Play() {
	s.record("play")
}

func (s *fakeSurface) Reset() {
	s.record("reset")
}

func (s *fakeSurface) Close() error {
	s.record("close")
	return nil
}

func (s *fakeSurface) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *fakeSurface) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *fakeSurface) Sink() EventSink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sink
}

// fakeEngine records commands and lets tests publish events through the sink it was created with
type fakeEngine struct {
	cfg   EngineConfig
	sink  EventSink
	calls []string
}

func (e *fakeEngine) LoadSource(url string) { e.calls = append(e.calls, "load_source "+url) }
func (e *fakeEngine) Attach(MediaSurface)   { e.calls = append(e.calls, "attach") }
func (e *fakeEngine) StartLoad()            { e.calls = append(e.calls, "start_load") }
func (e *fakeEngine) RecoverMediaError()    { e.calls = append(e.calls, "recover_media") }
func (e *fakeEngine) SwitchLevel(index int) {
	e.calls = append(e.calls, fmt.Sprintf("switch_level %d", index))
}
func (e *fakeEngine) Destroy() { e.calls = append(e.calls, "destroy") }
