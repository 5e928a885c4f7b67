package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"os/exec"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMPV is the player end of an IPC connection
type fakeMPV struct {
	conn     net.Conn
	commands chan []any
}

func startFakeMPV(conn net.Conn) *fakeMPV {
	f := &fakeMPV{conn: conn, commands: make(chan []any, 100)}
	go func() {
		defer close(f.commands)
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			var msg struct {
				Command []any `json:"command"`
			}
			if err := json.Unmarshal(scanner.Bytes(), &msg); err == nil {
				f.commands <- msg.Command
			}
		}
	}()
	return f
}

func (f *fakeMPV) send(t *testing.T, line string) {
	t.Helper()
	_, err := f.conn.Write([]byte(line + "\n"))
	require.NoError(t, err)
}

func (f *fakeMPV) next(t *testing.T) []any {
	t.Helper()
	select {
	case cmd, ok := <-f.commands:
		require.True(t, ok, "connection closed")
		return cmd
	case <-time.After(5 * time.Second):
		require.FailNow(t, "timed out waiting for mpv command")
		return nil
	}
}

// newTestSurface returns a surface whose player is a fakeMPV on an in-memory pipe
func newTestSurface(t *testing.T) (*MPVSurface, <-chan *fakeMPV, *atomic.Int32) {
	t.Helper()
	s := NewMPVSurface(MPVOptions{SocketPath: filepath.Join(t.TempDir(), "mpv.sock")})
	servers := make(chan *fakeMPV, 4)
	launches := &atomic.Int32{}
	s.launch = func(ctx context.Context) (*MPVIPCClient, *exec.Cmd, error) {
		launches.Add(1)
		serverConn, clientConn := net.Pipe()
		servers <- startFakeMPV(serverConn)
		return newMPVIPCClientConn(clientConn), nil, nil
	}
	return s, servers, launches
}

func nextServer(t *testing.T, servers <-chan *fakeMPV) *fakeMPV {
	t.Helper()
	select {
	case f := <-servers:
		return f
	case <-time.After(5 * time.Second):
		require.FailNow(t, "mpv was not launched")
		return nil
	}
}

// skipObserves reads the property observations sent on connect
func skipObserves(t *testing.T, mpv *fakeMPV) {
	t.Helper()
	for i := 0; i < 2; i++ {
		cmd := mpv.next(t)
		require.Equal(t, "observe_property", cmd[0])
	}
}

func TestMPVSurface(t *testing.T) {
	verifyNoLeaks(t)

	s, servers, launches := newTestSurface(t)
	events := make(chanSink, 10)
	s.Bind(events)

	s.Reset()
	s.Load("https://example.com/a.m3u8")
	s.Play()

	mpv := nextServer(t, servers)
	assert.Equal(t, []any{"observe_property", float64(pausedForCacheObserveID), propPausedForCache}, mpv.next(t))
	assert.Equal(t, []any{"observe_property", float64(timePosObserveID), propTimePos}, mpv.next(t))
	assert.Equal(t, []any{"loadfile", "https://example.com/a.m3u8", "replace"}, mpv.next(t))
	assert.Equal(t, []any{"set_property", "pause", false}, mpv.next(t))

	mpv.send(t, `{"request_id":0,"error":"success","data":null}`)
	mpv.send(t, `{"event":"start-file","playlist_entry_id":1}`)
	mpv.send(t, `{"event":"property-change","id":1,"name":"paused-for-cache","data":true}`)
	mpv.send(t, `{"event":"playback-restart"}`)
	assert.Equal(t, Playing{}, nextEvent(t, events), "cache pauses before playback starts are ignored")

	mpv.send(t, `{"event":"property-change","id":1,"name":"paused-for-cache","data":true}`)
	assert.Equal(t, Buffering{}, nextEvent(t, events))
	mpv.send(t, `{"event":"property-change","id":1,"name":"paused-for-cache","data":false}`)
	assert.Equal(t, Playing{}, nextEvent(t, events))

	s.Reset()
	assert.Equal(t, []any{"stop"}, mpv.next(t))

	require.NoError(t, s.Close())
	assert.Equal(t, []any{"quit"}, mpv.next(t))
	requireNoEvent(t, events, 50*time.Millisecond)

	s.Load("https://example.com/b.m3u8")
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), launches.Load())
}

func TestMPVSurfaceRebind(t *testing.T) {
	verifyNoLeaks(t)

	s, servers, _ := newTestSurface(t)
	first := make(chanSink, 10)
	second := make(chanSink, 10)

	s.Bind(first)
	s.Load("https://example.com/a.m3u8")
	mpv := nextServer(t, servers)
	skipObserves(t, mpv)
	mpv.next(t)

	s.Bind(second)
	mpv.send(t, `{"event":"playback-restart"}`)
	assert.Equal(t, Playing{}, nextEvent(t, second))
	assert.Empty(t, first)

	require.NoError(t, s.Close())
}

func TestMPVSurfaceResume(t *testing.T) {
	verifyNoLeaks(t)

	s, servers, _ := newTestSurface(t)
	events := make(chanSink, 10)
	s.Bind(events)

	// Nothing played yet, so there is no position to resume from
	s.Resume("https://example.com/a.m3u8")
	mpv := nextServer(t, servers)
	skipObserves(t, mpv)
	assert.Equal(t, []any{"loadfile", "https://example.com/a.m3u8", "replace"}, mpv.next(t))

	mpv.send(t, `{"event":"property-change","id":2,"name":"time-pos","data":42.5}`)
	mpv.send(t, `{"event":"property-change","id":2,"name":"time-pos","data":null}`)
	require.Eventually(t, func() bool { return s.Position() == 42.5 }, 5*time.Second, 10*time.Millisecond)

	s.Resume("https://example.com/b.m3u8")
	assert.Equal(t, []any{"loadfile", "https://example.com/b.m3u8", "replace", float64(-1), "start=42.500"}, mpv.next(t))

	s.Load("https://example.com/c.m3u8")
	assert.Equal(t, []any{"loadfile", "https://example.com/c.m3u8", "replace"}, mpv.next(t))
	assert.Equal(t, 0.0, s.Position(), "a new stream starts from the beginning")

	require.NoError(t, s.Close())
	assert.Empty(t, events, "position updates are not playback events")
}

func TestMPVSurfaceLostConnection(t *testing.T) {
	verifyNoLeaks(t)

	s, servers, launches := newTestSurface(t)
	events := make(chanSink, 10)
	s.Bind(events)

	s.Load("https://example.com/a.m3u8")
	mpv := nextServer(t, servers)
	skipObserves(t, mpv)
	mpv.next(t)

	require.NoError(t, mpv.conn.Close())
	ev, ok := nextEvent(t, events).(PlaybackError)
	require.True(t, ok)
	assert.True(t, ev.Fatal)
	assert.EqualError(t, ev.Err, "lost connection to mpv")

	// The next load starts a fresh player
	s.Load("https://example.com/b.m3u8")
	restarted := nextServer(t, servers)
	skipObserves(t, restarted)
	assert.Equal(t, []any{"loadfile", "https://example.com/b.m3u8", "replace"}, restarted.next(t))
	assert.Equal(t, int32(2), launches.Load())

	require.NoError(t, s.Close())
}

func TestMPVSurfaceLaunchFailure(t *testing.T) {
	verifyNoLeaks(t)

	s := NewMPVSurface(MPVOptions{SocketPath: filepath.Join(t.TempDir(), "mpv.sock")})
	var launches atomic.Int32
	s.launch = func(ctx context.Context) (*MPVIPCClient, *exec.Cmd, error) {
		launches.Add(1)
		return nil, nil, errors.New(`exec: "mpv": executable file not found in $PATH`)
	}
	events := make(chanSink, 10)
	s.Bind(events)

	s.Load("https://example.com/a.m3u8")
	ev, ok := nextEvent(t, events).(PlaybackError)
	require.True(t, ok)
	assert.True(t, ev.Fatal)
	assert.ErrorContains(t, ev.Err, "failed to start mpv")

	s.Reset()
	require.NoError(t, s.Close())
	assert.Equal(t, int32(1), launches.Load(), "commands that don't need a player never launch one")
	assert.Empty(t, events)
}

func TestMPVEventTranslator(t *testing.T) {
	data := func(v string) json.RawMessage { return json.RawMessage(v) }

	tests := []struct {
		name    string
		started bool
		event   MPVEvent
		want    Event
	}{
		{name: "playback restart", event: MPVEvent{Event: "playback-restart"}, want: Playing{}},
		{name: "cache pause", started: true, event: MPVEvent{Event: "property-change", Name: propPausedForCache, Data: data("true")}, want: Buffering{}},
		{name: "cache resume", started: true, event: MPVEvent{Event: "property-change", Name: propPausedForCache, Data: data("false")}, want: Playing{}},
		{name: "cache pause while idle", event: MPVEvent{Event: "property-change", Name: propPausedForCache, Data: data("true")}},
		{name: "unavailable property", started: true, event: MPVEvent{Event: "property-change", Name: propPausedForCache}},
		{name: "other property", started: true, event: MPVEvent{Event: "property-change", Name: "volume", Data: data("50")}},
		{name: "end of file", started: true, event: MPVEvent{Event: "end-file", Reason: "eof"}},
		{name: "idle", event: MPVEvent{Event: "idle"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			translator := mpvEventTranslator{started: tt.started}
			got, ok := translator.translate(tt.event)
			if tt.want == nil {
				assert.False(t, ok)
				return
			}
			assert.True(t, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("file errors", func(t *testing.T) {
		var translator mpvEventTranslator
		got, ok := translator.translate(MPVEvent{Event: "end-file", Reason: "error", FileError: "loading failed"})
		require.True(t, ok)
		pbErr, isErr := got.(PlaybackError)
		require.True(t, isErr)
		assert.False(t, pbErr.Fatal)
		assert.EqualError(t, pbErr.Err, "mpv failed to play file: loading failed")

		got, _ = translator.translate(MPVEvent{Event: "end-file", Reason: "error"})
		assert.EqualError(t, got.(PlaybackError).Err, "mpv failed to play file: unknown error")
	})

	t.Run("new file resets playback", func(t *testing.T) {
		var translator mpvEventTranslator
		translator.translate(MPVEvent{Event: "playback-restart"})
		translator.translate(MPVEvent{Event: "start-file"})
		_, ok := translator.translate(MPVEvent{Event: "property-change", Name: propPausedForCache, Data: data("true")})
		assert.False(t, ok)
	})
}

func TestMPVIPCClient(t *testing.T) {
	verifyNoLeaks(t)

	serverConn, clientConn := net.Pipe()
	mpv := startFakeMPV(serverConn)
	client := newMPVIPCClientConn(clientConn)

	require.NoError(t, client.ObserveProperty(3, "volume"))
	assert.Equal(t, []any{"observe_property", float64(3), "volume"}, mpv.next(t))

	mpv.send(t, `{"request_id":0,"error":"property unavailable"}`)
	mpv.send(t, `not json`)
	mpv.send(t, `{"event":"end-file","reason":"error","file_error":"loading failed"}`)

	select {
	case ev := <-client.Events():
		assert.Equal(t, "end-file", ev.Event)
		assert.Equal(t, "error", ev.Reason)
		assert.Equal(t, "loading failed", ev.FileError)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "no event received")
	}

	require.NoError(t, serverConn.Close())
	select {
	case _, open := <-client.Events():
		assert.False(t, open, "events channel closes with the connection")
	case <-time.After(5 * time.Second):
		require.FailNow(t, "events channel not closed")
	}
	require.NoError(t, client.Close())
}

func TestMPVIPCClientNotConnected(t *testing.T) {
	client := NewMPVIPCClient("/nonexistent/mpv.sock")
	assert.Error(t, client.SendCommand("stop"))
	assert.NoError(t, client.Close())
}
