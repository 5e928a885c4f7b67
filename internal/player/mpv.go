package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/PizzaHomicide/hlsplay/internal/log"
)

const (
	propPausedForCache      = "paused-for-cache"
	pausedForCacheObserveID = 1
	propTimePos             = "time-pos"
	timePosObserveID        = 2

	mpvConnectAttempts = 20
	mpvConnectDelay    = 250 * time.Millisecond
	mpvConnectTimeout  = 10 * time.Second
)

// MPVOptions configures the mpv media surface
type MPVOptions struct {
	// Path to the mpv binary.  Defaults to "mpv".
	Path string
	// Args are extra command line arguments, parsed with ParseArgs
	Args string
	// SocketPath for the JSON IPC server.  Defaults to GetMPVSocketPath().
	SocketPath string
}

// mpvCommand is one queued IPC command.  Commands that don't need a running player are skipped when there is none.
type mpvCommand struct {
	args        []any
	needsPlayer bool
}

// MPVSurface is a MediaSurface backed by an mpv process controlled over JSON IPC.  The process is started on first use
// and stays idle between streams.  All commands are queued and sent in order from a single worker goroutine, so none of
// the methods block.
type MPVSurface struct {
	path       string
	args       []string
	socketPath string
	// launch starts the player and returns a connected client along with the process, if any
	launch func(ctx context.Context) (*MPVIPCClient, *exec.Cmd, error)

	mu      sync.Mutex
	sink    EventSink
	queue   []mpvCommand
	wake    chan struct{}
	running bool
	closed  bool
	client  *MPVIPCClient
	cmd     *exec.Cmd
	// position is the last playback position mpv reported, in seconds
	position float64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMPVSurface creates an mpv backed media surface.  No process is started until the first Load.
func NewMPVSurface(opts MPVOptions) *MPVSurface {
	path := opts.Path
	if path == "" {
		path = "mpv"
	}
	socketPath := opts.SocketPath
	if socketPath == "" {
		socketPath = GetMPVSocketPath()
	}

	s := &MPVSurface{
		path:       path,
		args:       ParseArgs(opts.Args),
		socketPath: socketPath,
	}
	s.launch = s.startProcess
	return s
}

// Bind implements MediaSurface
func (s *MPVSurface) Bind(sink EventSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Load implements MediaSurface
func (s *MPVSurface) Load(url string) {
	log.Info("Loading media into mpv", "url", url)
	s.mu.Lock()
	s.position = 0
	s.mu.Unlock()
	s.enqueue(mpvCommand{args: []any{"loadfile", url, "replace"}, needsPlayer: true})
}

// Resume implements MediaSurface.  It uses the per-file options argument of loadfile, which needs mpv 0.38 or newer.
func (s *MPVSurface) Resume(url string) {
	s.mu.Lock()
	position := s.position
	s.mu.Unlock()
	if position <= 0 {
		s.Load(url)
		return
	}

	log.Info("Reloading media into mpv", "url", url, "position", position)
	start := "start=" + strconv.FormatFloat(position, 'f', 3, 64)
	s.enqueue(mpvCommand{args: []any{"loadfile", url, "replace", -1, start}, needsPlayer: true})
}

// Play implements MediaSurface
func (s *MPVSurface) Play() {
	s.enqueue(mpvCommand{args: []any{"set_property", "pause", false}, needsPlayer: true})
}

// Reset implements MediaSurface.  The player window stays open and idle.
func (s *MPVSurface) Reset() {
	s.enqueue(mpvCommand{args: []any{"stop"}})
}

// Close implements MediaSurface.  It stops the player process and removes its socket.
func (s *MPVSurface) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.queue = nil
	if s.cancel != nil {
		s.cancel()
	}
	client, cmd := s.client, s.cmd
	s.client, s.cmd = nil, nil
	s.mu.Unlock()

	var errs []error
	if client != nil {
		_ = client.SendCommand("quit")
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing mpv connection: %w", err))
		}
	}
	if cmd != nil {
		log.Info("Stopping mpv")
		if err := stopPlayerProcess(cmd); err != nil {
			errs = append(errs, fmt.Errorf("stopping mpv: %w", err))
		}
	}
	s.wg.Wait()
	s.removeSocket()
	return errors.Join(errs...)
}

func (s *MPVSurface) enqueue(c mpvCommand) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, c)
	if !s.running {
		s.running = true
		s.wake = make(chan struct{}, 1)
		s.ctx, s.cancel = context.WithCancel(context.Background())
		s.wg.Add(1)
		go s.work(s.ctx, s.wake)
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// work sends queued commands in order, starting the player when a command needs one
func (s *MPVSurface) work(ctx context.Context, wake <-chan struct{}) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-wake:
		}

		for {
			s.mu.Lock()
			if len(s.queue) == 0 || s.closed {
				s.mu.Unlock()
				break
			}
			c := s.queue[0]
			s.queue = s.queue[1:]
			client := s.client
			s.mu.Unlock()

			if client == nil {
				if !c.needsPlayer {
					continue
				}
				var err error
				if client, err = s.connect(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					log.Error("Failed to start mpv", "path", s.path, "error", err)
					s.dropQueue()
					s.publish(PlaybackError{Err: fmt.Errorf("failed to start mpv: %w", err), Fatal: true})
					continue
				}
			}

			log.Debug("Sending mpv command", "command", c.args)
			if err := client.SendCommand(c.args...); err != nil {
				log.Warn("Failed to send mpv command", "command", c.args, "error", err)
			}
		}
	}
}

// connect launches the player and starts forwarding its events
func (s *MPVSurface) connect(ctx context.Context) (*MPVIPCClient, error) {
	client, cmd, err := s.launch(ctx)
	if err != nil {
		return nil, err
	}
	observed := []struct {
		id   int
		name string
	}{
		{pausedForCacheObserveID, propPausedForCache},
		{timePosObserveID, propTimePos},
	}
	for _, p := range observed {
		if err := client.ObserveProperty(p.id, p.name); err != nil {
			log.Warn("Failed to observe mpv property", "property", p.name, "error", err)
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		_ = client.Close()
		if cmd != nil {
			_ = stopPlayerProcess(cmd)
		}
		return nil, errors.New("surface closed")
	}
	s.client = client
	s.cmd = cmd
	s.mu.Unlock()

	s.wg.Add(1)
	go s.forwardEvents(client)
	return client, nil
}

// startProcess runs mpv in idle mode with an IPC server and connects to it
func (s *MPVSurface) startProcess(ctx context.Context) (*MPVIPCClient, *exec.Cmd, error) {
	s.removeSocket()

	args := []string{
		"--no-terminal",
		"--idle=yes",
		"--force-window=yes",
		"--input-ipc-server=" + s.socketPath,
	}
	args = append(args, s.args...)

	cmd := exec.Command(s.path, args...)
	setupPlayerProcess(cmd)

	log.Info("Starting mpv", "path", s.path, "args", args)
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	go func() {
		err := cmd.Wait()
		log.Info("mpv exited", "error", err)
	}()

	connCtx, cancel := context.WithTimeout(ctx, mpvConnectTimeout)
	defer cancel()

	client := NewMPVIPCClient(s.socketPath)
	if err := client.WaitForConnection(connCtx, mpvConnectAttempts, mpvConnectDelay); err != nil {
		if stopErr := stopPlayerProcess(cmd); stopErr != nil {
			log.Warn("Failed to stop mpv after connection failure", "error", stopErr)
		}
		return nil, nil, err
	}
	return client, cmd, nil
}

// forwardEvents translates mpv events until the connection drops
func (s *MPVSurface) forwardEvents(client *MPVIPCClient) {
	defer s.wg.Done()

	var translator mpvEventTranslator
	for event := range client.Events() {
		if event.Event == "property-change" && event.Name == propTimePos {
			s.trackPosition(event.Data)
			continue
		}
		if ev, ok := translator.translate(event); ok {
			s.publish(ev)
		}
	}

	s.mu.Lock()
	closed := s.closed
	if s.client == client {
		s.client = nil
		s.cmd = nil
	}
	s.mu.Unlock()

	if closed {
		return
	}
	log.Warn("Lost connection to mpv")
	s.publish(PlaybackError{Err: errors.New("lost connection to mpv"), Fatal: true})
}

// trackPosition records a time-pos update.  mpv reports null while nothing plays, which keeps the last position.
func (s *MPVSurface) trackPosition(data json.RawMessage) {
	var position *float64
	if err := json.Unmarshal(data, &position); err != nil || position == nil {
		return
	}
	s.mu.Lock()
	s.position = *position
	s.mu.Unlock()
}

// Position returns the last playback position mpv reported
func (s *MPVSurface) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

func (s *MPVSurface) publish(ev Event) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink != nil {
		sink.Publish(ev)
	}
}

func (s *MPVSurface) dropQueue() {
	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()
}

func (s *MPVSurface) removeSocket() {
	if _, err := os.Stat(s.socketPath); err == nil {
		if err := os.Remove(s.socketPath); err != nil {
			log.Warn("Failed to remove MPV socket file", "path", s.socketPath, "error", err)
		}
	}
}

// mpvEventTranslator maps mpv IPC events to surface events.  Cache pauses only count once playback of a file has
// started, since mpv reports the property while idle too.
type mpvEventTranslator struct {
	started bool
}

func (t *mpvEventTranslator) translate(event MPVEvent) (Event, bool) {
	switch event.Event {
	case "start-file":
		t.started = false
	case "playback-restart":
		t.started = true
		return Playing{}, true
	case "end-file":
		t.started = false
		if event.Reason == "error" {
			detail := event.FileError
			if detail == "" {
				detail = "unknown error"
			}
			return PlaybackError{Err: fmt.Errorf("mpv failed to play file: %s", detail)}, true
		}
	case "property-change":
		if event.Name != propPausedForCache || !t.started {
			return nil, false
		}
		var paused bool
		if err := json.Unmarshal(event.Data, &paused); err != nil {
			log.Trace("Ignoring unparseable property value", "name", event.Name, "data", string(event.Data))
			return nil, false
		}
		if paused {
			return Buffering{}, true
		}
		return Playing{}, true
	}
	return nil, false
}
