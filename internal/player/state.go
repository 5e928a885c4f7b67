package player

import "fmt"

// State is the lifecycle state of the playback session
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateLive
	StateVod
	StateRecovering
	StateTerminated
)

var stateNames = [...]string{
	"idle", "connecting", "live", "vod", "recovering", "terminated",
}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// Activity is the playback sub-state of an attached session
type Activity int

const (
	ActivityNone Activity = iota
	ActivityPlaying
	ActivityBuffering
)

func (a Activity) String() string {
	switch a {
	case ActivityPlaying:
		return "playing"
	case ActivityBuffering:
		return "buffering"
	default:
		return "none"
	}
}

// Trigger is anything that can move the session state machine
type Trigger int

const (
	TriggerLoad Trigger = iota
	TriggerManifestParsed
	TriggerLevelSwitched
	TriggerFragmentLoaded
	TriggerEngineError
	TriggerPlaying
	TriggerBuffering
	TriggerPlaybackError
	TriggerDestroy
)

var triggerNames = [...]string{
	"load", "manifest_parsed", "level_switched", "fragment_loaded", "engine_error",
	"playing", "buffering", "playback_error", "destroy",
}

func (t Trigger) String() string {
	if int(t) >= 0 && int(t) < len(triggerNames) {
		return triggerNames[t]
	}
	return fmt.Sprintf("unknown(%d)", int(t))
}

var allStates = []State{StateIdle, StateConnecting, StateLive, StateVod, StateRecovering, StateTerminated}

// attachedStates are the states in which an engine or media surface belongs to the session.  Native playback never
// sees a manifest, so Connecting counts as attached for playback events.
var attachedStates = []State{StateConnecting, StateLive, StateVod}

// transitions lists the states each trigger is accepted in.  Anything else is dropped by the controller.
var transitions = map[Trigger][]State{
	TriggerLoad:           {StateIdle, StateTerminated},
	TriggerManifestParsed: {StateConnecting},
	TriggerLevelSwitched:  attachedStates,
	TriggerFragmentLoaded: attachedStates,
	TriggerEngineError:    attachedStates,
	TriggerPlaying:        attachedStates,
	TriggerBuffering:      attachedStates,
	TriggerPlaybackError:  attachedStates,
	TriggerDestroy:        allStates,
}

// permitted reports whether trigger may be applied in state from
func permitted(from State, trigger Trigger) bool {
	for _, s := range transitions[trigger] {
		if s == from {
			return true
		}
	}
	return false
}

// triggerFor maps an event to its trigger
func triggerFor(ev Event) (Trigger, bool) {
	switch ev.(type) {
	case ManifestParsed:
		return TriggerManifestParsed, true
	case LevelSwitched:
		return TriggerLevelSwitched, true
	case FragmentLoaded:
		return TriggerFragmentLoaded, true
	case EngineError:
		return TriggerEngineError, true
	case Playing:
		return TriggerPlaying, true
	case Buffering:
		return TriggerBuffering, true
	case PlaybackError:
		return TriggerPlaybackError, true
	default:
		return 0, false
	}
}
