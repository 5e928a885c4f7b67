package player

// StatusStyle is the visual class of a status message
type StatusStyle string

const (
	StyleNone      StatusStyle = "none"
	StyleError     StatusStyle = "error"
	StyleConnected StatusStyle = "connected"
)

// StatusSink displays the session's status and telemetry
type StatusSink interface {
	SetStatus(text string, style StatusStyle)
	SetQualityLabel(text string)
	SetLatencyLabel(text string)
	SetLiveBadgeVisible(visible bool)
	SetLoadingVisible(visible bool)
}

const (
	msgConnecting    = "Connecting..."
	msgUnsupported   = "HLS not supported in this environment"
	msgPlaying       = "Playing"
	msgBuffering     = "Buffering..."
	msgPlaybackError = "Playback error"
)

// Observer is notified of session activity, e.g. for metrics
type Observer interface {
	SessionStarted(strategy Strategy)
	StateChanged(from, to State)
	EngineError(category ErrorCategory, fatal bool)
	Recovery(action Action)
	LatencyObserved(seconds float64)
}

type nopObserver struct{}

func (nopObserver) SessionStarted(Strategy)         {}
func (nopObserver) StateChanged(State, State)       {}
func (nopObserver) EngineError(ErrorCategory, bool) {}
func (nopObserver) Recovery(Action)                 {}
func (nopObserver) LatencyObserved(float64)         {}
