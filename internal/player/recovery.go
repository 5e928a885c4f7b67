package player

// Action is what the controller does about a fatal engine error
type Action int

const (
	// ActionRetry restarts loading without tearing the session down
	ActionRetry Action = iota
	// ActionRecoverMedia asks the engine to recover its media pipeline
	ActionRecoverMedia
	// ActionTerminate destroys the session
	ActionTerminate
)

func (a Action) String() string {
	switch a {
	case ActionRetry:
		return "retry"
	case ActionRecoverMedia:
		return "recover_media"
	case ActionTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

const (
	msgNetworkRetry  = "Network error – retrying..."
	msgMediaRecovery = "Media error – recovering..."
	msgFatalPrefix   = "Fatal error: "
)

// Decision is the classifier's verdict on a fatal error
type Decision struct {
	Action Action
	// Reason is the status text shown to the user
	Reason string
}

// Classify maps an engine error to a recovery decision.  Non-fatal errors are left to the engine and return false.
// There is no attempt counter: retry and recover are issued every time the category recurs.
func Classify(ev EngineError) (Decision, bool) {
	if !ev.Fatal {
		return Decision{}, false
	}

	switch ev.Category {
	case ErrorNetwork:
		return Decision{Action: ActionRetry, Reason: msgNetworkRetry}, true
	case ErrorMedia:
		return Decision{Action: ActionRecoverMedia, Reason: msgMediaRecovery}, true
	default:
		return Decision{Action: ActionTerminate, Reason: msgFatalPrefix + ev.Detail}, true
	}
}
