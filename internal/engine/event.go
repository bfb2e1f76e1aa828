package engine

import "time"

// EventKind identifies what changed.
type EventKind int

const (
	EventNavigated EventKind = iota
	EventSubmitting
	EventSubmitted
	EventSubmitFailed
	EventReset
)

// String returns the string representation of an EventKind.
func (k EventKind) String() string {
	switch k {
	case EventNavigated:
		return "navigated"
	case EventSubmitting:
		return "submitting"
	case EventSubmitted:
		return "submitted"
	case EventSubmitFailed:
		return "submit-failed"
	case EventReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Event is passed to the listener after a state change.
type Event struct {
	Kind EventKind
	From int
	To   int
	// Auto is set when the auto-advance timer caused the navigation.
	Auto    bool
	Err     error
	Receipt Receipt
}

// Timer is a pending scheduled call.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
