package orchestrator

import (
	"time"

	ai "github.com/spetersoncode/abapforge"
)

// EventType identifies the kind of event occurring during a generation.
type EventType string

const (
	// EventGenerationStart fires when a request is accepted.
	EventGenerationStart EventType = "generation_start"

	// EventGuardVerdict fires after the safety guard decides.
	EventGuardVerdict EventType = "guard_verdict"

	// EventAttemptStart fires before a candidate provider is called.
	EventAttemptStart EventType = "attempt_start"

	// EventAttemptFailed fires when a candidate fails and the next one
	// may be tried.
	EventAttemptFailed EventType = "attempt_failed"

	// EventAttemptSucceeded fires when a candidate returns usable output.
	EventAttemptSucceeded EventType = "attempt_succeeded"

	// EventGenerationComplete fires once with the final result.
	EventGenerationComplete EventType = "generation_complete"
)

// Event represents an observable occurrence during a generation.
type Event struct {
	Type      EventType
	RequestID string

	// Provider and Attempt are set for attempt events. Attempt is 1-indexed.
	Provider ai.Provider
	Model    string
	Attempt  int

	// Approved is set for EventGuardVerdict.
	Approved bool

	Duration time.Duration
	Error    error

	// Result is set for EventGenerationComplete.
	Result *ai.Result

	Timestamp time.Time
}

// emit sends an event with timestamp to the channel without blocking.
func emit(ch chan<- Event, event Event) {
	if ch == nil {
		return
	}
	event.Timestamp = time.Now()
	select {
	case ch <- event:
	default:
		// Channel full - don't block
	}
}
