package runner

import "errors"

// ErrObserverGone is returned by a Sink whose observer has detached
var ErrObserverGone = errors.New("observer gone")

// EventType represents the kind of update sent to an observer
type EventType string

const (
	EventTypeRunStarted  EventType = "run_started"  // clear output, running on
	EventTypeOutput      EventType = "output"       // one output line
	EventTypeStatus      EventType = "status"       // status line changed
	EventTypeRunFinished EventType = "run_finished" // running off, final status
)

// Outcome is how a run ended
type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
	OutcomeCancelled Outcome = "cancelled"
)

// Event is one update from a run worker to its observer
type Event struct {
	Type    EventType `json:"type"`
	RunID   string    `json:"run_id,omitempty"`
	Line    string    `json:"line,omitempty"`
	Status  string    `json:"status,omitempty"`
	Running bool      `json:"running"` // only meaningful on run_started and run_finished
	Total   int       `json:"total,omitempty"`
	Outcome Outcome   `json:"outcome,omitempty"` // set on run_finished
}

// Sink receives events from a run worker. Send must not block for long;
// an error means the observer is gone and no further events are sent to it.
type Sink interface {
	Send(event Event) error
}

// SinkFunc adapts a function to the Sink interface
type SinkFunc func(event Event) error

func (f SinkFunc) Send(event Event) error {
	return f(event)
}

// Discard accepts and drops every event
var Discard Sink = SinkFunc(func(Event) error { return nil })
