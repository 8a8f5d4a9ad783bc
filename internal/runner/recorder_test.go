package runner

import "sync"

// Recorder is a Sink that keeps every event in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Send(event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Lines returns the output lines since the most recent run start
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var lines []string
	for _, e := range r.events {
		switch e.Type {
		case EventTypeRunStarted:
			lines = nil
		case EventTypeOutput:
			lines = append(lines, e.Line)
		}
	}
	return lines
}

// Status returns the most recent status text
func (r *Recorder) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Status != "" {
			return r.events[i].Status
		}
	}
	return ""
}
