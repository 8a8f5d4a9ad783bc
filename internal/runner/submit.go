package runner

import (
	"errors"
	"fmt"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/job"
)

// Request is a run request as entered by a user
type Request struct {
	Selection       []catalog.Ref // in selection order
	Custom          string        // free-form command, used only without a selection
	CargoArgsText   string
	ProgramArgsText string
	Release         bool
}

// Submit validates a run request, builds its queue and starts it. Input
// errors and a busy controller are reported to sink as a line plus a status,
// and returned; the controller stays as it was.
func (c *Controller) Submit(req Request, sink Sink) error {
	if sink == nil {
		sink = Discard
	}

	opts, err := job.ParseOptions(req.Release, req.CargoArgsText, req.ProgramArgsText)
	if err != nil {
		var argsErr *job.ArgsError
		if errors.As(err, &argsErr) {
			reject(sink, fmt.Sprintf("⚠ invalid %s: %v", argsErr.Field, argsErr.Err), "Failed: invalid "+argsErr.Field)
		}
		return err
	}

	queue, err := job.BuildQueue(c.catalog, req.Selection, req.Custom, c.tool)
	if err != nil {
		var argsErr *job.ArgsError
		switch {
		case errors.As(err, &argsErr):
			reject(sink, fmt.Sprintf("⚠ invalid custom command: %v", argsErr.Err), "Failed: invalid custom command")
		case errors.Is(err, job.ErrEmptyCustomCommand):
			reject(sink, "⚠ custom command needs a subcommand", "Custom command incomplete")
		case errors.Is(err, job.ErrNoCommandSelected):
			reject(sink, "⚠ no command selected", "Select a command first")
		}
		return err
	}

	if err := c.Start(queue, opts, sink); err != nil {
		reject(sink, "⚠ "+err.Error(), "Failed: "+err.Error())
		return err
	}
	return nil
}

// reject reports a request that never started
func reject(sink Sink, line, status string) {
	_ = sink.Send(Event{Type: EventTypeOutput, Line: line})
	_ = sink.Send(Event{Type: EventTypeStatus, Status: status})
}
