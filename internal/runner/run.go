package runner

import "context"

// Run submits req and blocks until the run finishes, calling fn for every
// event in order. fn runs on the worker goroutine and should return quickly.
// Cancelling ctx stops the run; Run still returns only after the final event.
// A rejected request returns its error after fn has seen the rejection.
func (c *Controller) Run(ctx context.Context, req Request, fn func(Event)) (Outcome, error) {
	finished := make(chan Outcome, 1)
	sink := SinkFunc(func(event Event) error {
		fn(event)
		if event.Type == EventTypeRunFinished {
			finished <- event.Outcome
		}
		return nil
	})

	if err := c.Submit(req, sink); err != nil {
		return OutcomeFailed, err
	}

	stop := context.AfterFunc(ctx, func() { c.Stop() })
	defer stop()

	return <-finished, nil
}
