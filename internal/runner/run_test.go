package runner

import (
	"context"
	"sync"
	"testing"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/job"
	"github.com/cargo-runner/cargo-runner/internal/supervisor"
	"github.com/stretchr/testify/require"
)

func TestRun_BlocksUntilFinished(t *testing.T) {
	c, executor := newTestController(t)
	executor.Script("build", supervisor.FakeScript{Stdout: []string{"Compiling demo"}})

	var events []Event
	outcome, err := c.Run(context.Background(), Request{
		Selection: []catalog.Ref{{Group: catalog.Primary, Index: 0}},
	}, func(e Event) { events = append(events, e) })

	require.NoError(t, err)
	require.Equal(t, OutcomeSucceeded, outcome)
	require.Equal(t, EventTypeRunStarted, events[0].Type)
	require.Equal(t, EventTypeRunFinished, events[len(events)-1].Type)
	require.False(t, c.Running())
}

func TestRun_Rejected(t *testing.T) {
	c, executor := newTestController(t)

	var lines []string
	outcome, err := c.Run(context.Background(), Request{Custom: "cargo"}, func(e Event) {
		if e.Type == EventTypeOutput {
			lines = append(lines, e.Line)
		}
	})

	require.ErrorIs(t, err, job.ErrEmptyCustomCommand)
	require.Equal(t, OutcomeFailed, outcome)
	require.Equal(t, []string{"⚠ custom command needs a subcommand"}, lines)
	require.Zero(t, executor.StartCount())
}

func TestRun_ContextCancelStops(t *testing.T) {
	c, executor := newTestController(t)
	executor.Script("build", supervisor.FakeScript{Hold: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		mu     sync.Mutex
		status string
	)
	go func() {
		<-executor.Started()
		cancel()
	}()

	outcome, err := c.Run(ctx, Request{
		Selection: []catalog.Ref{{Group: catalog.Primary, Index: 0}},
	}, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		if e.Status != "" {
			status = e.Status
		}
	})

	require.NoError(t, err)
	require.Equal(t, OutcomeCancelled, outcome)
	mu.Lock()
	require.Equal(t, StatusCancelled, status)
	mu.Unlock()
	require.GreaterOrEqual(t, executor.LastHandle().KillCount(), 1)
}
