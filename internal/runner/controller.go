// Package runner drives a queue of jobs through the supervisor, one run at a
// time, and reports progress to an observer.
package runner

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/job"
	"github.com/cargo-runner/cargo-runner/internal/logging"
	"github.com/cargo-runner/cargo-runner/internal/supervisor"
	"github.com/google/uuid"
)

// ErrAlreadyRunning is returned when a run is requested while one is active
var ErrAlreadyRunning = errors.New("another job is already running")

const (
	StatusIdle      = "Idle"
	StatusCancelled = "Cancelled"

	stderrPrefix = "[stderr] "
)

// Config configures a Controller
type Config struct {
	Tool     string                     // external tool, default "cargo"
	Workdir  string                     // working directory of every job
	Env      []string                   // nil inherits the environment
	Catalog  *catalog.Catalog           // default: built-in catalog
	Executor supervisor.ProcessExecutor // default: real processes
}

// Controller owns at most one active run
type Controller struct {
	tool       string
	workdir    string
	env        []string
	catalog    *catalog.Catalog
	supervisor *supervisor.Supervisor

	mu     sync.Mutex
	active *session
}

// session is the live state of the active run
type session struct {
	id      string
	started time.Time
	cancel  atomic.Bool
	slot    supervisor.Slot
	done    chan struct{}
}

// NewController creates an idle controller
func NewController(cfg Config) *Controller {
	if cfg.Tool == "" {
		cfg.Tool = "cargo"
	}
	if cfg.Catalog == nil {
		cfg.Catalog = catalog.Builtin()
	}
	return &Controller{
		tool:       cfg.Tool,
		workdir:    cfg.Workdir,
		env:        cfg.Env,
		catalog:    cfg.Catalog,
		supervisor: supervisor.New(cfg.Executor),
	}
}

// Tool returns the external tool name
func (c *Controller) Tool() string {
	return c.tool
}

// Catalog returns the command catalog
func (c *Controller) Catalog() *catalog.Catalog {
	return c.catalog
}

// Running reports whether a run is active
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

// Start begins running queue on a worker goroutine and returns immediately.
// opts are captured now; later changes by the caller do not affect the run.
func (c *Controller) Start(queue job.Queue, opts job.Options, sink Sink) error {
	if len(queue) == 0 {
		return job.ErrEmptyQueue
	}
	if sink == nil {
		sink = Discard
	}

	c.mu.Lock()
	if c.active != nil {
		c.mu.Unlock()
		return ErrAlreadyRunning
	}
	s := &session{
		id:      uuid.NewString(),
		started: time.Now(),
		done:    make(chan struct{}),
	}
	c.active = s
	c.mu.Unlock()

	queue = append(job.Queue(nil), queue...)
	opts = job.Options{
		Release:     opts.Release,
		CargoArgs:   append([]string(nil), opts.CargoArgs...),
		ProgramArgs: append([]string(nil), opts.ProgramArgs...),
	}

	logging.Logger.Info("run started", "run_id", s.id, "jobs", len(queue), "release", opts.Release)

	go c.work(s, queue, opts, &observer{sink: sink, runID: s.id})
	return nil
}

// Stop requests cancellation of the active run and kills its live process.
// Returns false when no run is active.
func (c *Controller) Stop() bool {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s == nil {
		return false
	}

	s.cancel.Store(true)
	logging.Logger.Info("cancellation requested", "run_id", s.id)

	if _, err := s.slot.Kill(); err != nil {
		logging.Logger.Warn("failed to kill process", "run_id", s.id, "error", err)
	}
	return true
}

// Wait blocks until the active run, if any, has finished
func (c *Controller) Wait() {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()

	if s != nil {
		<-s.done
	}
}

func (c *Controller) work(s *session, queue job.Queue, opts job.Options, out *observer) {
	defer close(s.done)

	outcome, status, ok := c.runQueue(s, queue, opts, out)

	c.mu.Lock()
	if c.active == s {
		c.active = nil
	}
	c.mu.Unlock()

	logging.Logger.Info("run finished", "run_id", s.id, "outcome", outcome, "duration", time.Since(s.started))

	if !ok {
		return
	}
	out.send(Event{Type: EventTypeRunFinished, Running: false, Status: status, Outcome: outcome})
}

// runQueue executes the jobs in order and stops at the first failure.
// ok is false when the observer was lost before the run could begin.
func (c *Controller) runQueue(s *session, queue job.Queue, opts job.Options, out *observer) (outcome Outcome, status string, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logging.Logger.Error("run worker panicked", "run_id", s.id, "panic", r, "stack", string(debug.Stack()))
			out.line(fmt.Sprintf("⚠ internal error: %v", r))
			outcome, status, ok = OutcomeFailed, "Failed: internal error", true
		}
	}()

	total := len(queue)
	if !out.send(Event{Type: EventTypeRunStarted, Running: true, Total: total, Status: fmt.Sprintf("Running %d command(s)…", total)}) {
		logging.Logger.Warn("observer gone before run began", "run_id", s.id)
		return OutcomeFailed, "", false
	}

	outcome = OutcomeSucceeded
	for i, j := range queue {
		if s.cancel.Load() {
			break
		}

		name := c.tool + " " + j.DisplayName
		if j.IgnoresRelease(opts) {
			out.line("ℹ ignoring " + job.ReleaseFlag + " for " + name)
		}
		out.status(fmt.Sprintf("[%d/%d] %s", i+1, total, name))

		exit, err := c.supervisor.Run(supervisor.Request{
			Spec: supervisor.Spec{
				Path: c.tool,
				Args: j.CommandLine(opts),
				Dir:  c.workdir,
				Env:  c.env,
			},
			Slot:     &s.slot,
			Cancel:   &s.cancel,
			OnStdout: out.line,
			OnStderr: func(line string) { out.line(stderrPrefix + line) },
		})
		if err != nil {
			logging.Logger.Warn("job failed to run", "run_id", s.id, "job", j.DisplayName, "error", err)
			out.line(fmt.Sprintf("⚠ failed to run %s: %v", name, err))
			status = fmt.Sprintf("Failed: %v", err)
			out.status(status)
			outcome = OutcomeFailed
			break
		}

		if !exit.Success() {
			out.line(fmt.Sprintf("✖ %s exited with status %s", name, exit))
			outcome = OutcomeFailed
			break
		}
		out.line(fmt.Sprintf("✔ %s completed", name))
	}

	switch {
	case s.cancel.Load():
		return OutcomeCancelled, StatusCancelled, true
	case status != "":
		return outcome, status, true
	default:
		return outcome, StatusIdle, true
	}
}

// observer wraps a Sink and stops delivering after its first failure.
// Output callbacks call it from both stream readers concurrently.
type observer struct {
	sink  Sink
	runID string
	gone  atomic.Bool
}

func (o *observer) send(event Event) bool {
	if o.gone.Load() {
		return false
	}
	event.RunID = o.runID
	if err := o.sink.Send(event); err != nil {
		if !o.gone.Swap(true) {
			logging.Logger.Debug("observer detached", "run_id", o.runID, "error", err)
		}
		return false
	}
	return true
}

func (o *observer) line(text string) {
	o.send(Event{Type: EventTypeOutput, Line: text})
}

func (o *observer) status(text string) {
	o.send(Event{Type: EventTypeStatus, Status: text})
}
