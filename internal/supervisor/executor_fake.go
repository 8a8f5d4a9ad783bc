package supervisor

import (
	"fmt"
	"io"
	"sync"
	"syscall"
)

// FakeScript describes what a fake process prints and how it ends
type FakeScript struct {
	Stdout   []string
	Stderr   []string
	ExitCode int
	Hold     bool  // keep running after printing until Kill or Release
	StartErr error // returned from Start, wrapped in ErrSpawnFailed
	NoStdout bool  // simulate a missing stdout pipe

	// OnPid runs every time the pid is read. The supervisor reads it once,
	// right after publishing the handle to its slot.
	OnPid func()
}

// FakeProcessHandle implements ProcessHandle for testing
type FakeProcessHandle struct {
	pid      int
	spec     Spec
	exitCode int
	onPid    func()
	written  chan struct{} // closed once the scripted output is written

	mu        sync.Mutex
	exited    bool
	status    ExitStatus
	killCount int
	waitCh    chan struct{}
	stdoutW   *io.PipeWriter
	stderrW   *io.PipeWriter
}

func (h *FakeProcessHandle) Pid() int {
	if h.onPid != nil {
		h.onPid()
	}
	return h.pid
}

// Spec returns the spec the process was started with
func (h *FakeProcessHandle) Spec() Spec {
	return h.spec
}

func (h *FakeProcessHandle) Wait() (ExitStatus, error) {
	<-h.waitCh
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.status, nil
}

func (h *FakeProcessHandle) Kill() error {
	h.mu.Lock()
	h.killCount++
	h.mu.Unlock()
	h.exit(ExitStatus{Code: -1, Signal: syscall.SIGKILL})
	return nil
}

// Release lets a held process exit with its scripted exit code once all of
// its scripted output has been written
func (h *FakeProcessHandle) Release() {
	<-h.written
	h.exit(ExitStatus{Code: h.exitCode})
}

// KillCount returns how many times Kill was called
func (h *FakeProcessHandle) KillCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.killCount
}

// Exited reports whether the process has ended
func (h *FakeProcessHandle) Exited() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exited
}

func (h *FakeProcessHandle) exit(status ExitStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.exited {
		return
	}
	h.exited = true
	h.status = status
	h.stdoutW.Close()
	h.stderrW.Close()
	close(h.waitCh)
}

func writeLines(w *io.PipeWriter, lines []string) {
	for _, line := range lines {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return
		}
	}
}

// FakeProcessExecutor implements ProcessExecutor for testing.
// Scripts are keyed by the first argument (the subcommand).
type FakeProcessExecutor struct {
	mu       sync.Mutex
	nextPID  int
	scripts  map[string]FakeScript
	fallback FakeScript
	specs    []Spec
	handles  []*FakeProcessHandle
	started  chan *FakeProcessHandle
}

// NewFakeProcessExecutor creates a new fake executor
func NewFakeProcessExecutor() *FakeProcessExecutor {
	return &FakeProcessExecutor{
		nextPID: 1000,
		scripts: make(map[string]FakeScript),
		started: make(chan *FakeProcessHandle, 64),
	}
}

// Script sets the behavior for processes whose first argument is subcommand
func (e *FakeProcessExecutor) Script(subcommand string, script FakeScript) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.scripts[subcommand] = script
}

// Fallback sets the behavior for processes without a matching script
func (e *FakeProcessExecutor) Fallback(script FakeScript) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fallback = script
}

// Start creates a fake process
func (e *FakeProcessExecutor) Start(spec Spec) (*Process, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.specs = append(e.specs, spec)

	script := e.fallback
	if len(spec.Args) > 0 {
		if s, ok := e.scripts[spec.Args[0]]; ok {
			script = s
		}
	}

	if script.StartErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawnFailed, script.StartErr)
	}

	stdoutR, stdoutW := io.Pipe()
	stderrR, stderrW := io.Pipe()

	handle := &FakeProcessHandle{
		pid:      e.nextPID,
		spec:     spec,
		exitCode: script.ExitCode,
		onPid:    script.OnPid,
		written:  make(chan struct{}),
		waitCh:   make(chan struct{}),
		stdoutW:  stdoutW,
		stderrW:  stderrW,
	}
	e.nextPID++
	e.handles = append(e.handles, handle)

	go func() {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			writeLines(stdoutW, script.Stdout)
		}()
		go func() {
			defer wg.Done()
			writeLines(stderrW, script.Stderr)
		}()
		wg.Wait()
		close(handle.written)

		if !script.Hold {
			handle.Release()
		}
	}()

	select {
	case e.started <- handle:
	default:
	}

	proc := &Process{Handle: handle, Stdout: stdoutR, Stderr: stderrR}
	if script.NoStdout {
		stdoutR.Close()
		proc.Stdout = nil
	}
	return proc, nil
}

// Started delivers each handle as it is created
func (e *FakeProcessExecutor) Started() <-chan *FakeProcessHandle {
	return e.started
}

// StartCount returns number of times Start was called
func (e *FakeProcessExecutor) StartCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.specs)
}

// Specs returns the spec of every Start call, in order
func (e *FakeProcessExecutor) Specs() []Spec {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Spec{}, e.specs...)
}

// Handles returns all created handles
func (e *FakeProcessExecutor) Handles() []*FakeProcessHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*FakeProcessHandle{}, e.handles...)
}

// LastHandle returns the most recently created handle
func (e *FakeProcessExecutor) LastHandle() *FakeProcessHandle {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.handles) == 0 {
		return nil
	}
	return e.handles[len(e.handles)-1]
}
