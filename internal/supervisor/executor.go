package supervisor

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync/atomic"
	"syscall"
)

// ExitStatus is how a process ended
type ExitStatus struct {
	Code   int            // -1 when terminated by a signal
	Signal syscall.Signal // zero unless terminated by a signal
}

// Success reports a zero exit code without a signal
func (s ExitStatus) Success() bool {
	return s.Code == 0 && s.Signal == 0
}

func (s ExitStatus) String() string {
	if s.Signal != 0 {
		return "signal: " + s.Signal.String()
	}
	return fmt.Sprintf("exit status %d", s.Code)
}

// ProcessHandle represents a running process
type ProcessHandle interface {
	Pid() int
	Wait() (ExitStatus, error)
	Kill() error
}

// Spec describes a process to start
type Spec struct {
	Path string   // executable, resolved via PATH
	Args []string // arguments after the executable
	Dir  string   // working directory; empty means the current one
	Env  []string // nil inherits the environment
}

// Process is a started process with its captured output streams
type Process struct {
	Handle ProcessHandle
	Stdout io.ReadCloser
	Stderr io.ReadCloser
}

// ProcessExecutor handles process creation
type ProcessExecutor interface {
	Start(spec Spec) (*Process, error)
}

// RealProcessExecutor implements ProcessExecutor using os/exec
type RealProcessExecutor struct{}

// realProcessHandle wraps exec.Cmd to implement ProcessHandle
type realProcessHandle struct {
	cmd    *exec.Cmd
	exited atomic.Bool
}

func (h *realProcessHandle) Pid() int {
	return h.cmd.Process.Pid
}

func (h *realProcessHandle) Wait() (ExitStatus, error) {
	err := h.cmd.Wait()
	h.exited.Store(true)

	state := h.cmd.ProcessState
	if state == nil {
		return ExitStatus{}, err
	}

	// A non-zero exit is a status, not an error
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return ExitStatus{Code: -1, Signal: ws.Signal()}, nil
	}
	return ExitStatus{Code: state.ExitCode()}, nil
}

// Kill sends SIGKILL to the process group and to any descendant that left it.
// cargo runs rustc and the user's program as children; killing only cargo
// would leave them holding the output pipes. The group outlives its leader
// while members remain, so it is signalled even after the process exited.
func (h *realProcessHandle) Kill() error {
	pid := h.cmd.Process.Pid
	if h.exited.Load() {
		if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
			return fmt.Errorf("failed to kill process group %d: %w", pid, err)
		}
		return nil
	}

	descendants := descendantPIDs(pid)

	if err := syscall.Kill(-pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("failed to kill process group %d: %w", pid, err)
	}

	killStragglers(descendants)
	return nil
}

// Start starts a process with stdout and stderr captured as separate pipes
func (e *RealProcessExecutor) Start(spec Spec) (*Process, error) {
	if spec.Path == "" {
		return nil, fmt.Errorf("%w: empty command", ErrSpawnFailed)
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env

	// Create a new process group so we can kill all children together
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}

	// Pipes are created by hand rather than with StdoutPipe so that Wait
	// never closes them before the readers have drained them.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout: %w", ErrMissingOutputPipe, err)
	}

	stderrR, stderrW, err := os.Pipe()
	if err != nil {
		stdoutR.Close()
		stdoutW.Close()
		return nil, fmt.Errorf("%w: stderr: %w", ErrMissingOutputPipe, err)
	}

	// nil Stdin reads from the null device
	cmd.Stdin = nil
	cmd.Stdout = stdoutW
	cmd.Stderr = stderrW

	if err := cmd.Start(); err != nil {
		stdoutR.Close()
		stdoutW.Close()
		stderrR.Close()
		stderrW.Close()
		return nil, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	// Close write ends in this process (child keeps them)
	stdoutW.Close()
	stderrW.Close()

	return &Process{
		Handle: &realProcessHandle{cmd: cmd},
		Stdout: stdoutR,
		Stderr: stderrR,
	}, nil
}
