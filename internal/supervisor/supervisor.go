// Package supervisor runs one external process at a time and streams its
// output line by line.
package supervisor

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/cargo-runner/cargo-runner/internal/logging"
	"golang.org/x/sync/errgroup"
)

var (
	ErrSpawnFailed          = errors.New("spawn failed")
	ErrMissingOutputPipe    = errors.New("missing output pipe")
	ErrProcessHandleMissing = errors.New("child process missing")
)

// maxLineSize bounds a single output line; longer lines end the stream
const maxLineSize = 1024 * 1024

// LineFunc receives one line of output, without its line terminator
type LineFunc func(line string)

// Request is one process to run to completion
type Request struct {
	Spec     Spec
	Slot     *Slot
	Cancel   *atomic.Bool
	OnStdout LineFunc
	OnStderr LineFunc
}

// Supervisor spawns processes and streams their output
type Supervisor struct {
	executor ProcessExecutor
}

// New creates a supervisor. A nil executor uses the real one.
func New(executor ProcessExecutor) *Supervisor {
	if executor == nil {
		executor = &RealProcessExecutor{}
	}
	return &Supervisor{executor: executor}
}

// Run spawns the process, streams both outputs until they end or the cancel
// flag is raised, and waits for the process to exit.
//
// The process is published to req.Slot for its whole lifetime so it can be
// killed from outside. Both readers are joined before Run returns, so no line
// is delivered after that.
func (s *Supervisor) Run(req Request) (ExitStatus, error) {
	if req.Slot == nil {
		req.Slot = &Slot{}
	}
	if req.Cancel == nil {
		req.Cancel = &atomic.Bool{}
	}

	proc, err := s.executor.Start(req.Spec)
	if err != nil {
		return ExitStatus{}, err
	}

	if proc.Stdout == nil || proc.Stderr == nil {
		closeStream(proc.Stdout)
		closeStream(proc.Stderr)
		_ = proc.Handle.Kill()
		_, _ = proc.Handle.Wait()
		return ExitStatus{}, ErrMissingOutputPipe
	}

	started := time.Now()
	req.Slot.Store(proc.Handle)
	pid := proc.Handle.Pid()
	logging.Logger.Debug("process spawned", "pid", pid, "path", req.Spec.Path, "args", req.Spec.Args)

	// A cancel that arrived while spawning found the slot empty
	if req.Cancel.Load() {
		_ = proc.Handle.Kill()
	}

	var readers errgroup.Group
	readers.Go(func() error {
		streamLines(proc.Stdout, req.Cancel, req.OnStdout)
		return nil
	})
	readers.Go(func() error {
		streamLines(proc.Stderr, req.Cancel, req.OnStderr)
		return nil
	})

	handle := req.Slot.Load()
	if handle == nil {
		_ = proc.Handle.Kill()
		_, _ = proc.Handle.Wait()
		_ = readers.Wait()
		return ExitStatus{}, ErrProcessHandleMissing
	}

	// The slot keeps the handle until the readers are done: a descendant
	// can hold the pipes open after the process itself has exited.
	status, waitErr := handle.Wait()
	_ = readers.Wait()
	req.Slot.Clear()

	if waitErr != nil {
		return ExitStatus{}, fmt.Errorf("waiting for process: %w", waitErr)
	}

	logging.Logger.Debug("process exited", "pid", pid, "status", status.String(), "duration", time.Since(started))
	return status, nil
}

// streamLines delivers r line by line until EOF, a read error, an invalid
// UTF-8 line or the cancel flag. Once delivery stops for any reason but
// cancel, the rest of r is drained so the writer never sees a broken pipe.
func streamLines(r io.ReadCloser, cancel *atomic.Bool, deliver LineFunc) {
	defer r.Close()
	defer drain(r, cancel)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for !cancel.Load() && scanner.Scan() {
		if cancel.Load() {
			return
		}

		line := scanner.Bytes()
		if !utf8.Valid(line) {
			logging.Logger.Debug("stopping output stream on undecodable line")
			return
		}

		if deliver != nil {
			deliver(string(line))
		}
	}

	if err := scanner.Err(); err != nil {
		logging.Logger.Debug("output stream ended", "error", err)
	}
}

// drain discards r until EOF or the cancel flag
func drain(r io.Reader, cancel *atomic.Bool) {
	buf := make([]byte, 32*1024)
	for !cancel.Load() {
		if _, err := r.Read(buf); err != nil {
			return
		}
	}
}

func closeStream(r io.ReadCloser) {
	if r != nil {
		r.Close()
	}
}
