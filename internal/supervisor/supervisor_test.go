package supervisor_test

import (
	"errors"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/cargo-runner/cargo-runner/internal/supervisor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector records delivered lines from both streams
type collector struct {
	mu     sync.Mutex
	stdout []string
	stderr []string
}

func (c *collector) onStdout(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stdout = append(c.stdout, line)
}

func (c *collector) onStderr(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stderr = append(c.stderr, line)
}

func (c *collector) lines() ([]string, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.stdout...), append([]string(nil), c.stderr...)
}

func TestRun_Fake_StreamsBothOutputs(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("build", supervisor.FakeScript{
		Stdout:   []string{"Compiling demo", "Finished"},
		Stderr:   []string{"warning: unused"},
		ExitCode: 0,
	})

	var c collector
	slot := &supervisor.Slot{}
	status, err := supervisor.New(executor).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: "cargo", Args: []string{"build"}},
		Slot:     slot,
		Cancel:   &atomic.Bool{},
		OnStdout: c.onStdout,
		OnStderr: c.onStderr,
	})
	require.NoError(t, err)
	require.True(t, status.Success())
	require.Equal(t, "exit status 0", status.String())

	stdout, stderr := c.lines()
	require.Equal(t, []string{"Compiling demo", "Finished"}, stdout)
	require.Equal(t, []string{"warning: unused"}, stderr)
	require.Nil(t, slot.Load(), "slot must be cleared after the process is reaped")
}

func TestRun_Fake_NonZeroExit(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("test", supervisor.FakeScript{ExitCode: 101})

	status, err := supervisor.New(executor).Run(supervisor.Request{
		Spec: supervisor.Spec{Path: "cargo", Args: []string{"test"}},
	})
	require.NoError(t, err)
	require.False(t, status.Success())
	require.Equal(t, 101, status.Code)
}

func TestRun_Fake_SpawnFailed(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("build", supervisor.FakeScript{StartErr: errors.New("no such file")})

	slot := &supervisor.Slot{}
	_, err := supervisor.New(executor).Run(supervisor.Request{
		Spec: supervisor.Spec{Path: "cargo", Args: []string{"build"}},
		Slot: slot,
	})
	require.ErrorIs(t, err, supervisor.ErrSpawnFailed)
	require.Nil(t, slot.Load())
}

func TestRun_Fake_MissingOutputPipe(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("build", supervisor.FakeScript{NoStdout: true, Hold: true})

	_, err := supervisor.New(executor).Run(supervisor.Request{
		Spec: supervisor.Spec{Path: "cargo", Args: []string{"build"}},
	})
	require.ErrorIs(t, err, supervisor.ErrMissingOutputPipe)

	handle := executor.LastHandle()
	require.NotNil(t, handle)
	require.True(t, handle.Exited(), "process must not be left running")
}

func TestRun_Fake_CancelBeforeSpawnKillsImmediately(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("run", supervisor.FakeScript{Stdout: []string{"hello"}, Hold: true})

	cancel := &atomic.Bool{}
	cancel.Store(true)

	var c collector
	status, err := supervisor.New(executor).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: "cargo", Args: []string{"run"}},
		Cancel:   cancel,
		OnStdout: c.onStdout,
		OnStderr: c.onStderr,
	})
	require.NoError(t, err)
	require.Equal(t, syscall.SIGKILL, status.Signal)

	stdout, _ := c.lines()
	require.Empty(t, stdout)
	require.Equal(t, 1, executor.LastHandle().KillCount())
}

func TestRun_Fake_CancelMidStream(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("run", supervisor.FakeScript{
		Stdout: []string{"one", "two", "three", "four"},
		Hold:   true,
	})

	cancel := &atomic.Bool{}
	slot := &supervisor.Slot{}

	var c collector
	onStdout := func(line string) {
		c.onStdout(line)
		if line == "one" {
			cancel.Store(true)
			killed, err := slot.Kill()
			assert.True(t, killed)
			assert.NoError(t, err)
		}
	}

	status, err := supervisor.New(executor).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: "cargo", Args: []string{"run"}},
		Slot:     slot,
		Cancel:   cancel,
		OnStdout: onStdout,
	})
	require.NoError(t, err)
	require.False(t, status.Success())

	stdout, _ := c.lines()
	require.Equal(t, []string{"one"}, stdout)
}

func TestRun_Fake_ReleaseKeepsScriptedOutput(t *testing.T) {
	t.Parallel()
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("run", supervisor.FakeScript{
		Stdout: []string{"first", "second"},
		Stderr: []string{"warning"},
		Hold:   true,
	})

	var c collector
	done := make(chan struct{})
	var status supervisor.ExitStatus
	var runErr error
	go func() {
		defer close(done)
		status, runErr = supervisor.New(executor).Run(supervisor.Request{
			Spec:     supervisor.Spec{Path: "cargo", Args: []string{"run"}},
			OnStdout: c.onStdout,
			OnStderr: c.onStderr,
		})
	}()

	(<-executor.Started()).Release()
	<-done

	require.NoError(t, runErr)
	require.True(t, status.Success())
	stdout, stderr := c.lines()
	require.Equal(t, []string{"first", "second"}, stdout)
	require.Equal(t, []string{"warning"}, stderr)
}

func TestSlot_KillEmpty(t *testing.T) {
	t.Parallel()
	var slot supervisor.Slot
	killed, err := slot.Kill()
	require.False(t, killed)
	require.NoError(t, err)
}

func TestExitStatus_String(t *testing.T) {
	t.Parallel()
	require.Equal(t, "exit status 3", supervisor.ExitStatus{Code: 3}.String())
	require.Equal(t, "signal: killed", supervisor.ExitStatus{Code: -1, Signal: syscall.SIGKILL}.String())
	require.True(t, supervisor.ExitStatus{}.Success())
	require.False(t, supervisor.ExitStatus{Code: -1, Signal: syscall.SIGTERM}.Success())
}

func lookPathSh(t *testing.T) string {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skipf("skipped, binary sh not available: %v", err)
	}
	return sh
}

func TestRun_Real_StdoutStderrAndExitCode(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	var c collector
	status, err := supervisor.New(nil).Run(supervisor.Request{
		Spec: supervisor.Spec{
			Path: sh,
			Args: []string{"-c", "echo out1; echo err1 1>&2; echo out2; exit 3"},
		},
		OnStdout: c.onStdout,
		OnStderr: c.onStderr,
	})
	require.NoError(t, err)
	require.Equal(t, 3, status.Code)

	stdout, stderr := c.lines()
	require.Equal(t, []string{"out1", "out2"}, stdout)
	require.Equal(t, []string{"err1"}, stderr)
}

func TestRun_Real_StdinIsClosed(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	var c collector
	status, err := supervisor.New(nil).Run(supervisor.Request{
		Spec: supervisor.Spec{
			Path: sh,
			Args: []string{"-c", "cat; echo done"},
		},
		OnStdout: c.onStdout,
	})
	require.NoError(t, err)
	require.True(t, status.Success())

	stdout, _ := c.lines()
	require.Equal(t, []string{"done"}, stdout)
}

func TestRun_Real_WorkingDirectory(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)
	dir := t.TempDir()

	var c collector
	_, err := supervisor.New(nil).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: sh, Args: []string{"-c", "pwd -P"}, Dir: dir},
		OnStdout: c.onStdout,
	})
	require.NoError(t, err)

	want, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	stdout, _ := c.lines()
	require.Equal(t, []string{want}, stdout)
}

func TestRun_Real_ExecutableNotFound(t *testing.T) {
	t.Parallel()
	_, err := supervisor.New(nil).Run(supervisor.Request{
		Spec: supervisor.Spec{Path: "cargo-runner-does-not-exist"},
	})
	require.ErrorIs(t, err, supervisor.ErrSpawnFailed)
	var execErr *exec.Error
	require.ErrorAs(t, err, &execErr)
}

func TestRun_Real_KillTerminatesProcessGroup(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	cancel := &atomic.Bool{}
	slot := &supervisor.Slot{}
	onStdout := func(line string) {
		if line == "ready" {
			cancel.Store(true)
			_, err := slot.Kill()
			assert.NoError(t, err)
		}
	}

	done := make(chan struct{})
	var status supervisor.ExitStatus
	var runErr error
	go func() {
		defer close(done)
		status, runErr = supervisor.New(nil).Run(supervisor.Request{
			Spec:     supervisor.Spec{Path: sh, Args: []string{"-c", "echo ready; sleep 30 & sleep 30; wait"}},
			Slot:     slot,
			Cancel:   cancel,
			OnStdout: onStdout,
		})
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("process was not killed")
	}
	require.NoError(t, runErr)
	require.Equal(t, syscall.SIGKILL, status.Signal)
}

func TestRun_Real_UndecodableLineEndsStream(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	var c collector
	status, err := supervisor.New(nil).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: sh, Args: []string{"-c", `printf 'ok\n\377\nafter\n'`}},
		OnStdout: c.onStdout,
	})
	require.NoError(t, err)
	require.True(t, status.Success(), "got %s", status)

	stdout, _ := c.lines()
	require.Equal(t, []string{"ok"}, stdout)
}

func TestRun_Real_OutputAfterUndecodableLineDoesNotBreakThePipe(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	script := `printf 'ok\n\377\n'; sleep 0.3; i=0; while [ $i -lt 2000 ]; do echo line $i; i=$((i+1)); done; exit 0`

	var c collector
	status, err := supervisor.New(nil).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: sh, Args: []string{"-c", script}},
		OnStdout: c.onStdout,
	})
	require.NoError(t, err)
	require.True(t, status.Success(), "got %s", status)

	stdout, _ := c.lines()
	require.Equal(t, []string{"ok"}, stdout)
}

func TestRun_Real_KillAfterExitReachesDescendantHoldingThePipes(t *testing.T) {
	t.Parallel()
	sh := lookPathSh(t)

	cancel := &atomic.Bool{}
	slot := &supervisor.Slot{}
	started := make(chan struct{})
	onStdout := func(line string) {
		if line == "started" {
			close(started)
		}
	}

	done := make(chan struct{})
	var runErr error
	go func() {
		defer close(done)
		_, runErr = supervisor.New(nil).Run(supervisor.Request{
			Spec:     supervisor.Spec{Path: sh, Args: []string{"-c", "sleep 30 & echo started"}},
			Slot:     slot,
			Cancel:   cancel,
			OnStdout: onStdout,
		})
	}()

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("no output from the process")
	}

	// sh has exited by now; the background sleep still holds stdout
	time.Sleep(300 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("run ended while a descendant still held the output")
	default:
	}

	cancel.Store(true)
	killed, err := slot.Kill()
	require.NoError(t, err)
	require.True(t, killed, "slot must hold the process until the output is drained")

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("kill did not reach the descendant")
	}
	require.NoError(t, runErr)
	require.Nil(t, slot.Load())
}

func TestRun_Fake_HandleMissingFromSlot(t *testing.T) {
	t.Parallel()
	slot := &supervisor.Slot{}
	executor := supervisor.NewFakeProcessExecutor()
	executor.Script("run", supervisor.FakeScript{
		Stdout: []string{"one", "two"},
		Hold:   true,
		OnPid:  slot.Clear,
	})

	var returned atomic.Bool
	onStdout := func(string) {
		assert.False(t, returned.Load(), "line delivered after Run returned")
	}

	_, err := supervisor.New(executor).Run(supervisor.Request{
		Spec:     supervisor.Spec{Path: "cargo", Args: []string{"run"}},
		Slot:     slot,
		Cancel:   &atomic.Bool{},
		OnStdout: onStdout,
	})
	returned.Store(true)
	require.ErrorIs(t, err, supervisor.ErrProcessHandleMissing)

	handle := executor.LastHandle()
	require.Equal(t, 1, handle.KillCount())
	require.True(t, handle.Exited(), "process must be reaped")
	require.Nil(t, slot.Load())
}
