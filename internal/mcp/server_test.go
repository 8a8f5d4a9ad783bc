package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/runner"
	"github.com/cargo-runner/cargo-runner/internal/supervisor"
	"github.com/mark3labs/mcp-go/mcp"
)

func newTestServer(t *testing.T) (*Server, *supervisor.FakeProcessExecutor) {
	t.Helper()
	executor := supervisor.NewFakeProcessExecutor()
	controller := runner.NewController(runner.Config{
		Tool:     "cargo",
		Workdir:  t.TempDir(),
		Executor: executor,
	})
	t.Cleanup(func() {
		controller.Stop()
		controller.Wait()
	})
	return NewServer("test", controller), executor
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content item, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", result.Content[0])
	}
	return text.Text
}

func decode(t *testing.T, result *mcp.CallToolResult) map[string]any {
	t.Helper()
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", resultText(t, result))
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(resultText(t, result)), &out); err != nil {
		t.Fatalf("invalid JSON result: %v", err)
	}
	return out
}

func TestListToolNames(t *testing.T) {
	s, _ := newTestServer(t)
	want := []string{"cargo_commands", "cargo_run", "cargo_stop"}
	if got := s.ListToolNames(); !slices.Equal(got, want) {
		t.Errorf("ListToolNames() = %v, want %v", got, want)
	}
}

func TestCommands(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleCommands(context.Background(), callRequest("cargo_commands", nil))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, result)

	if out["tool"] != "cargo" || out["default"] != "run" {
		t.Errorf("tool = %v, default = %v", out["tool"], out["default"])
	}
	commands := out["commands"].([]any)
	if len(commands) != 9 {
		t.Fatalf("expected 9 commands, got %d", len(commands))
	}
	first := commands[0].(map[string]any)
	if first["name"] != "build" || first["group"] != "primary" || first["release"] != true {
		t.Errorf("first command = %v", first)
	}
}

func TestRunInOrder(t *testing.T) {
	s, executor := newTestServer(t)
	executor.Script("build", supervisor.FakeScript{Stdout: []string{"Compiling demo"}})
	executor.Script("test", supervisor.FakeScript{Stderr: []string{"warning: unused"}})

	result, err := s.handleRun(context.Background(), callRequest("cargo_run", map[string]any{
		"commands": []any{"test", "Build"},
		"release":  true,
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, result)

	if out["outcome"] != string(runner.OutcomeSucceeded) || out["status"] != runner.StatusIdle {
		t.Errorf("outcome = %v, status = %v", out["outcome"], out["status"])
	}
	output := out["output"].(string)
	for _, want := range []string{"[stderr] warning: unused", "Compiling demo", "✔ cargo build completed"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}

	specs := executor.Specs()
	if len(specs) != 2 || specs[0].Args[0] != "test" || specs[1].Args[0] != "build" {
		t.Fatalf("unexpected specs: %+v", specs)
	}
	if !slices.Contains(specs[1].Args, "--release") {
		t.Errorf("build should get --release: %v", specs[1].Args)
	}
}

func TestRunFailure(t *testing.T) {
	s, executor := newTestServer(t)
	executor.Script("check", supervisor.FakeScript{ExitCode: 101})

	result, err := s.handleRun(context.Background(), callRequest("cargo_run", map[string]any{
		"commands": []any{"check", "test"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	out := decode(t, result)

	if out["outcome"] != string(runner.OutcomeFailed) {
		t.Errorf("outcome = %v", out["outcome"])
	}
	if executor.StartCount() != 1 {
		t.Errorf("run should stop after the first failure, started %d", executor.StartCount())
	}
}

func TestRunUnknownCommand(t *testing.T) {
	s, executor := newTestServer(t)

	result, err := s.handleRun(context.Background(), callRequest("cargo_run", map[string]any{
		"commands": []any{"build", "deploy"},
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if text := resultText(t, result); !strings.Contains(text, `"deploy"`) {
		t.Errorf("error should name the command: %s", text)
	}
	if executor.StartCount() != 0 {
		t.Error("nothing should run")
	}
}

func TestRunRejectedArgs(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleRun(context.Background(), callRequest("cargo_run", map[string]any{
		"cargo_args": `--features "serde`,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if !result.IsError {
		t.Fatal("expected tool error")
	}
	if text := resultText(t, result); !strings.HasPrefix(text, "⚠ invalid cargo args") {
		t.Errorf("error = %q", text)
	}
}

func TestStopIdle(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleStop(context.Background(), callRequest("cargo_stop", nil))
	if err != nil {
		t.Fatal(err)
	}
	if out := decode(t, result); out["stopped"] != false {
		t.Errorf("stopped = %v, want false", out["stopped"])
	}
}

func TestResolveCommands(t *testing.T) {
	c := catalog.Builtin()

	refs, err := resolveCommands(c, []string{"clippy", "run"})
	if err != nil {
		t.Fatal(err)
	}
	want := []catalog.Ref{{Group: catalog.Secondary, Index: 5}, {Group: catalog.Primary, Index: 1}}
	if !slices.Equal(refs, want) {
		t.Errorf("refs = %v, want %v", refs, want)
	}

	if _, err := resolveCommands(c, []string{"nope"}); !errors.Is(err, errUnknownCommand) {
		t.Errorf("expected errUnknownCommand, got %v", err)
	}
}
