// Package mcp provides an MCP (Model Context Protocol) server for cargo-runner.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/runner"
	"github.com/cargo-runner/cargo-runner/internal/telemetry"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// maxOutputSize is the maximum size of run output to return (100KB)
const maxOutputSize = 100 * 1024

// Server wraps the MCP server with the run controller.
type Server struct {
	mcpServer  *server.MCPServer
	controller *runner.Controller
	tools      []mcp.Tool
}

// NewServer creates a new MCP server running commands through controller.
func NewServer(version string, controller *runner.Controller) *Server {
	s := &Server{controller: controller}

	s.mcpServer = server.NewMCPServer(
		"cargo-runner",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcpServer)
}

// ListToolNames returns the names of the registered tools.
func (s *Server) ListToolNames() []string {
	names := make([]string, 0, len(s.tools))
	for _, tool := range s.tools {
		names = append(names, tool.Name)
	}
	return names
}

func (s *Server) registerTools() {
	s.addTool(mcp.NewTool("cargo_commands",
		mcp.WithDescription("List the commands that cargo_run accepts, in picker order"),
	), s.handleCommands)

	s.addTool(mcp.NewTool("cargo_run",
		mcp.WithDescription("Run commands in order in the workspace and wait for them. Stops at the first failure."),
		mcp.WithArray("commands",
			mcp.Description(`Command names from cargo_commands, run in this order (e.g. ["build", "test"]). Empty runs the custom command or the default action.`),
			mcp.WithStringItems(),
		),
		mcp.WithBoolean("release",
			mcp.Description("Pass --release to every command that supports it (default: false)"),
		),
		mcp.WithString("cargo_args",
			mcp.Description("Extra arguments for the tool, shell-quoted (e.g. \"--features serde\")"),
		),
		mcp.WithString("program_args",
			mcp.Description("Arguments after -- for commands that accept them, shell-quoted"),
		),
		mcp.WithString("custom",
			mcp.Description("Custom command line such as \"cargo bench --no-run\", used when commands is empty"),
		),
	), s.handleRun)

	s.addTool(mcp.NewTool("cargo_stop",
		mcp.WithDescription("Stop the active run and kill its running process"),
	), s.handleStop)
}

func (s *Server) addTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.tools = append(s.tools, tool)
	s.mcpServer.AddTool(tool, handler)
}

// jsonResult marshals a result to JSON and returns a tool result.
func jsonResult(result any) (*mcp.CallToolResult, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(resultJSON)), nil
}

func (s *Server) handleCommands(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c := s.controller.Catalog()

	commands := make([]map[string]any, 0)
	for _, ref := range c.Refs() {
		d, _ := c.Lookup(ref)
		commands = append(commands, map[string]any{
			"name":          d.Subcommand,
			"label":         d.Label,
			"group":         ref.Group.String(),
			"release":       d.SupportsRelease,
			"trailing_args": d.AllowsTrailingArgs,
		})
	}

	result := map[string]any{
		"tool":     s.controller.Tool(),
		"commands": commands,
	}
	if d, ok := c.Default(); ok {
		result["default"] = d.Subcommand
	}
	return jsonResult(result)
}

func (s *Server) handleRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	names := request.GetStringSlice("commands", nil)

	selection, err := resolveCommands(s.controller.Catalog(), names)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := runner.Request{
		Selection:       selection,
		Custom:          request.GetString("custom", ""),
		CargoArgsText:   request.GetString("cargo_args", ""),
		ProgramArgsText: request.GetString("program_args", ""),
		Release:         request.GetBool("release", false),
	}

	var (
		mu      sync.Mutex
		output  strings.Builder
		status  string
		total   int
		started = time.Now()
	)
	outcome, err := s.controller.Run(ctx, req, func(e runner.Event) {
		mu.Lock()
		defer mu.Unlock()
		switch e.Type {
		case runner.EventTypeRunStarted:
			output.Reset()
			total = e.Total
			telemetry.RunStarted("mcp", e.Total, req.Release)
		case runner.EventTypeOutput:
			output.WriteString(e.Line)
			output.WriteByte('\n')
		}
		if e.Status != "" {
			status = e.Status
		}
	})

	mu.Lock()
	defer mu.Unlock()

	if err != nil {
		msg := status
		if text := strings.TrimSpace(output.String()); text != "" {
			msg = text
		}
		return mcp.NewToolResultError(msg), nil
	}

	telemetry.RunFinished("mcp", string(outcome), time.Since(started))

	content := output.String()
	if len(content) > maxOutputSize {
		content = "... (truncated)\n" + content[len(content)-maxOutputSize:]
	}

	return jsonResult(map[string]any{
		"outcome":     outcome,
		"status":      status,
		"commands":    total,
		"duration_ms": time.Since(started).Milliseconds(),
		"output":      content,
	})
}

func (s *Server) handleStop(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stopped := s.controller.Stop()
	return jsonResult(map[string]any{
		"stopped": stopped,
	})
}

// errUnknownCommand is returned for a command name missing from the catalog
var errUnknownCommand = errors.New("unknown command")

// resolveCommands maps command names to catalog refs, keeping their order
func resolveCommands(c *catalog.Catalog, names []string) ([]catalog.Ref, error) {
	refs := make([]catalog.Ref, 0, len(names))
	for _, name := range names {
		ref, ok := c.Find(name)
		if !ok {
			return nil, fmt.Errorf("%w %q (see cargo_commands)", errUnknownCommand, name)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
