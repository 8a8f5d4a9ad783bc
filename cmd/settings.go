package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cargo-runner/cargo-runner/internal/config"
	"github.com/cargo-runner/cargo-runner/internal/logging"
	"github.com/cargo-runner/cargo-runner/internal/runner"
	"github.com/cargo-runner/cargo-runner/internal/supervisor"
)

// settings is the configuration of one invocation after flags override the
// config file
type settings struct {
	config    *config.Config
	workspace string
	tool      string
}

func loadSettings() (*settings, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current directory: %w", err)
	}

	workspace := workspaceFlag
	if workspace == "" {
		workspace = cwd
	}

	cfg, err := config.Load(configFlag, workspace)
	if err != nil {
		return nil, err
	}

	// The config file may name the workspace; relative paths are taken
	// from the current directory
	if workspaceFlag == "" && cfg.Workspace != "" {
		workspace = cfg.Workspace
	}
	workspace, err = filepath.Abs(workspace)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace: %w", err)
	}
	info, err := os.Stat(workspace)
	if err != nil {
		return nil, fmt.Errorf("invalid workspace: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid workspace: %s is not a directory", workspace)
	}

	tool := cfg.Tool
	if toolFlag != "" {
		tool = toolFlag
	}
	if tool == "" {
		tool = config.DefaultTool
	}

	logging.Logger.Debug("settings loaded", "config", cfg.Path, "workspace", workspace, "tool", tool)

	return &settings{
		config:    cfg,
		workspace: workspace,
		tool:      tool,
	}, nil
}

// newController creates the run controller for these settings. Processes
// inherit the environment.
func (s *settings) newController() *runner.Controller {
	return runner.NewController(runner.Config{
		Tool:     s.tool,
		Workdir:  s.workspace,
		Catalog:  s.config.Catalog(),
		Executor: &supervisor.RealProcessExecutor{},
	})
}
