package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/cargo-runner/cargo-runner/internal/logging"
	"github.com/cargo-runner/cargo-runner/internal/telemetry"
	"github.com/cargo-runner/cargo-runner/internal/version"
	"github.com/spf13/cobra"
)

var (
	workspaceFlag string
	toolFlag      string
	configFlag    string
	logFileFlag   string
)

// skipTelemetry lists commands that handle their own telemetry or shouldn't be tracked
var skipTelemetry = map[string]bool{
	"cargo-runner": true, // runs the TUI, which has own telemetry
	"mcp":          true, // has own telemetry
	"tui":          true, // has own telemetry
	"completion":   true, // shell completion
	"__complete":   true, // internal completion
}

// exitError ends the process with code without printing anything.
// The command already reported what went wrong.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "cargo-runner",
	Short: "Run cargo commands from a terminal UI",
	Long: `A terminal UI for running cargo commands in a Rust workspace.

Pick one or more commands (build, run, test, clippy, ...), set release mode
and extra arguments, and watch the output live. Commands run one at a time
in the order they were picked and stop at the first failure.

Without a subcommand the TUI is started.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logPath := logFileFlag
		if logPath == "" {
			logPath = logging.GetLogPath()
		}
		if err := logging.Init(logPath); err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}

		// Track CLI command usage (skip commands with own telemetry or completion)
		name := cmd.Name()
		if skipTelemetry[name] {
			return nil
		}
		if parent := cmd.Parent(); parent != nil && parent.Name() == "completion" {
			return nil
		}
		telemetry.CLICommandStart(name)
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		telemetry.CLICommandEnd()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return tuiCmd.RunE(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	telemetry.Init()

	err := RootCmd.Execute()
	if err == nil {
		telemetry.Flush()
		return
	}

	var exit *exitError
	if !errors.As(err, &exit) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		telemetry.Error(err)
		exit = &exitError{code: 1}
	}
	telemetry.Flush()
	os.Exit(exit.code)
}

func init() {
	// Set version for --version flag
	RootCmd.Version = version.Version

	// Don't show usage on errors - only show it when explicitly requested
	RootCmd.SilenceUsage = true
	// Execute prints errors itself so that exitError stays silent
	RootCmd.SilenceErrors = true

	RootCmd.PersistentFlags().StringVarP(&workspaceFlag, "workspace", "C", "",
		"Workspace directory the commands run in (default: current directory)")
	RootCmd.PersistentFlags().StringVar(&toolFlag, "tool", "",
		"Build tool to invoke (default: cargo)")
	RootCmd.PersistentFlags().StringVar(&configFlag, "config", "",
		"Config file (default: <workspace>/.config/cargo-runner.toml, then the user config)")
	RootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "",
		"Log file (default: $XDG_STATE_HOME/cargo-runner/cargo-runner.log)")
}
