package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/cargo-runner/cargo-runner/internal/runner"
	"github.com/cargo-runner/cargo-runner/internal/telemetry"
	"github.com/spf13/cobra"
)

var (
	runRelease     bool
	runCargoArgs   string
	runProgramArgs string
	runCustom      string
	runJSON        bool
)

var runCmd = &cobra.Command{
	Use:   "run [command...]",
	Short: "Run commands without the TUI",
	Long: `Run one or more commands in order and wait for them to finish.

Commands are catalog names (see 'cargo-runner commands'). They run one at a
time in the given order and the run stops at the first failure. Without
names, --custom is run, or the default action when --custom is empty.

Output lines go to stdout, status lines to stderr. Ctrl+C stops the running
command and everything it spawned.

Examples:
  # Build then test in release mode
  cargo-runner run build test --release

  # Pass flags to cargo and to the program
  cargo-runner run run --cargo-args "--features cli" --program-args "--verbose"

  # Run a command that is not in the catalog
  cargo-runner run --custom "cargo bench --no-run"

  # Print events as JSON, one per line
  cargo-runner run check --json

Exit codes:
  0 if every command succeeded, 1 if one failed, the run was stopped or the
  request was invalid.`,
	ValidArgsFunction: completeCommandNames,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		controller := s.newController()
		selection, err := resolveNames(controller.Catalog(), args)
		if err != nil {
			return err
		}

		// Flags override the config file
		req := runner.Request{
			Selection:       selection,
			Custom:          runCustom,
			CargoArgsText:   s.config.CargoArgs,
			ProgramArgsText: s.config.ProgramArgs,
			Release:         s.config.Release,
		}
		if cmd.Flags().Changed("release") {
			req.Release = runRelease
		}
		if cmd.Flags().Changed("cargo-args") {
			req.CargoArgsText = runCargoArgs
		}
		if cmd.Flags().Changed("program-args") {
			req.ProgramArgsText = runProgramArgs
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		started := time.Now()
		printEvent := eventPrinter(cmd, runJSON)
		outcome, err := controller.Run(ctx, req, func(e runner.Event) {
			if e.Type == runner.EventTypeRunStarted {
				telemetry.RunStarted("cli", e.Total, req.Release)
			}
			printEvent(e)
		})
		if err != nil {
			// The rejection was printed as a run event
			return &exitError{code: 1}
		}

		telemetry.RunFinished("cli", string(outcome), time.Since(started))

		if outcome != runner.OutcomeSucceeded {
			return &exitError{code: 1}
		}
		return nil
	},
}

// eventPrinter writes run events to the command's outputs
func eventPrinter(cmd *cobra.Command, asJSON bool) func(runner.Event) {
	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()

	if asJSON {
		encoder := json.NewEncoder(out)
		return func(e runner.Event) {
			_ = encoder.Encode(e)
		}
	}

	return func(e runner.Event) {
		switch e.Type {
		case runner.EventTypeOutput:
			fmt.Fprintln(out, e.Line)
		default:
			if e.Status != "" {
				fmt.Fprintf(errOut, "==> %s\n", e.Status)
			}
		}
	}
}

// resolveNames maps command names to catalog refs, keeping their order
func resolveNames(c *catalog.Catalog, names []string) ([]catalog.Ref, error) {
	refs := make([]catalog.Ref, 0, len(names))
	for _, name := range names {
		ref, ok := c.Find(name)
		if !ok {
			return nil, fmt.Errorf("unknown command %q (see 'cargo-runner commands')", name)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

func init() {
	RootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&runRelease, "release", "r", false,
		"Pass --release to every command that supports it")
	runCmd.Flags().StringVar(&runCargoArgs, "cargo-args", "",
		"Extra arguments for the tool, shell-quoted")
	runCmd.Flags().StringVar(&runProgramArgs, "program-args", "",
		"Arguments after -- for commands that accept them, shell-quoted")
	runCmd.Flags().StringVar(&runCustom, "custom", "",
		"Custom command line, used when no command names are given")
	runCmd.Flags().BoolVar(&runJSON, "json", false,
		"Print events as JSON, one per line")
}
