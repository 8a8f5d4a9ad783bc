package cmd

import (
	"github.com/cargo-runner/cargo-runner/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI",
	Long: `Launch the interactive terminal user interface. This is also what
cargo-runner does without a subcommand.

LAYOUT:
  ┌─ Commands ─────────┬─ Output ────────────────────┐
  │  1 Build    rel    │    Compiling demo v0.1.0    │
  │    Run      rel    │ ✔ cargo build completed     │
  ├─ Options ──────────┤                             │
  │ release  [x]       │                             │
  └────────────────────┴─────────────────────────────┘

KEYBINDINGS:

  Commands:
    ↑/k ↓/j   Move cursor
    space     Pick only this command
    a         Add/remove command (runs in pick order)
    x         Clear the selection
    enter     Run
    s         Stop the running command (kills its process tree)
    r         Toggle --release (only if every picked command supports it)

  Options:
    e         Edit cargo args, program args or custom command
    esc       Back to commands

  Output:
    ↑↓ h/l    Scroll
    g/G       Top/bottom
    f         Toggle follow mode
    w         Toggle line wrap
    c         Copy output
    y         Copy command line

  Global:
    tab       Next panel
    1-3       Jump to panel
    ?         Show help overlay
    q         Quit (stops the running command)

Example:
  cargo-runner -C ~/src/my-crate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		return tui.Start(s.newController(), tui.Options{
			Workspace:   s.workspace,
			Release:     s.config.Release,
			CargoArgs:   s.config.CargoArgs,
			ProgramArgs: s.config.ProgramArgs,
		})
	},
}

func init() {
	RootCmd.AddCommand(tuiCmd)
}
