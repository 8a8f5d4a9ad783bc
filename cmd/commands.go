package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var commandsJSON bool

// commandInfo is one catalog entry as printed by the commands command
type commandInfo struct {
	Name         string `json:"name"`
	Label        string `json:"label"`
	Group        string `json:"group"`
	Release      bool   `json:"release"`
	TrailingArgs bool   `json:"trailing_args"`
	Default      bool   `json:"default,omitempty"`
}

var commandsCmd = &cobra.Command{
	Use:   "commands",
	Short: "List the available commands",
	Long: `List the commands that can be picked in the TUI or passed to 'run',
in picker order: primary commands first, then secondary ones.

Extra commands come from [[command]] tables in the config file.

Columns:
  REL    the command accepts --release
  ARGS   program args are passed after --
  *      the default action, run when nothing is picked`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}
		c := s.config.Catalog()
		def, hasDefault := c.Default()

		var commands []commandInfo
		for _, ref := range c.Refs() {
			d, _ := c.Lookup(ref)
			commands = append(commands, commandInfo{
				Name:         d.Subcommand,
				Label:        d.Label,
				Group:        ref.Group.String(),
				Release:      d.SupportsRelease,
				TrailingArgs: d.AllowsTrailingArgs,
				Default:      hasDefault && d.Subcommand == def.Subcommand,
			})
		}

		// Output as JSON or human-readable
		if commandsJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(commands)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "  %-12s %-12s %-10s %-4s %s\n", "NAME", "LABEL", "GROUP", "REL", "ARGS")
		for _, info := range commands {
			marker := " "
			if info.Default {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-12s %-12s %-10s %-4s %s\n",
				marker, info.Name, info.Label, info.Group, yesNo(info.Release), yesNo(info.TrailingArgs))
		}
		fmt.Fprintf(out, "\nTool: %s  Workspace: %s\n", s.tool, s.workspace)
		if s.config.Path != "" {
			fmt.Fprintf(out, "Config: %s\n", s.config.Path)
		}
		return nil
	},
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "-"
}

func init() {
	RootCmd.AddCommand(commandsCmd)
	commandsCmd.Flags().BoolVar(&commandsJSON, "json", false,
		"Output in JSON format")
}
