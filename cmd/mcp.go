package cmd

import (
	"github.com/cargo-runner/cargo-runner/internal/mcp"
	"github.com/cargo-runner/cargo-runner/internal/version"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets AI agents run cargo commands in the workspace through the MCP
protocol, with the same catalog and configuration as the TUI.

Tools:
  cargo_commands   List the available commands
  cargo_run        Run commands in order and return their output
  cargo_stop       Stop the active run

Example configuration for .mcp.json:
  {
    "mcpServers": {
      "cargo-runner": {
        "command": "cargo-runner",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := loadSettings()
		if err != nil {
			return err
		}

		controller := s.newController()
		defer func() {
			controller.Stop()
			controller.Wait()
		}()

		server := mcp.NewServer(version.Version, controller)
		return server.Serve()
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
