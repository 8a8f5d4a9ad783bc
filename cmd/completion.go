package cmd

import (
	"strings"

	"github.com/cargo-runner/cargo-runner/internal/catalog"
	"github.com/spf13/cobra"
)

// completeCommandNames provides completion for catalog command names,
// including the ones added by the config file
func completeCommandNames(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c := catalog.Builtin()
	if s, err := loadSettings(); err == nil {
		c = s.config.Catalog()
	}

	var completions []string
	for _, ref := range c.Refs() {
		d, _ := c.Lookup(ref)
		if strings.HasPrefix(d.Subcommand, toComplete) {
			// Format: name\tlabel (tab-separated for description)
			completions = append(completions, d.Subcommand+"\t"+d.Label)
		}
	}

	return completions, cobra.ShellCompDirectiveNoFileComp
}
