package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for xslprep
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "xslprep",
		Short: "Prepare XSL module trees for compilation",
		Long: `xslprep selects XSL modules from configured file-sets, rewrites
references into library archives (xsl-lib:/path/in/lib.xsl) into paths
relative to each module, and hands the result to a compiler or writes it
to the output directory.

Configuration is loaded from .xslprep/config.yaml (or .xslprep/config.toml)
in the current directory unless --config is given.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .xslprep/config.yaml)")

	cmd.AddCommand(NewBuildCommand())
	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewLibsCommand())
	cmd.AddCommand(NewRewriteCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
