package cmd

import (
	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/batch"
	"github.com/harrison/xslprep/internal/display"
)

// NewLibsCommand creates the libs command
func NewLibsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "libs",
		Short: "List library markers and the combined reference pattern",
		Long: `Libs opens every configured library archive, reads its Maven descriptor
and prints the marker each library contributes to the reference pattern.
Missing or unreadable archives are reported as warnings.`,
		Args: cobra.NoArgs,
		RunE: libsCommand,
	}
}

func libsCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := batch.New(cfg, batch.Deps{})
	if err != nil {
		return err
	}

	index := runner.Libraries()
	if w := display.WarnArchives(index.Warnings); !w.Empty() {
		w.Display(cmd.ErrOrStderr(), stdoutIsTerminal(cmd))
	}
	return display.WriteLibraries(cmd.OutOrStdout(), index)
}
