package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/batch"
	"github.com/harrison/xslprep/internal/journal"
	"github.com/harrison/xslprep/internal/logger"
)

// NewBuildCommand creates the build command
func NewBuildCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rewrite and compile every configured file-set",
		Long: `Build indexes the configured library archives, resolves every file-set
in order and rewrites each selected module into the output directory.

A file that fails is logged and the build continues with the remaining
files; the build then exits with an error once everything was processed.
Use --fail-fast to stop scheduling files after the first failure.

Examples:
  xslprep build
  xslprep build --config ci.yaml --max-concurrency 4
  xslprep build --incremental        # skip modules unchanged since the last build
  xslprep build --no-journal --log-level debug`,
		Args: cobra.NoArgs,
		RunE: buildCommand,
	}

	cmd.Flags().String("output-dir", "", "Output directory (default from config: target/xsl)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run logs")
	cmd.Flags().Int("max-concurrency", 1, "Files processed in parallel within a file-set")
	cmd.Flags().Bool("fail-fast", false, "Stop after the first failed file")
	cmd.Flags().Bool("incremental", false, "Skip files unchanged since the last successful build")
	cmd.Flags().Bool("no-journal", false, "Do not record this build in the journal")

	return cmd
}

func buildCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	cfg.MergeWithFlags(flagOverrides(cmd))
	if err := cfg.Validate(); err != nil {
		return err
	}

	console := logger.NewConsoleLogger(cmd.OutOrStdout(), cfg.LogLevel)
	var log logger.BuildLogger = console

	fileLog, err := logger.NewFileLogger(cfg.Resolve(cfg.LogDir), cfg.LogLevel)
	if err != nil {
		console.LogWarn(fmt.Sprintf("run log disabled: %v", err))
	} else {
		defer fileLog.Close()
		log = logger.NewMultiLogger(console, fileLog)
	}

	deps := batch.Deps{Logger: log}
	if cfg.Journal.Enabled {
		store, err := journal.NewStore(cfg.Resolve(cfg.Journal.DBPath))
		if err != nil {
			return fmt.Errorf("failed to open journal: %w", err)
		}
		defer store.Close()
		deps.Journal = store
	}

	runner, err := batch.New(cfg, deps)
	if err != nil {
		return err
	}

	_, err = runner.Run(cmd.Context())
	return err
}
