package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/config"
)

// loadConfig reads --config when set, otherwise the project config in the
// current directory.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
		return cfg, nil
	}

	cfg, err := config.LoadConfigFromDir(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// flagOverrides collects the build flags the user actually set.
func flagOverrides(cmd *cobra.Command) config.Flags {
	var f config.Flags
	flags := cmd.Flags()
	if flags.Changed("output-dir") {
		v, _ := flags.GetString("output-dir")
		f.OutputDir = &v
	}
	if flags.Changed("log-level") {
		v, _ := flags.GetString("log-level")
		f.LogLevel = &v
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		f.LogDir = &v
	}
	if flags.Changed("max-concurrency") {
		v, _ := flags.GetInt("max-concurrency")
		f.MaxConcurrency = &v
	}
	if flags.Changed("fail-fast") {
		v, _ := flags.GetBool("fail-fast")
		f.FailFast = &v
	}
	if flags.Changed("incremental") {
		v, _ := flags.GetBool("incremental")
		f.Incremental = &v
	}
	if flags.Changed("no-journal") {
		v, _ := flags.GetBool("no-journal")
		f.NoJournal = &v
	}
	return f
}
