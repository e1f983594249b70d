package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/batch"
	"github.com/harrison/xslprep/internal/rewrite"
)

// NewRewriteCommand creates the rewrite command
func NewRewriteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rewrite FILE",
		Short: "Print one rewritten module to stdout",
		Long: `Rewrite applies the library reference rewriting to a single file and
prints the result. Nothing is written to the output directory.

The path used to compute parent escapes is taken from --rel, or else from
the first file-set whose directory contains FILE, or else the file name.

Examples:
  xslprep rewrite src/main/xsl/pages/home.xsl
  xslprep rewrite /tmp/home.xsl --rel pages/home.xsl`,
		Args: cobra.ExactArgs(1),
		RunE: rewriteCommand,
	}

	cmd.Flags().String("rel", "", "Relative path of FILE inside its tree")

	return cmd
}

func rewriteCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := batch.New(cfg, batch.Deps{})
	if err != nil {
		return err
	}
	ending, err := rewrite.ParseLineEnding(cfg.LineEnding)
	if err != nil {
		return err
	}

	file := args[0]
	rel, _ := cmd.Flags().GetString("rel")
	if rel == "" {
		rel = relativeToFileSets(runner, file)
	}
	rctx, err := rewrite.NewContext(rel)
	if err != nil {
		return err
	}

	f, err := os.Open(file)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", file, err)
	}
	defer f.Close()

	rw := rewrite.New(runner.Libraries().Pattern(), ending)
	if _, err := rw.Rewrite(cmd.OutOrStdout(), f, rctx); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", file, err)
	}
	return nil
}

// relativeToFileSets returns file relative to the first file-set directory
// containing it, falling back to its base name.
func relativeToFileSets(runner *batch.Runner, file string) string {
	abs, err := filepath.Abs(file)
	if err != nil {
		return filepath.Base(file)
	}
	for _, fs := range runner.FileSets() {
		base, err := filepath.Abs(fs.EffectiveDir(runner.ProjectDir()))
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(base, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.Base(file)
}
