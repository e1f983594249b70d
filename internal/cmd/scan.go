package cmd

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/batch"
	"github.com/harrison/xslprep/internal/display"
	"github.com/harrison/xslprep/internal/fileset"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "List the files each file-set selects",
		Long: `Scan resolves every configured file-set and prints the selected files
without rewriting anything.

Examples:
  xslprep scan
  xslprep scan --tree
  xslprep scan --verbose   # show every accept and reject decision`,
		Args: cobra.NoArgs,
		RunE: scanCommand,
	}

	cmd.Flags().Bool("tree", false, "Print selected files as a directory tree")
	cmd.Flags().BoolP("verbose", "v", false, "Print every directory entered and file accepted or rejected")

	return cmd
}

func scanCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	runner, err := batch.New(cfg, batch.Deps{})
	if err != nil {
		return err
	}

	tree, _ := cmd.Flags().GetBool("tree")
	verbose, _ := cmd.Flags().GetBool("verbose")
	out := cmd.OutOrStdout()
	colored := stdoutIsTerminal(cmd)

	total := 0
	for _, fs := range runner.FileSets() {
		fmt.Fprintf(out, "FileSet %s\n", fs)

		var listener *fileset.ScanListener
		var printer *display.ScanPrinter
		if verbose {
			printer = display.NewScanPrinter(out, colored)
			listener = printer.Listener()
		}

		result := fs.Resolve(runner.ProjectDir(), listener)
		if printer != nil {
			printer.Complete()
		}

		switch {
		case tree:
			fmt.Fprint(out, display.RenderTree(result.BaseDir, result.Files))
		case !verbose:
			for _, f := range result.Files {
				fmt.Fprintf(out, "  %s\n", f)
			}
		}
		fmt.Fprintf(out, "%d files\n\n", len(result.Files))

		if w := display.WarnScan(result.BaseDir, result.Warnings); !w.Empty() {
			w.Display(cmd.ErrOrStderr(), colored)
		}
		total += len(result.Files)
	}

	fmt.Fprintf(out, "Total: %d files in %d file-sets\n", total, len(runner.FileSets()))
	return nil
}

// stdoutIsTerminal reports whether the command writes to a color-capable terminal.
func stdoutIsTerminal(cmd *cobra.Command) bool {
	f, ok := cmd.OutOrStdout().(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
