package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/xslprep/internal/journal"
)

// NewHistoryCommand creates the history command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [RUN_ID]",
		Short: "Show recorded builds",
		Long: `History lists recent builds from the journal, newest first.
With a RUN_ID it lists the per-file results of that build.`,
		Args: cobra.MaximumNArgs(1),
		RunE: historyCommand,
	}

	cmd.Flags().Int("limit", 10, "Number of builds to show (0 = all)")

	return cmd
}

func historyCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbPath := cfg.Resolve(cfg.Journal.DBPath)
	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(cmd.OutOrStdout(), "No builds recorded yet.")
		return nil
	}

	store, err := journal.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer store.Close()

	if len(args) == 1 {
		recs, err := store.GetFileResults(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeFileRecords(cmd.OutOrStdout(), recs, stdoutIsTerminal(cmd))
	}

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	return writeRuns(cmd.OutOrStdout(), runs, stdoutIsTerminal(cmd))
}

func writeRuns(w io.Writer, runs []*journal.Run, colored bool) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No builds recorded yet.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tSTARTED\tFILES\tOK\tSKIPPED\tFAILED\tSTATUS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			r.ID, r.StartedAt.Local().Format(time.DateTime), r.TotalFiles, r.Succeeded, r.Skipped, r.Failed,
			runStatus(r, colored))
	}
	return tw.Flush()
}

func runStatus(r *journal.Run, colored bool) string {
	status, attr := "ok", color.FgGreen
	switch {
	case r.FinishedAt.IsZero():
		status, attr = "incomplete", color.FgYellow
	case !r.Success:
		status, attr = "failed", color.FgRed
	}
	if !colored {
		return status
	}
	return color.New(attr).Sprint(status)
}

func writeFileRecords(w io.Writer, recs []*journal.FileRecord, colored bool) error {
	if len(recs) == 0 {
		_, err := fmt.Fprintln(w, "No files recorded for this build.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tSTATUS\tLINES\tREWRITTEN\tERROR")
	for _, r := range recs {
		status := r.Status
		if colored && r.Status == journal.StatusFailed {
			status = color.New(color.FgRed).Sprint(status)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.RelPath, status, r.Lines, r.Rewritten, r.ErrorMessage)
	}
	return tw.Flush()
}
