package display

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/harrison/xslprep/internal/library"
)

// WriteLibraries prints one row per marker followed by the combined pattern.
func WriteLibraries(w io.Writer, ix *library.Index) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MARKER\tGROUP\tARCHIVE")
	for _, m := range ix.Markers {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Token(), m.Group, m.Archive)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(ix.Ignored) > 0 {
		fmt.Fprintf(w, "\nIgnored (not an archive): %d\n", len(ix.Ignored))
	}
	_, err := fmt.Fprintf(w, "\nPattern: %s\n", ix.Pattern())
	return err
}
