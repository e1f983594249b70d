package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/xslprep/internal/library"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Files      []string // Related files (optional)
	Suggestion string   // Action to take (optional)
}

// Display writes the warning. Colored output wraps it in yellow.
func (w Warning) Display(out io.Writer, colored bool) {
	var b strings.Builder

	b.WriteString("Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    " + w.Message + "\n")
	}

	if len(w.Files) > 0 {
		if len(w.Files) == 1 {
			b.WriteString("    Affected file:\n")
		} else {
			b.WriteString("    Affected files:\n")
		}
		for i, file := range w.Files {
			fmt.Fprintf(&b, "      %d. %s\n", i+1, file)
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    " + w.Suggestion + "\n")
	}

	if !colored {
		fmt.Fprint(out, b.String())
		return
	}
	c := color.New(color.FgYellow)
	c.EnableColor()
	fmt.Fprint(out, c.Sprint(b.String()))
}

// WarnArchives summarizes archives that contributed no marker because they
// were missing or unreadable. It returns a zero Warning when there are none.
func WarnArchives(warnings []library.Warning) Warning {
	if len(warnings) == 0 {
		return Warning{}
	}
	files := make([]string, 0, len(warnings))
	for _, w := range warnings {
		files = append(files, fmt.Sprintf("%s (%v)", w.Archive, w.Err))
	}
	return Warning{
		Title:      "Libraries skipped",
		Message:    "References to these libraries will not be rewritten.",
		Files:      files,
		Suggestion: "Check the libraries list in the configuration.",
	}
}

// WarnScan summarizes problems met while resolving one file-set.
func WarnScan(dir string, errs []error) Warning {
	if len(errs) == 0 {
		return Warning{}
	}
	files := make([]string, 0, len(errs))
	for _, err := range errs {
		files = append(files, err.Error())
	}
	return Warning{
		Title: fmt.Sprintf("Incomplete scan of %s", dir),
		Files: files,
	}
}

// Empty reports whether there is nothing to display.
func (w Warning) Empty() bool {
	return w.Title == ""
}
