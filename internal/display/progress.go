package display

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"

	"github.com/harrison/xslprep/internal/fileset"
)

// ScanPrinter echoes scan decisions as they happen:
// "  dir/" for directories, "+ path" for accepted files, "- path" for rejected ones.
type ScanPrinter struct {
	writer   io.Writer
	colored  bool
	mu       sync.Mutex
	accepted int
	rejected int
}

// NewScanPrinter creates a printer writing to w.
func NewScanPrinter(w io.Writer, colored bool) *ScanPrinter {
	return &ScanPrinter{writer: w, colored: colored}
}

// Listener returns a ScanListener bound to the printer.
func (p *ScanPrinter) Listener() *fileset.ScanListener {
	return &fileset.ScanListener{
		DirectoryEntered: p.directory,
		FileAccepted:     p.accept,
		FileRejected:     p.reject,
	}
}

func (p *ScanPrinter) directory(rel string) {
	if rel == "" {
		rel = "."
	}
	p.print(color.FgBlue, "  %s/\n", rel)
}

func (p *ScanPrinter) accept(rel string) {
	p.mu.Lock()
	p.accepted++
	p.mu.Unlock()
	p.print(color.FgGreen, "+ %s\n", rel)
}

func (p *ScanPrinter) reject(rel string) {
	p.mu.Lock()
	p.rejected++
	p.mu.Unlock()
	p.print(color.FgHiBlack, "- %s\n", rel)
}

func (p *ScanPrinter) print(attr color.Attribute, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := fmt.Sprintf(format, args...)
	if p.colored {
		c := color.New(attr)
		c.EnableColor()
		line = c.Sprint(line)
	}
	io.WriteString(p.writer, line)
}

// Counts returns how many files were accepted and rejected so far.
func (p *ScanPrinter) Counts() (accepted, rejected int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.accepted, p.rejected
}

// Complete writes the accepted/rejected totals.
func (p *ScanPrinter) Complete() {
	accepted, rejected := p.Counts()
	fmt.Fprintf(p.writer, "%d accepted, %d rejected\n", accepted, rejected)
}
