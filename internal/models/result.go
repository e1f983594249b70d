package models

import "time"

// File processing status constants
const (
	StatusSuccess = "success" // Rewritten and handed to the compiler
	StatusFailed  = "failed"  // Read, rewrite, transform or write failed
	StatusSkipped = "skipped" // Unchanged since the last successful build
)

// FileResult represents the outcome of preparing a single module
type FileResult struct {
	FileSetDir string        // Base directory of the owning file-set
	Source     string        // Absolute source path
	Dest       string        // Absolute destination path
	RelPath    string        // Slash-separated path below both roots
	Status     string        // Status: "success", "failed", "skipped"
	Lines      int           // Lines read
	Rewritten  int           // Lines that contained a rewritten reference
	Digest     string        // Content fingerprint used for incremental builds
	Error      error         // Error if processing failed
	Duration   time.Duration // Time taken to process
}

// BatchResult represents the aggregate outcome of one build
type BatchResult struct {
	RunID           string        // Journal run identifier, empty without a journal
	CombinedPattern string        // Marker pattern used for the whole batch
	Libraries       int           // Number of library markers discovered
	FileSets        int           // Number of file-sets processed
	Warnings        int           // Non-fatal warnings (missing archives, unreadable entries)
	Results         []FileResult  // One entry per selected file
	Duration        time.Duration // Total batch time
}

// Count returns how many results have the given status.
func (b *BatchResult) Count(status string) int {
	n := 0
	for _, r := range b.Results {
		if r.Status == status {
			n++
		}
	}
	return n
}

// Failed returns the failed results in processing order.
func (b *BatchResult) Failed() []FileResult {
	var failed []FileResult
	for _, r := range b.Results {
		if r.Status == StatusFailed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Success reports whether no file failed.
func (b *BatchResult) Success() bool {
	return b.Count(StatusFailed) == 0
}

// RewrittenLines sums rewritten lines across all results.
func (b *BatchResult) RewrittenLines() int {
	n := 0
	for _, r := range b.Results {
		n += r.Rewritten
	}
	return n
}
