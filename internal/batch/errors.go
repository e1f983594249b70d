package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Op names the per-file stage that failed.
type Op string

const (
	OpRead      Op = "read"
	OpRewrite   Op = "rewrite"
	OpTransform Op = "transform"
	OpCompile   Op = "compile"
)

// ConfigError stops a batch before any file is processed.
type ConfigError struct {
	Field string // Configuration key at fault (optional)
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %v", e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FileError is the failure of one file. It is recorded and logged where it
// happens; the batch carries on with the remaining files.
type FileError struct {
	RelPath   string
	Source    string
	Op        Op
	Err       error
	Timestamp time.Time
}

// NewFileError creates a FileError with the current timestamp.
func NewFileError(rel, source string, op Op, err error) *FileError {
	return &FileError{RelPath: rel, Source: source, Op: op, Err: err, Timestamp: time.Now()}
}

func (e *FileError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s", e.Op, e.RelPath)
	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}
	return sb.String()
}

func (e *FileError) Unwrap() error { return e.Err }

// BatchError is returned once, after every file-set has been processed, when
// at least one file failed. It only carries counts: each failure was already
// reported on its own.
type BatchError struct {
	Failed int
	Total  int
	// Stopped is set when fail-fast or cancellation left files unprocessed
	Stopped bool
}

func (e *BatchError) Error() string {
	msg := fmt.Sprintf("build failed: %d of %d files had errors, see the per-file log entries", e.Failed, e.Total)
	if e.Stopped {
		msg += " (stopped early)"
	}
	return msg
}

// IsConfigError checks if the error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// IsBatchError checks if the error is or wraps a BatchError.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}
