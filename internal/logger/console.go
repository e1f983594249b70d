package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/xslprep/internal/models"
)

// ConsoleLogger logs build progress to a writer with timestamps.
// Color output is enabled when the writer is a terminal and NO_COLOR is unset.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	progress    *ProgressBar
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded. An empty or invalid
// logLevel means "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) { cl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) { cl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) { cl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) { cl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) { cl.logWithLevel("ERROR", message) }

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !allows(cl.logLevel, strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	label := level
	if cl.colorOutput {
		label = levelColor(level).Sprint(level)
	}
	fmt.Fprintf(cl.writer, "[%s] [%s] %s\n", timestamp(), label, message)
}

func levelColor(level string) *color.Color {
	switch level {
	case "TRACE":
		return color.New(color.FgHiBlack)
	case "DEBUG":
		return color.New(color.FgCyan)
	case "WARN":
		return color.New(color.FgYellow)
	case "ERROR":
		return color.New(color.FgRed)
	default:
		return color.New(color.FgBlue)
	}
}

// LogFileSetStart announces a file-set at INFO level and resets the progress bar.
// Format: "[HH:MM:SS] Processing <dir>: <n> files"
func (cl *ConsoleLogger) LogFileSetStart(dir string, files int) {
	if cl.writer == nil || !allows(cl.logLevel, "info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.progress = NewProgressBar(files, 20, cl.colorOutput)
	name := dir
	if cl.colorOutput {
		name = color.New(color.Bold).Sprint(dir)
	}
	fmt.Fprintf(cl.writer, "[%s] Processing %s: %d files\n", timestamp(), name, files)
}

// LogFileResult logs one file outcome. Failures are always shown at ERROR level;
// successes and skips are DEBUG, followed by a progress line at INFO.
func (cl *ConsoleLogger) LogFileResult(result models.FileResult) {
	if result.Status == models.StatusFailed {
		cl.LogError(fmt.Sprintf("%s: %v", result.RelPath, result.Error))
	} else {
		cl.LogDebug(fmt.Sprintf("%s: %s (%d lines, %d rewritten, %s)",
			result.RelPath, result.Status, result.Lines, result.Rewritten, formatDuration(result.Duration)))
	}

	if cl.writer == nil || !allows(cl.logLevel, "info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	if cl.progress == nil {
		return
	}
	cl.progress.Increment()
	fmt.Fprintf(cl.writer, "[%s] Progress: %s\n", timestamp(), cl.progress.Render())
}

// LogSummary logs the batch summary at INFO level.
func (cl *ConsoleLogger) LogSummary(result models.BatchResult) {
	if cl.writer == nil || !allows(cl.logLevel, "info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	failed := result.Count(models.StatusFailed)

	header := "=== Build Summary ==="
	succeeded := fmt.Sprintf("Succeeded: %d", result.Count(models.StatusSuccess))
	failedLine := fmt.Sprintf("Failed: %d", failed)
	if cl.colorOutput {
		header = color.New(color.Bold).Sprint(header)
		succeeded = color.New(color.FgGreen).Sprint(succeeded)
		if failed > 0 {
			failedLine = color.New(color.FgRed).Sprint(failedLine)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", ts, header)
	fmt.Fprintf(&sb, "[%s] Pattern: %s (%d libraries)\n", ts, result.CombinedPattern, result.Libraries)
	fmt.Fprintf(&sb, "[%s] Files: %d in %d file-sets\n", ts, len(result.Results), result.FileSets)
	fmt.Fprintf(&sb, "[%s] %s\n", ts, succeeded)
	fmt.Fprintf(&sb, "[%s] Skipped: %d\n", ts, result.Count(models.StatusSkipped))
	fmt.Fprintf(&sb, "[%s] %s\n", ts, failedLine)
	fmt.Fprintf(&sb, "[%s] Rewritten lines: %d\n", ts, result.RewrittenLines())
	if result.Warnings > 0 {
		fmt.Fprintf(&sb, "[%s] Warnings: %d\n", ts, result.Warnings)
	}
	fmt.Fprintf(&sb, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))

	if failed > 0 {
		fmt.Fprintf(&sb, "[%s] Failed files:\n", ts)
		for _, f := range result.Failed() {
			fmt.Fprintf(&sb, "[%s]   - %s\n", ts, f.RelPath)
		}
	}

	io.WriteString(cl.writer, sb.String())
}
