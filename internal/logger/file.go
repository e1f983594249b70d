package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/xslprep/internal/models"
)

// DefaultLogDir is the log directory used when none is configured.
const DefaultLogDir = ".xslprep/logs"

// LatestLink is the symlink that points at the most recent run log.
const LatestLink = "latest.log"

// FileLogger writes a timestamped log file per build in the log directory
// and keeps latest.log pointing at it.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger in logDir with the given level.
// An empty logDir means DefaultLogDir.
func NewFileLogger(logDir string, logLevel string) (*FileLogger, error) {
	if logDir == "" {
		logDir = DefaultLogDir
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// run-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, LatestLink)
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== xslprep Run Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// Path returns the path of the current run log.
func (fl *FileLogger) Path() string {
	return fl.runFile
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) { fl.logWithLevel("TRACE", message) }

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) { fl.logWithLevel("DEBUG", message) }

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) { fl.logWithLevel("INFO", message) }

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) { fl.logWithLevel("WARN", message) }

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) { fl.logWithLevel("ERROR", message) }

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !allows(fl.logLevel, strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogFileSetStart records the start of a file-set at INFO level.
func (fl *FileLogger) LogFileSetStart(dir string, files int) {
	if !allows(fl.logLevel, "info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Processing %s: %d files\n", timestamp(), dir, files))
}

// LogFileResult records one file outcome. Failures include source and
// destination so the run log alone is enough to reproduce them.
func (fl *FileLogger) LogFileResult(result models.FileResult) {
	if result.Status == models.StatusFailed {
		if !allows(fl.logLevel, "error") {
			return
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "[%s] [ERROR] %s failed\n", timestamp(), result.RelPath)
		fmt.Fprintf(&sb, "  source: %s\n", result.Source)
		fmt.Fprintf(&sb, "  dest:   %s\n", result.Dest)
		fmt.Fprintf(&sb, "  error:  %v\n", result.Error)
		fl.writeRunLog(sb.String())
		return
	}

	if !allows(fl.logLevel, "debug") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [DEBUG] %s: %s lines=%d rewritten=%d digest=%s duration=%s\n",
		timestamp(), result.RelPath, result.Status, result.Lines, result.Rewritten, result.Digest, formatDuration(result.Duration)))
}

// LogSummary records the batch summary at INFO level.
func (fl *FileLogger) LogSummary(result models.BatchResult) {
	if !allows(fl.logLevel, "info") {
		return
	}

	var sb strings.Builder
	sb.WriteString("\n=== Build Summary ===\n")
	if result.RunID != "" {
		fmt.Fprintf(&sb, "Run: %s\n", result.RunID)
	}
	fmt.Fprintf(&sb, "Pattern: %s\n", result.CombinedPattern)
	fmt.Fprintf(&sb, "Libraries: %d\n", result.Libraries)
	fmt.Fprintf(&sb, "File-sets: %d\n", result.FileSets)
	fmt.Fprintf(&sb, "Files: %d\n", len(result.Results))
	fmt.Fprintf(&sb, "Succeeded: %d\n", result.Count(models.StatusSuccess))
	fmt.Fprintf(&sb, "Skipped: %d\n", result.Count(models.StatusSkipped))
	fmt.Fprintf(&sb, "Failed: %d\n", result.Count(models.StatusFailed))
	fmt.Fprintf(&sb, "Rewritten lines: %d\n", result.RewrittenLines())
	fmt.Fprintf(&sb, "Warnings: %d\n", result.Warnings)
	fmt.Fprintf(&sb, "Duration: %s\n", formatDuration(result.Duration))
	for _, f := range result.Failed() {
		fmt.Fprintf(&sb, "  FAILED %s: %v\n", f.RelPath, f.Error)
	}
	fl.writeRunLog(sb.String())
}

// Close flushes and closes the run log. Calling Close twice is safe.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog == nil {
		return nil
	}
	fmt.Fprintf(fl.runLog, "\nFinished at: %s\n", time.Now().Format(time.RFC3339))
	err := fl.runLog.Close()
	fl.runLog = nil
	return err
}

func (fl *FileLogger) writeRunLog(s string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()
	if fl.runLog == nil {
		return
	}
	fl.runLog.WriteString(s)
}
