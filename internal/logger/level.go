// Package logger provides the console and file loggers used by builds.
//
// Every line is "[HH:MM:SS] [LEVEL] message". Loggers are safe for concurrent
// use and filter by level: trace, debug, info, warn, error.
package logger

import (
	"fmt"
	"strings"
	"time"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// Levels lists the accepted level names from most to least verbose.
var Levels = []string{"trace", "debug", "info", "warn", "error"}

// ValidLevel reports whether level names a known level, ignoring case.
func ValidLevel(level string) bool {
	normalized := strings.ToLower(strings.TrimSpace(level))
	for _, l := range Levels {
		if l == normalized {
			return true
		}
	}
	return false
}

// normalizeLogLevel lowercases a level and falls back to "info".
func normalizeLogLevel(level string) string {
	if ValidLevel(level) {
		return strings.ToLower(strings.TrimSpace(level))
	}
	return "info"
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

func allows(configured, message string) bool {
	return logLevelToInt(message) >= logLevelToInt(configured)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "120ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		minutes := (d % time.Hour) / time.Minute
		if minutes == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		return fmt.Sprintf("%dh%dm", hours, minutes)
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
