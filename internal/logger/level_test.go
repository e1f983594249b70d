package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"
)

// TestLogLevelFiltering verifies each configured level admits only itself and above.
func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		name       string
		level      string
		expected   []string
		suppressed []string
	}{
		{name: "trace shows all", level: "trace", expected: []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{name: "debug hides trace", level: "debug", expected: []string{"DEBUG", "INFO", "WARN", "ERROR"}, suppressed: []string{"TRACE"}},
		{name: "info is the default", level: "", expected: []string{"INFO", "WARN", "ERROR"}, suppressed: []string{"TRACE", "DEBUG"}},
		{name: "warn", level: "warn", expected: []string{"WARN", "ERROR"}, suppressed: []string{"TRACE", "DEBUG", "INFO"}},
		{name: "error only", level: "ERROR", expected: []string{"ERROR"}, suppressed: []string{"TRACE", "DEBUG", "INFO", "WARN"}},
		{name: "unknown falls back to info", level: "verbose", expected: []string{"INFO"}, suppressed: []string{"DEBUG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("trace message")
			logger.LogDebug("debug message")
			logger.LogInfo("info message")
			logger.LogWarn("warn message")
			logger.LogError("error message")

			output := buf.String()
			for _, level := range tt.expected {
				if !strings.Contains(output, "["+level+"]") {
					t.Errorf("expected %s in output:\n%s", level, output)
				}
			}
			for _, level := range tt.suppressed {
				if strings.Contains(output, "["+level+"]") {
					t.Errorf("did not expect %s in output:\n%s", level, output)
				}
			}
		})
	}
}

func TestValidLevel(t *testing.T) {
	for _, level := range []string{"trace", "DEBUG", " info ", "Warn", "error"} {
		if !ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = false, want true", level)
		}
	}
	for _, level := range []string{"", "verbose", "fatal"} {
		if ValidLevel(level) {
			t.Errorf("ValidLevel(%q) = true, want false", level)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{120 * time.Millisecond, "120ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{3 * time.Hour, "3h"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileLoggerWithLogLevel(t *testing.T) {
	logger, err := NewFileLogger(t.TempDir(), "warn")
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	logger.LogInfo("hidden info")
	logger.LogWarn("visible warning")
	logger.Close()

	data, err := os.ReadFile(logger.Path())
	if err != nil {
		t.Fatalf("read run log: %v", err)
	}
	output := string(data)
	if strings.Contains(output, "hidden info") {
		t.Errorf("info message should be filtered:\n%s", output)
	}
	if !strings.Contains(output, "[WARN] visible warning") {
		t.Errorf("warn message missing:\n%s", output)
	}
}
