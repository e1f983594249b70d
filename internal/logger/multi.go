package logger

import "github.com/harrison/xslprep/internal/models"

// BuildLogger is the logging surface a build drives.
type BuildLogger interface {
	LogTrace(message string)
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogFileSetStart(dir string, files int)
	LogFileResult(result models.FileResult)
	LogSummary(result models.BatchResult)
}

// MultiLogger fans every call out to each of its loggers in order.
type MultiLogger struct {
	loggers []BuildLogger
}

// NewMultiLogger combines loggers, dropping nil entries.
func NewMultiLogger(loggers ...BuildLogger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

func (m *MultiLogger) LogTrace(message string) {
	for _, l := range m.loggers {
		l.LogTrace(message)
	}
}

func (m *MultiLogger) LogDebug(message string) {
	for _, l := range m.loggers {
		l.LogDebug(message)
	}
}

func (m *MultiLogger) LogInfo(message string) {
	for _, l := range m.loggers {
		l.LogInfo(message)
	}
}

func (m *MultiLogger) LogWarn(message string) {
	for _, l := range m.loggers {
		l.LogWarn(message)
	}
}

func (m *MultiLogger) LogError(message string) {
	for _, l := range m.loggers {
		l.LogError(message)
	}
}

func (m *MultiLogger) LogFileSetStart(dir string, files int) {
	for _, l := range m.loggers {
		l.LogFileSetStart(dir, files)
	}
}

func (m *MultiLogger) LogFileResult(result models.FileResult) {
	for _, l := range m.loggers {
		l.LogFileResult(result)
	}
}

func (m *MultiLogger) LogSummary(result models.BatchResult) {
	for _, l := range m.loggers {
		l.LogSummary(result)
	}
}

// NoOpLogger discards everything.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger.
func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (n *NoOpLogger) LogTrace(message string)                {}
func (n *NoOpLogger) LogDebug(message string)                {}
func (n *NoOpLogger) LogInfo(message string)                 {}
func (n *NoOpLogger) LogWarn(message string)                 {}
func (n *NoOpLogger) LogError(message string)                {}
func (n *NoOpLogger) LogFileSetStart(dir string, files int)  {}
func (n *NoOpLogger) LogFileResult(result models.FileResult) {}
func (n *NoOpLogger) LogSummary(result models.BatchResult)   {}

var (
	_ BuildLogger = (*ConsoleLogger)(nil)
	_ BuildLogger = (*FileLogger)(nil)
	_ BuildLogger = (*MultiLogger)(nil)
	_ BuildLogger = (*NoOpLogger)(nil)
)
