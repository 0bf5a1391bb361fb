package logger

import "github.com/harrison/screencheck/internal/models"

// RunLogger receives the events of a batch run.
type RunLogger interface {
	LogRunStart(cfg models.RunConfiguration, files []string)
	LogTestResult(outcome models.TestOutcome)
	LogSummary(result models.RunResult)
}

// MultiLogger forwards every event to each of its loggers in order.
type MultiLogger struct {
	loggers []RunLogger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...RunLogger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// LogRunStart forwards the run start to every logger.
func (m *MultiLogger) LogRunStart(cfg models.RunConfiguration, files []string) {
	for _, l := range m.loggers {
		l.LogRunStart(cfg, files)
	}
}

// LogTestResult forwards the outcome to every logger.
func (m *MultiLogger) LogTestResult(outcome models.TestOutcome) {
	for _, l := range m.loggers {
		l.LogTestResult(outcome)
	}
}

// LogSummary forwards the summary to every logger.
func (m *MultiLogger) LogSummary(result models.RunResult) {
	for _, l := range m.loggers {
		l.LogSummary(result)
	}
}
