// Package logger provides logging implementations for screencheck runs.
//
// Loggers report the resolved run configuration, each screenshot outcome and
// the run summary. Implementations are thread-safe so outcomes of parallel
// evaluations are never interleaved.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/screencheck/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs run progress with [HH:MM:SS] timestamps. Failed
// screenshots are written to a separate error writer as "<filename> > <reason>".
// Color output is enabled only when writing to a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	errWriter   io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes everything, failures
// included, to writer. If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive); anything
// else defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return NewConsoleLoggerWithErrors(writer, writer, logLevel)
}

// NewConsoleLoggerWithErrors creates a ConsoleLogger that writes failure
// diagnostics to errWriter and everything else to writer.
func NewConsoleLoggerWithErrors(writer, errWriter io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		errWriter:   errWriter,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal reports whether w is os.Stdout or os.Stderr attached to a TTY.
// NO_COLOR disables color through color.NoColor.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || (f != os.Stdout && f != os.Stderr) {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	switch normalized {
	case "trace", "debug", "info", "warn", "error":
		return normalized
	}
	return "info"
}

// IsValidLevel reports whether level names a known log level.
func IsValidLevel(level string) bool {
	normalized := strings.ToLower(strings.TrimSpace(level))
	return normalized != "" && normalizeLogLevel(normalized) == normalized
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// shouldLog checks if a message at the given level passes the configured level.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// LogTrace logs a trace-level message.
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
// Format: "[HH:MM:SS] [INFO] <message>"
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	cl.writer.Write([]byte(cl.formatLine(timestamp(), level, message)))
}

func (cl *ConsoleLogger) formatLine(ts, level, message string) string {
	if !cl.colorOutput {
		return fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	var coloredLevel string
	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogRunStart logs the resolved run configuration and the number of
// screenshots found. Zero screenshots is logged as a warning so a
// misconfigured target stands out.
func (cl *ConsoleLogger) LogRunStart(cfg models.RunConfiguration, files []string) {
	for _, line := range runStartLines(cfg) {
		cl.LogInfo(line)
	}
	for _, key := range sortedKeys(cfg.UnknownOptions) {
		cl.LogWarn(fmt.Sprintf("Ignoring unknown option /%s", key))
	}

	if len(files) == 0 {
		cl.LogWarn(fmt.Sprintf("No screenshots found in %s", cfg.TargetPath))
		return
	}
	cl.LogInfo(fmt.Sprintf("Found %d screenshots to test", len(files)))
}

// LogTestResult logs one screenshot outcome. Passes are logged at debug level;
// failures go to the error writer as "<filename> > <reason>".
func (cl *ConsoleLogger) LogTestResult(outcome models.TestOutcome) {
	if outcome.Passed {
		cl.LogDebug(fmt.Sprintf("%s > passed (%s)", filepath.Base(outcome.File), formatDuration(outcome.Duration)))
		return
	}

	if cl.errWriter == nil || !cl.shouldLog("error") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	name := filepath.Base(outcome.File)
	if cl.colorOutput {
		name = color.New(color.FgRed).Sprint(name)
	}
	fmt.Fprintf(cl.errWriter, "%s > %s\n", name, outcome.FailureReason)
}

// LogSummary logs the run totals at INFO level.
// Format: "[HH:MM:SS] === Test Summary ===" followed by one line per total.
func (cl *ConsoleLogger) LogSummary(result models.RunResult) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	scheme := newColorScheme(cl.colorOutput)

	pb := NewProgressBar(result.Total, 20, cl.colorOutput)
	pb.Update(result.Passed)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.header("=== Test Summary ==="))
	fmt.Fprintf(&sb, "[%s] Screenshots: %d\n", ts, result.Total)
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.count("Passed", result.Passed, false))
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.count("Failed", result.Failed, result.Failed > 0))
	if result.Total > 0 {
		fmt.Fprintf(&sb, "[%s] Pass rate: %s\n", ts, pb.Render())
	}
	fmt.Fprintf(&sb, "[%s] Duration: %s\n", ts, formatDuration(result.Duration))
	fmt.Fprintf(&sb, "[%s] Status: %s\n", ts, scheme.status(result.Status))

	cl.writer.Write([]byte(sb.String()))
}

// runStartLines describes the run configuration, one line per setting.
func runStartLines(cfg models.RunConfiguration) []string {
	var lines []string
	if cfg.DefaultPlayerLevel != nil {
		lines = append(lines, fmt.Sprintf("Default player level: %d", *cfg.DefaultPlayerLevel))
	}
	if cfg.OnlyCandyNameMatching {
		lines = append(lines, "Only matching candy names")
	}
	if cfg.Filter != "" {
		lines = append(lines, fmt.Sprintf("Filter: %s", cfg.Filter))
	}
	if cfg.Parallelism > 1 {
		lines = append(lines, fmt.Sprintf("Parallelism: %d", cfg.Parallelism))
	}
	return append(lines, fmt.Sprintf("Testing %s", cfg.TargetPath))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "350ms", "5s", "1m30s"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Minute:
		minutes := d / time.Minute
		seconds := (d % time.Minute) / time.Second
		if seconds == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}
