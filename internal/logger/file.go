package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/harrison/screencheck/internal/models"
)

// DefaultLogDir is the log directory used when none is configured.
var DefaultLogDir = filepath.Join(".screencheck", "logs")

// FileLogger logs run events to a timestamped run-YYYYMMDD-HHMMSS.log file
// and keeps a latest.log symlink pointing at the most recent run. Unlike the
// console, every outcome is recorded, passes included.
type FileLogger struct {
	logDir   string
	runLog   *os.File
	runFile  string
	logLevel string
	mu       sync.Mutex
}

// NewFileLogger creates a FileLogger writing to .screencheck/logs/ at info level.
func NewFileLogger() (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(DefaultLogDir, "info")
}

// NewFileLoggerWithDir creates a FileLogger with a custom log directory.
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a FileLogger with a custom log directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	runFile := filepath.Join(logDir, fmt.Sprintf("run-%s.log", timestamp))

	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create run log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
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

	logger := &FileLogger{
		logDir:   logDir,
		runLog:   file,
		runFile:  runFile,
		logLevel: normalizeLogLevel(logLevel),
	}

	logger.writeRunLog("=== screencheck Run Log ===\n")
	logger.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return logger, nil
}

// RunFile returns the path of the current run log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogRunStart logs the run configuration and the screenshots to test.
func (fl *FileLogger) LogRunStart(cfg models.RunConfiguration, files []string) {
	for _, line := range runStartLines(cfg) {
		fl.LogInfo(line)
	}
	for _, key := range sortedKeys(cfg.UnknownOptions) {
		fl.LogWarn(fmt.Sprintf("Ignoring unknown option /%s", key))
	}
	if len(files) == 0 {
		fl.LogWarn(fmt.Sprintf("No screenshots found in %s", cfg.TargetPath))
		return
	}
	fl.LogInfo(fmt.Sprintf("Found %d screenshots to test", len(files)))
}

// LogTestResult records every outcome with its full path and ground truth.
func (fl *FileLogger) LogTestResult(outcome models.TestOutcome) {
	truth := "-"
	if outcome.Truth != nil {
		truth = outcome.Truth.String()
	}

	if outcome.Passed {
		fl.LogInfo(fmt.Sprintf("PASS %s [%s] (%s)", outcome.File, truth, formatDuration(outcome.Duration)))
		return
	}
	fl.LogError(fmt.Sprintf("FAIL %s [%s] > %s", outcome.File, truth, outcome.FailureReason))
}

// LogSummary logs the run totals.
func (fl *FileLogger) LogSummary(result models.RunResult) {
	if !fl.shouldLog("info") {
		return
	}

	ts := timestamp()
	message := fmt.Sprintf(
		"\n[%s] === TEST SUMMARY ===\n"+
			"[%s] Run ID:       %s\n"+
			"[%s] Screenshots:  %d\n"+
			"[%s] Passed:       %d\n"+
			"[%s] Failed:       %d\n"+
			"[%s] Total time:   %s\n"+
			"[%s] Status:       %s\n",
		ts,
		ts, result.RunID,
		ts, result.Total,
		ts, result.Passed,
		ts, result.Failed,
		ts, formatDuration(result.Duration),
		ts, result.Status,
	)

	fl.writeRunLog(message)
}

// Close flushes and closes the run log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync run log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close run log: %w", err)
		}
		fl.runLog = nil
	}

	return nil
}

// writeRunLog is a thread-safe helper to write to the run log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
