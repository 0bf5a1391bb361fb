package executor

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTargetNotFound indicates the file or directory to test does not exist.
var ErrTargetNotFound = errors.New("screenshots directory not found")

// ErrImageDecode indicates a screenshot is not a decodable PNG or JPEG image.
var ErrImageDecode = errors.New("unable to decode image")

// ConfigError is a setup error detected before any screenshot is evaluated.
// It aborts the run and is reported apart from test failures.
type ConfigError struct {
	Setting string // Option or setting at fault (e.g. "playerlevel", "target")
	Message string // Human-readable error message
	Err     error  // Underlying error (optional)
}

// NewConfigError creates a new ConfigError.
func NewConfigError(setting, msg string, err error) *ConfigError {
	return &ConfigError{
		Setting: setting,
		Message: msg,
		Err:     err,
	}
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration error (%s): %s", e.Setting, e.Message))
	if e.Err != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Err))
	}
	return sb.String()
}

// Unwrap returns the underlying error for error wrapping support.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError checks if the error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var ce *ConfigError
	return errors.As(err, &ce)
}
