package cmd

import (
	"errors"

	"github.com/harrison/screencheck/internal/grammar"
)

// Exit codes
const (
	ExitPassed = 0 // Every screenshot passed, or none were found
	ExitFailed = 1 // At least one screenshot failed
	ExitFatal  = 2 // The run could not start (configuration, target, options)
)

// ErrTestsFailed is returned when a run completed with failed screenshots.
// The failures themselves have already been reported.
var ErrTestsFailed = errors.New("screenshot tests failed")

// ExitCode maps the error returned by the root command to a process exit code
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitPassed
	case errors.Is(err, ErrTestsFailed), errors.Is(err, grammar.ErrUnparsableName):
		return ExitFailed
	default:
		return ExitFatal
	}
}
