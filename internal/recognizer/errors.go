// Package recognizer provides Recognizer implementations: an external
// recognizer process, and a record/replay pair that captures recognizer
// output in a YAML file so runs can be repeated without the recognizer.
package recognizer

import (
	"errors"
	"fmt"
)

// ErrNoRecording indicates the replayed recordings have no entry for an image
var ErrNoRecording = errors.New("no recorded result for image")

// RecognitionError is raised when the recognizer cannot process an image
type RecognitionError struct {
	Message string // Human-readable error message
	Err     error  // Underlying error (optional)
}

// NewRecognitionError creates a new RecognitionError.
func NewRecognitionError(msg string, err error) *RecognitionError {
	return &RecognitionError{Message: msg, Err: err}
}

// Error implements the error interface for RecognitionError.
func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for error wrapping support.
func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// IsRecognitionError checks if the error is or wraps a RecognitionError.
func IsRecognitionError(err error) bool {
	var re *RecognitionError
	return errors.As(err, &re)
}
