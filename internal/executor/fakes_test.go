package executor

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/harrison/screencheck/internal/models"
)

// FakeRecognizer implements Recognizer for testing. Results are keyed by
// image content.
type FakeRecognizer struct {
	mu      sync.Mutex
	results map[string]*models.RecognitionResult
	errors  map[string]error
	calls   int
}

// NewFakeRecognizer creates a new FakeRecognizer
func NewFakeRecognizer() *FakeRecognizer {
	return &FakeRecognizer{
		results: make(map[string]*models.RecognitionResult),
		errors:  make(map[string]error),
	}
}

// SetResult sets the result returned for an image
func (f *FakeRecognizer) SetResult(image []byte, result *models.RecognitionResult) {
	f.results[string(image)] = result
}

// SetError sets the error returned for an image
func (f *FakeRecognizer) SetError(image []byte, err error) {
	f.errors[string(image)] = err
}

// Evaluate returns the configured result or error
func (f *FakeRecognizer) Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if err, ok := f.errors[string(image)]; ok {
		return nil, err
	}
	return f.results[string(image)], nil
}

// Calls returns the number of Evaluate calls
func (f *FakeRecognizer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// FakeLogger records logged events
type FakeLogger struct {
	mu      sync.Mutex
	started []string
	results []models.TestOutcome
	summary *models.RunResult
}

func (l *FakeLogger) LogRunStart(cfg models.RunConfiguration, files []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = files
}

func (l *FakeLogger) LogTestResult(outcome models.TestOutcome) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, outcome)
}

func (l *FakeLogger) LogSummary(result models.RunResult) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.summary = &result
}

// pngImage encodes a distinct, valid PNG image of the given width
func pngImage(t *testing.T, width int) []byte {
	t.Helper()

	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, width, 1))); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
