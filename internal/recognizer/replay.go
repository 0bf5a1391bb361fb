package recognizer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/harrison/screencheck/internal/executor"
	"github.com/harrison/screencheck/internal/filelock"
	"github.com/harrison/screencheck/internal/models"
)

// Recording is the recognizer output captured for one image
type Recording struct {
	Result *models.RecognitionResult `yaml:"result,omitempty"`
	Error  string                    `yaml:"error,omitempty"`
}

// recordingsFile is the YAML layout of a recordings file
type recordingsFile struct {
	Recordings map[string]Recording `yaml:"recordings"`
}

// ContentHash returns the hex SHA256 of an image, the key of a recording
func ContentHash(image []byte) string {
	sum := sha256.Sum256(image)
	return hex.EncodeToString(sum[:])
}

// LoadRecordings reads a recordings file. A missing file yields no recordings.
func LoadRecordings(path string) (map[string]Recording, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]Recording{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read recordings: %w", err)
	}

	var file recordingsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse recordings %s: %w", path, err)
	}
	if file.Recordings == nil {
		file.Recordings = map[string]Recording{}
	}
	return file.Recordings, nil
}

// ReplayRecognizer answers with previously recorded results
type ReplayRecognizer struct {
	recordings map[string]Recording
}

// NewReplayRecognizer loads the recordings file at path
func NewReplayRecognizer(path string) (*ReplayRecognizer, error) {
	recordings, err := LoadRecordings(path)
	if err != nil {
		return nil, err
	}
	return &ReplayRecognizer{recordings: recordings}, nil
}

// Evaluate returns the recording of image
func (r *ReplayRecognizer) Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	hash := ContentHash(image)
	rec, ok := r.recordings[hash]
	if !ok {
		return nil, fmt.Errorf("%w (sha256 %s)", ErrNoRecording, hash[:12])
	}
	if rec.Error != "" {
		return nil, NewRecognitionError(rec.Error, nil)
	}
	if rec.Result == nil {
		return &models.RecognitionResult{}, nil
	}
	result := *rec.Result
	return &result, nil
}

// Recorder wraps a recognizer and keeps every result it produces, so they
// can be saved with Save and replayed later.
type Recorder struct {
	recognizer executor.Recognizer
	recordings map[string]Recording
	mu         sync.Mutex
}

// NewRecorder creates a Recorder around recognizer
func NewRecorder(recognizer executor.Recognizer) *Recorder {
	return &Recorder{
		recognizer: recognizer,
		recordings: make(map[string]Recording),
	}
}

// Evaluate delegates to the wrapped recognizer and records its answer
func (r *Recorder) Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	result, err := r.recognizer.Evaluate(ctx, image)

	rec := Recording{Result: result}
	if err != nil {
		rec = Recording{Error: err.Error()}
	}

	r.mu.Lock()
	r.recordings[ContentHash(image)] = rec
	r.mu.Unlock()

	return result, err
}

// Len returns the number of recorded images
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.recordings)
}

// Save merges the recordings into the file at path. Entries already in the
// file are kept unless the same image was recorded again. It gives up when
// ctx is done before another process releases the file.
func (r *Recorder) Save(ctx context.Context, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create recordings directory: %w", err)
	}

	lock := filelock.NewFileLock(path + ".lock")
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	merged, err := LoadRecordings(path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	for hash, rec := range r.recordings {
		merged[hash] = rec
	}
	r.mu.Unlock()

	data, err := marshalRecordings(merged)
	if err != nil {
		return err
	}

	return filelock.AtomicWrite(path, data)
}

func marshalRecordings(recordings map[string]Recording) ([]byte, error) {
	data, err := yaml.Marshal(recordingsFile{Recordings: recordings})
	if err != nil {
		return nil, fmt.Errorf("marshal recordings: %w", err)
	}
	return data, nil
}

// Func adapts a function to the Recognizer interface
type Func func(ctx context.Context, image []byte) (*models.RecognitionResult, error)

// Evaluate calls f
func (f Func) Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error) {
	return f(ctx, image)
}
