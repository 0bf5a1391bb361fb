package executor

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/harrison/screencheck/internal/grammar"
	"github.com/harrison/screencheck/internal/models"
)

// Recognizer extracts game state from a screenshot image. Implementations
// return a partial result when some fields cannot be determined.
type Recognizer interface {
	Evaluate(ctx context.Context, image []byte) (*models.RecognitionResult, error)
}

// ScreenshotFile identifies a screenshot and carries its raw content
type ScreenshotFile struct {
	Path    string
	Content []byte
}

// Name returns the base name of the screenshot file
func (f ScreenshotFile) Name() string {
	return filepath.Base(f.Path)
}

// TestRunner evaluates one screenshot against its ground truth
type TestRunner struct {
	recognizer Recognizer
	onlyCandy  bool
}

// NewTestRunner creates a TestRunner. When onlyCandy is set, names are
// compared against the recognizer's candy name instead of the species name.
func NewTestRunner(recognizer Recognizer, onlyCandy bool) *TestRunner {
	if recognizer == nil {
		panic("recognizer cannot be nil")
	}

	return &TestRunner{
		recognizer: recognizer,
		onlyCandy:  onlyCandy,
	}
}

// Run evaluates a screenshot. Recognizer and decoding errors never escape:
// they produce a failed outcome carrying the error message.
func (r *TestRunner) Run(ctx context.Context, file ScreenshotFile, truth *models.GroundTruth) (outcome models.TestOutcome) {
	start := time.Now()

	defer func() {
		if p := recover(); p != nil {
			outcome = failedOutcome(file, truth, fmt.Sprintf("recognizer panic: %v", p), time.Since(start))
		}
	}()

	if truth == nil {
		return failedOutcome(file, nil, "no ground truth", time.Since(start))
	}

	if err := CheckImage(file.Content); err != nil {
		return failedOutcome(file, truth, err.Error(), time.Since(start))
	}

	result, err := r.recognizer.Evaluate(ctx, file.Content)
	if err != nil {
		return failedOutcome(file, truth, err.Error(), time.Since(start))
	}
	if result == nil {
		result = &models.RecognitionResult{}
	}

	mismatches := Compare(truth, result, r.onlyCandy)
	if len(mismatches) > 0 {
		return failedOutcome(file, truth, strings.Join(mismatches, "; "), time.Since(start))
	}

	return models.TestOutcome{
		File:     file.Path,
		Passed:   true,
		Truth:    truth,
		Duration: time.Since(start),
	}
}

// Compare checks every present ground truth field against the recognized
// one and returns a description of each mismatch. Absent ground truth fields
// and unknown levels impose no constraint.
func Compare(truth *models.GroundTruth, got *models.RecognitionResult, onlyCandy bool) []string {
	var mismatches []string

	if truth.Name != nil {
		if onlyCandy {
			if got.CandyName == nil || grammar.NormalizeName(*got.CandyName) != grammar.NormalizeName(*truth.Name) {
				mismatches = append(mismatches, mismatch("candy", *truth.Name, models.FormatString(got.CandyName)))
			}
		} else if got.Name == nil || *got.Name != *truth.Name {
			mismatches = append(mismatches, mismatch("name", *truth.Name, models.FormatString(got.Name)))
		}
	}

	if truth.HasLevelAssertion() {
		if got.Level == nil || *got.Level != *truth.Level {
			mismatches = append(mismatches, mismatch("level", models.FormatLevel(truth.Level), models.FormatLevel(got.Level)))
		}
	}

	if truth.CombatPower != nil {
		if got.CombatPower == nil || *got.CombatPower != *truth.CombatPower {
			mismatches = append(mismatches, mismatch("cp", models.FormatInt(truth.CombatPower), models.FormatInt(got.CombatPower)))
		}
	}

	if truth.HitPoints != nil {
		if got.HitPoints == nil || *got.HitPoints != *truth.HitPoints {
			mismatches = append(mismatches, mismatch("hp", models.FormatInt(truth.HitPoints), models.FormatInt(got.HitPoints)))
		}
	}

	return mismatches
}

func mismatch(field, expected, got string) string {
	if got == "-" {
		got = "none"
	}
	return fmt.Sprintf("%s: expected %s, got %s", field, expected, got)
}

func failedOutcome(file ScreenshotFile, truth *models.GroundTruth, reason string, duration time.Duration) models.TestOutcome {
	return models.TestOutcome{
		File:          file.Path,
		Passed:        false,
		FailureReason: reason,
		Truth:         truth,
		Duration:      duration,
	}
}
