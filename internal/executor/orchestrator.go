package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/harrison/screencheck/internal/fileutil"
	"github.com/harrison/screencheck/internal/grammar"
	"github.com/harrison/screencheck/internal/models"
)

// DefaultExtensions are the screenshot extensions scanned when none are configured.
var DefaultExtensions = []string{".png", ".jpg", ".jpeg"}

// Logger defines the interface for logging batch progress and results.
type Logger interface {
	LogRunStart(cfg models.RunConfiguration, files []string)
	LogTestResult(outcome models.TestOutcome)
	LogSummary(result models.RunResult)
}

// Orchestrator resolves the screenshots to test, evaluates each of them
// exactly once and aggregates the outcomes.
type Orchestrator struct {
	runner *TestRunner
	logger Logger
}

// NewOrchestrator creates a new Orchestrator instance.
// The logger parameter is optional and can be nil.
func NewOrchestrator(runner *TestRunner, logger Logger) *Orchestrator {
	if runner == nil {
		panic("test runner cannot be nil")
	}

	return &Orchestrator{
		runner: runner,
		logger: logger,
	}
}

// Run tests every screenshot designated by cfg. A *ConfigError is returned,
// with an aborted result, when the target cannot be resolved; in that case no
// screenshot is evaluated. Failures of individual screenshots are reported in
// the result, never as an error. Parts of the tree that could not be scanned
// are reported as failed outcomes after the screenshots.
func (o *Orchestrator) Run(ctx context.Context, cfg models.RunConfiguration) (*models.RunResult, error) {
	runID := uuid.New().String()
	startTime := time.Now()

	files, unreadable, err := ResolveTargets(cfg)
	if err != nil {
		return &models.RunResult{
			RunID:     runID,
			Target:    cfg.TargetPath,
			Status:    models.StatusAborted,
			StartedAt: startTime,
		}, err
	}

	if o.logger != nil {
		o.logger.LogRunStart(cfg, files)
	}

	var outcomes []models.TestOutcome
	if cfg.Parallelism > 1 {
		outcomes = o.evaluateParallel(ctx, cfg, files)
	} else {
		outcomes = o.evaluateSequential(ctx, cfg, files)
	}

	outcomes = append(outcomes, o.unreadableOutcomes(unreadable)...)

	result := aggregateOutcomes(outcomes)
	result.RunID = runID
	result.Target = cfg.TargetPath
	result.StartedAt = startTime
	result.Duration = time.Since(startTime)

	if o.logger != nil {
		o.logger.LogSummary(*result)
	}

	return result, nil
}

func (o *Orchestrator) evaluateSequential(ctx context.Context, cfg models.RunConfiguration, files []string) []models.TestOutcome {
	outcomes := make([]models.TestOutcome, 0, len(files))
	for _, file := range files {
		outcome := o.Evaluate(ctx, cfg, file)
		o.logResult(outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// evaluateParallel evaluates files with at most cfg.Parallelism workers. Each
// worker owns one slot of the outcome slice, so enumeration order is kept.
func (o *Orchestrator) evaluateParallel(ctx context.Context, cfg models.RunConfiguration, files []string) []models.TestOutcome {
	outcomes := make([]models.TestOutcome, len(files))

	var g errgroup.Group
	g.SetLimit(cfg.Parallelism)
	for i, file := range files {
		i, file := i, file
		g.Go(func() error {
			outcomes[i] = o.Evaluate(ctx, cfg, file)
			o.logResult(outcomes[i])
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

// unreadableOutcomes turns every part of the tree that could not be scanned
// into a failed outcome, so it cannot go unnoticed.
func (o *Orchestrator) unreadableOutcomes(errs []*fileutil.ScanError) []models.TestOutcome {
	outcomes := make([]models.TestOutcome, 0, len(errs))
	for _, scanErr := range errs {
		outcome := failedOutcome(ScreenshotFile{Path: scanErr.Path}, nil, scanErr.Error(), 0)
		o.logResult(outcome)
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func (o *Orchestrator) logResult(outcome models.TestOutcome) {
	if o.logger != nil {
		o.logger.LogTestResult(outcome)
	}
}

// Evaluate derives the ground truth of one screenshot from its name and its
// parent directory name, reads it and runs the test. It always returns an
// outcome.
func (o *Orchestrator) Evaluate(ctx context.Context, cfg models.RunConfiguration, path string) models.TestOutcome {
	file := ScreenshotFile{Path: path}

	truth, err := grammar.Derive(filepath.Base(path), filepath.Base(filepath.Dir(path)), cfg.DefaultPlayerLevel)
	if err != nil {
		return failedOutcome(file, nil, err.Error(), 0)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return failedOutcome(file, truth, fmt.Sprintf("read screenshot: %v", err), 0)
	}
	file.Content = content

	return o.runner.Run(ctx, file, truth)
}

// ResolveTargets returns the screenshots designated by cfg.TargetPath: the
// file itself, or every screenshot below the directory together with the
// parts of the directory that could not be scanned.
func ResolveTargets(cfg models.RunConfiguration) ([]string, []*fileutil.ScanError, error) {
	target := cfg.TargetPath
	if target == "" {
		return nil, nil, NewConfigError("target", "no screenshot file or directory specified", ErrTargetNotFound)
	}

	info, err := os.Stat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, NewConfigError("target", target, ErrTargetNotFound)
		}
		return nil, nil, NewConfigError("target", target, err)
	}

	if !info.IsDir() {
		return []string{target}, nil, nil
	}

	extensions := cfg.Extensions
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	scan, err := fileutil.ScanDirectory(target, fileutil.ScanOptions{
		Pattern:    cfg.Filter,
		Extensions: extensions,
		Recursive:  true,
	})
	if err != nil {
		return nil, nil, NewConfigError("target", target, err)
	}

	return scan.Files, scan.Errors, nil
}

// aggregateOutcomes reduces outcomes with a logical AND. An empty set of
// outcomes is a success.
func aggregateOutcomes(outcomes []models.TestOutcome) *models.RunResult {
	result := &models.RunResult{
		Outcomes: outcomes,
		Total:    len(outcomes),
		Success:  true,
	}

	for _, outcome := range outcomes {
		if outcome.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Success = result.Success && outcome.Passed
	}

	result.Status = models.StatusPassed
	if !result.Success {
		result.Status = models.StatusFailed
	}

	return result
}
