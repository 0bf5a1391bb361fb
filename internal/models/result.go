package models

import "time"

// RunStatus is the overall status of a batch run
type RunStatus string

// Run status constants
const (
	StatusPassed  RunStatus = "PASSED"  // Every evaluated screenshot passed (or none were found)
	StatusFailed  RunStatus = "FAILED"  // Run completed with at least one failure
	StatusAborted RunStatus = "ABORTED" // Setup error, no screenshot was evaluated
)

// TestOutcome is the verdict for one evaluated screenshot. It is never
// modified after the test runner returns it.
type TestOutcome struct {
	File          string        // Path of the screenshot
	Passed        bool          // Whether every present ground truth field matched
	FailureReason string        // Human readable reason, empty when passed
	Truth         *GroundTruth  // Ground truth used (nil when the name was unparsable)
	Duration      time.Duration // Time spent evaluating the screenshot
}

// RunResult represents the aggregate result of a batch run
type RunResult struct {
	RunID     string        // Unique run identifier
	Target    string        // File or directory that was tested
	Outcomes  []TestOutcome // Outcomes in enumeration order
	Total     int           // Number of screenshots evaluated
	Passed    int           // Number of passed screenshots
	Failed    int           // Number of failed screenshots
	Success   bool          // Logical AND of every outcome (true when Total is 0)
	Status    RunStatus     // Overall run status
	StartedAt time.Time     // When evaluation started
	Duration  time.Duration // Total run time
}

// FailedOutcomes returns the outcomes that did not pass
func (r *RunResult) FailedOutcomes() []TestOutcome {
	var failed []TestOutcome
	for _, o := range r.Outcomes {
		if !o.Passed {
			failed = append(failed, o)
		}
	}
	return failed
}

// Empty returns true if no screenshot was evaluated
func (r *RunResult) Empty() bool {
	return r.Total == 0
}
