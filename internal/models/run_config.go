package models

// RunConfiguration holds the settings of one batch run. It is built once
// from the command line and persisted defaults, and never modified afterwards.
type RunConfiguration struct {
	TargetPath            string            // Screenshot file or directory to test
	DefaultPlayerLevel    *int              // Level assumed when neither file nor directory encode one
	OnlyCandyNameMatching bool              // Compare names against the recognizer's candy name
	Extensions            []string          // Screenshot extensions scanned in directories
	Filter                string            // Regex a screenshot name (without extension) must match
	Parallelism           int               // Number of concurrent evaluations (<= 1 is sequential)
	UnknownOptions        map[string]string // Slash options that were not recognized
}
