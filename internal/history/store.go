// Package history records batch runs and their outcomes in a SQLite
// database so regressions can be traced across runs.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/harrison/screencheck/internal/models"
)

// ErrRunNotFound indicates no recorded run matches the requested ID
var ErrRunNotFound = errors.New("run not found")

// Run is a recorded batch run
type Run struct {
	RunID       string
	Target      string
	Recognizer  string
	PlayerLevel *int
	OnlyCandy   bool
	StartedAt   time.Time
	Duration    time.Duration
	Total       int
	Passed      int
	Failed      int
	Status      models.RunStatus
}

// Outcome is a recorded screenshot outcome
type Outcome struct {
	ID            int64
	RunID         string
	File          string
	Passed        bool
	FailureReason string
	Expected      string // Ground truth as derived from the file name
	Duration      time.Duration
}

// FileStats summarizes the recorded outcomes of one screenshot
type FileStats struct {
	File       string
	Runs       int
	Passed     int
	LastFailed string // Failure reason of the most recent failing run
}

// Flaky reports whether the screenshot both passed and failed across runs
func (f FileStats) Flaky() bool {
	return f.Passed > 0 && f.Passed < f.Runs
}

// NewRun builds the record of a completed run
func NewRun(result *models.RunResult, cfg models.RunConfiguration, recognizer string) *Run {
	return &Run{
		RunID:       result.RunID,
		Target:      result.Target,
		Recognizer:  recognizer,
		PlayerLevel: cfg.DefaultPlayerLevel,
		OnlyCandy:   cfg.OnlyCandyNameMatching,
		StartedAt:   result.StartedAt,
		Duration:    result.Duration,
		Total:       result.Total,
		Passed:      result.Passed,
		Failed:      result.Failed,
		Status:      result.Status,
	}
}

// Store manages the SQLite run history database
type Store struct {
	db     *sql.DB
	dbPath string
}

// NewStore creates a new Store instance and initializes the database
func NewStore(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// Connection-scoped pragmas go in the DSN so every pooled connection gets them
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Every connection to :memory: opens a distinct database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// WAL is recorded in the database file and only needs setting once
	if err := execWithRetry(db, "PRAGMA journal_mode=WAL", 5, 10*time.Millisecond); err != nil {
		db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.ApplyMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return store, nil
}

// execWithRetry executes a statement with exponential backoff on lock errors.
func execWithRetry(db *sql.DB, stmt string, maxRetries int, baseDelay time.Duration) error {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		_, err := db.Exec(stmt)
		if err == nil {
			return nil
		}
		if !strings.Contains(err.Error(), "database is locked") {
			return err
		}
		lastErr = err
		time.Sleep(baseDelay * time.Duration(1<<attempt))
	}
	return lastErr
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RecordRun stores a run and all of its outcomes atomically
func (s *Store) RecordRun(ctx context.Context, run *Run, outcomes []models.TestOutcome) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var playerLevel sql.NullInt64
	if run.PlayerLevel != nil {
		playerLevel = sql.NullInt64{Int64: int64(*run.PlayerLevel), Valid: true}
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(run_id, target, recognizer, player_level, only_candy, started_at, duration_ms, total, passed, failed, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID,
		run.Target,
		run.Recognizer,
		playerLevel,
		run.OnlyCandy,
		run.StartedAt.UTC(),
		run.Duration.Milliseconds(),
		run.Total,
		run.Passed,
		run.Failed,
		string(run.Status),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO outcomes
		(run_id, file, passed, failure_reason, expected, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare outcome insert: %w", err)
	}
	defer stmt.Close()

	for _, outcome := range outcomes {
		expected := ""
		if outcome.Truth != nil {
			expected = outcome.Truth.String()
		}
		if _, err := stmt.ExecContext(ctx, run.RunID, outcome.File, outcome.Passed, outcome.FailureReason, expected, outcome.Duration.Milliseconds()); err != nil {
			return fmt.Errorf("insert outcome %s: %w", outcome.File, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

const runColumns = `run_id, target, recognizer, player_level, only_candy, started_at, duration_ms, total, passed, failed, status`

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with the given ID, or the only run whose ID starts
// with it. ErrRunNotFound is returned when nothing or more than one run matches.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	if runID == "" {
		return nil, ErrRunNotFound
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE run_id = ? OR substr(run_id, 1, ?) = ? ORDER BY run_id = ? DESC LIMIT 2`,
		runID, len(runID), runID, runID)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case matches[0].RunID == runID || len(matches) == 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s is ambiguous", ErrRunNotFound, runID)
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	run := &Run{}
	var recognizer sql.NullString
	var playerLevel sql.NullInt64
	var durationMs int64
	var status string

	err := row.Scan(
		&run.RunID,
		&run.Target,
		&recognizer,
		&playerLevel,
		&run.OnlyCandy,
		&run.StartedAt,
		&durationMs,
		&run.Total,
		&run.Passed,
		&run.Failed,
		&status,
	)
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	run.Recognizer = recognizer.String
	if playerLevel.Valid {
		level := int(playerLevel.Int64)
		run.PlayerLevel = &level
	}
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.Status = models.RunStatus(status)

	return run, nil
}

// GetOutcomes returns the outcomes of a run in evaluation order, optionally
// only the failed ones.
func (s *Store) GetOutcomes(ctx context.Context, runID string, failedOnly bool) ([]*Outcome, error) {
	query := `SELECT id, run_id, file, passed, failure_reason, expected, duration_ms FROM outcomes WHERE run_id = ?`
	if failedOnly {
		query += ` AND passed = 0`
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes: %w", err)
	}
	defer rows.Close()

	var outcomes []*Outcome
	for rows.Next() {
		o := &Outcome{}
		var reason, expected sql.NullString
		var durationMs int64
		if err := rows.Scan(&o.ID, &o.RunID, &o.File, &o.Passed, &reason, &expected, &durationMs); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.FailureReason = reason.String
		o.Expected = expected.String
		o.Duration = time.Duration(durationMs) * time.Millisecond
		outcomes = append(outcomes, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}

	return outcomes, nil
}

// GetFileStats aggregates the recorded outcomes of every screenshot, those
// with the most failures first.
func (s *Store) GetFileStats(ctx context.Context) ([]*FileStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.file, COUNT(*), SUM(o.passed),
			COALESCE((SELECT f.failure_reason FROM outcomes f
				WHERE f.file = o.file AND f.passed = 0 ORDER BY f.id DESC LIMIT 1), '')
		FROM outcomes o
		GROUP BY o.file
		ORDER BY COUNT(*) - SUM(o.passed) DESC, o.file ASC`)
	if err != nil {
		return nil, fmt.Errorf("query file stats: %w", err)
	}
	defer rows.Close()

	var stats []*FileStats
	for rows.Next() {
		fs := &FileStats{}
		if err := rows.Scan(&fs.File, &fs.Runs, &fs.Passed, &fs.LastFailed); err != nil {
			return nil, fmt.Errorf("scan file stats: %w", err)
		}
		stats = append(stats, fs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate file stats: %w", err)
	}

	return stats, nil
}

// PruneRuns deletes all but the keep most recent runs and returns the number
// of runs deleted. Outcomes are removed with their run.
func (s *Store) PruneRuns(ctx context.Context, keep int) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}

	result, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE run_id NOT IN
		(SELECT run_id FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?)`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune runs: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count pruned runs: %w", err)
	}
	return deleted, nil
}
