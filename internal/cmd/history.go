package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/screencheck/internal/config"
	"github.com/harrison/screencheck/internal/history"
	"github.com/harrison/screencheck/internal/models"
)

// NewHistoryCommand creates the 'screencheck history' command group
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded test runs",
		Long: `List the most recent test runs recorded in the history database.

The database lives at history.db_path, or $SCREENCHECK_HOME/history.db
(.screencheck/history.db by default).`,
		Args: cobra.NoArgs,
		RunE: runHistoryList,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .screencheck/config.yaml)")
	cmd.Flags().Int("limit", 20, "Maximum number of runs to list (0 for all)")

	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryFilesCommand())
	cmd.AddCommand(newHistoryPruneCommand())

	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the outcomes of a recorded run",
		Long: `Show a recorded run and the outcome of each of its screenshots.
A unique prefix of the run ID is accepted.`,
		Args: cobra.ExactArgs(1),
		RunE: runHistoryShow,
	}
	cmd.Flags().Bool("failed", false, "Only show failed screenshots")
	return cmd
}

func newHistoryFilesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "files",
		Short: "Show per-screenshot pass rates across recorded runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryFiles,
	}
	cmd.Flags().Bool("flaky", false, "Only show screenshots that both passed and failed")
	return cmd
}

func newHistoryPruneCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the most recent runs",
		Args:  cobra.NoArgs,
		RunE:  runHistoryPrune,
	}
	cmd.Flags().Int("keep", 0, "Number of runs to keep (default history.keep_runs)")
	return cmd
}

// openHistory opens the history store. It returns a nil store, and prints a
// notice, when no history has been recorded yet.
func openHistory(cmd *cobra.Command) (*history.Store, *config.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get history database path: %w", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintf(cmd.OutOrStdout(), "No recorded runs (database %s does not exist)\n", dbPath)
		return nil, cfg, nil
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open history store: %w", err)
	}
	return store, cfg, nil
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.ListRuns(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	output := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(output, "No recorded runs")
		return nil
	}

	printRunTable(output, runs)
	return nil
}

// printRunTable prints one line per run, most recent first
func printRunTable(w io.Writer, runs []*history.Run) {
	cyan := color.New(color.FgCyan, color.Bold)

	cyan.Fprintf(w, "%-8s  %-19s  %-6s  %6s  %6s  %8s  %s\n", "RUN", "STARTED", "STATUS", "PASS", "FAIL", "DURATION", "TARGET")
	for _, run := range runs {
		fmt.Fprintf(w, "%-8s  %-19s  ", shortID(run.RunID), formatTimestamp(run.StartedAt))
		statusColor(run.Status).Fprintf(w, "%-6s", run.Status)
		fmt.Fprintf(w, "  %6d  %6d  %8s  %s\n", run.Passed, run.Failed, formatDuration(run.Duration), run.Target)
	}
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	run, err := store.GetRun(ctx, args[0])
	if err != nil {
		return err
	}

	failedOnly, _ := cmd.Flags().GetBool("failed")
	outcomes, err := store.GetOutcomes(ctx, run.RunID, failedOnly)
	if err != nil {
		return fmt.Errorf("get outcomes: %w", err)
	}

	printRun(cmd.OutOrStdout(), run, outcomes)
	return nil
}

// printRun prints a run header followed by its outcomes
func printRun(w io.Writer, run *history.Run, outcomes []*history.Outcome) {
	cyan := color.New(color.FgCyan, color.Bold)
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "\n=== Run %s ===\n\n", run.RunID)
	fmt.Fprintf(w, "  Target: %s\n", run.Target)
	if run.Recognizer != "" {
		fmt.Fprintf(w, "  Recognizer: %s\n", run.Recognizer)
	}
	if run.PlayerLevel != nil {
		fmt.Fprintf(w, "  Default player level: %d\n", *run.PlayerLevel)
	}
	if run.OnlyCandy {
		fmt.Fprintf(w, "  Only matching candy names\n")
	}
	fmt.Fprintf(w, "  Started: %s ", formatTimestamp(run.StartedAt))
	gray.Fprintf(w, "(%s ago)\n", formatDuration(time.Since(run.StartedAt)))
	fmt.Fprintf(w, "  Duration: %s\n", formatDuration(run.Duration))
	fmt.Fprintf(w, "  Screenshots: %d (passed %d, failed %d)\n", run.Total, run.Passed, run.Failed)
	fmt.Fprintf(w, "  Status: ")
	statusColor(run.Status).Fprintf(w, "%s\n", run.Status)

	if len(outcomes) == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintln(w)
	for _, o := range outcomes {
		if o.Passed {
			green.Fprintf(w, "  PASS ")
		} else {
			red.Fprintf(w, "  FAIL ")
		}
		fmt.Fprintf(w, "%s", filepath.Base(o.File))
		if o.Expected != "" {
			gray.Fprintf(w, " [%s]", o.Expected)
		}
		if !o.Passed {
			fmt.Fprintf(w, " > %s", strings.TrimSpace(o.FailureReason))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w)
}

func runHistoryFiles(cmd *cobra.Command, args []string) error {
	store, _, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	stats, err := store.GetFileStats(cmd.Context())
	if err != nil {
		return fmt.Errorf("get file statistics: %w", err)
	}

	flakyOnly, _ := cmd.Flags().GetBool("flaky")
	if flakyOnly {
		filtered := stats[:0]
		for _, s := range stats {
			if s.Flaky() {
				filtered = append(filtered, s)
			}
		}
		stats = filtered
	}

	output := cmd.OutOrStdout()
	if len(stats) == 0 {
		fmt.Fprintln(output, "No recorded screenshots")
		return nil
	}

	printFileStats(output, stats)
	return nil
}

// printFileStats prints the pass rate of each screenshot
func printFileStats(w io.Writer, stats []*history.FileStats) {
	cyan := color.New(color.FgCyan, color.Bold)
	yellow := color.New(color.FgYellow)
	gray := color.New(color.FgHiBlack)

	cyan.Fprintf(w, "%6s  %6s  %s\n", "PASSED", "RATE", "SCREENSHOT")
	for _, s := range stats {
		rate := 0.0
		if s.Runs > 0 {
			rate = float64(s.Passed) / float64(s.Runs) * 100
		}
		fmt.Fprintf(w, "%6s  ", fmt.Sprintf("%d/%d", s.Passed, s.Runs))
		rateColor(rate).Fprintf(w, "%5.1f%%", rate)
		fmt.Fprintf(w, "  %s", filepath.Base(s.File))
		if s.Flaky() {
			yellow.Fprintf(w, " (flaky)")
		}
		fmt.Fprintln(w)
		if s.LastFailed != "" {
			gray.Fprintf(w, "%16s last failure: %s\n", "", s.LastFailed)
		}
	}
}

func runHistoryPrune(cmd *cobra.Command, args []string) error {
	store, cfg, err := openHistory(cmd)
	if err != nil || store == nil {
		return err
	}
	defer store.Close()

	keep := cfg.History.KeepRuns
	if cmd.Flags().Changed("keep") {
		keep, _ = cmd.Flags().GetInt("keep")
	}
	if keep <= 0 {
		return fmt.Errorf("--keep must be positive, got %d", keep)
	}

	deleted, err := store.PruneRuns(cmd.Context(), keep)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d runs, kept the %d most recent\n", deleted, keep)
	return nil
}

func statusColor(status models.RunStatus) *color.Color {
	switch status {
	case models.StatusPassed:
		return color.New(color.FgGreen)
	case models.StatusFailed:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgYellow)
	}
}

func rateColor(rate float64) *color.Color {
	switch {
	case rate >= 100:
		return color.New(color.FgGreen)
	case rate >= 50:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatTimestamp formats a timestamp for display
func formatTimestamp(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

// formatDuration formats a duration in human-readable form
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
