package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harrison/screencheck/internal/config"
	"github.com/harrison/screencheck/internal/executor"
	"github.com/harrison/screencheck/internal/history"
	"github.com/harrison/screencheck/internal/logger"
	"github.com/harrison/screencheck/internal/models"
	"github.com/harrison/screencheck/internal/options"
	"github.com/harrison/screencheck/internal/recognizer"
	"github.com/harrison/screencheck/internal/report"
)

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "Path to config file (default: .screencheck/config.yaml)")
	cmd.Flags().Int("player-level", 0, "Default player level (same as /playerlevel:N)")
	cmd.Flags().Bool("only-candy", false, "Compare names against the recognized candy name (same as /onlycandy)")
	cmd.Flags().IntP("parallel", "p", 0, "Number of screenshots evaluated concurrently (default from config)")
	cmd.Flags().String("filter", "", "Only test screenshots whose name matches this regular expression")
	cmd.Flags().String("recognizer", "", "Recognizer command line (overrides recognizer.command)")
	cmd.Flags().Bool("record", false, "Save recognizer answers to the recordings file")
	cmd.Flags().Bool("replay", false, "Answer from the recordings file instead of running the recognizer")
	cmd.Flags().String("recordings", "", "Recordings file used by --record and --replay")
	cmd.Flags().String("report", "", "Write a report to this file (.md, .html or .json)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for run logs (empty string disables them)")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolP("verbose", "v", false, "Log every screenshot, passed ones included")
}

// runTests implements the root command: it tests every screenshot designated
// by the arguments and returns ErrTestsFailed when any of them failed.
func runTests(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	parsed := options.Parse(args)
	runCfg, err := buildRunConfiguration(cmd, cfg, parsed)
	if err != nil {
		return err
	}

	rec, recorder, description, err := buildRecognizer(cmd, cfg)
	if err != nil {
		return err
	}

	reportPath, _ := cmd.Flags().GetString("report")
	if reportPath != "" {
		if _, err := report.FormatFromPath(reportPath); err != nil {
			return executor.NewConfigError("report", reportPath, err)
		}
	}

	consoleLog := logger.NewConsoleLoggerWithErrors(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg.LogLevel)
	var fileLog *logger.FileLogger
	if cfg.LogDir != "" {
		fileLog, err = logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		defer fileLog.Close()
	}

	var runLog logger.RunLogger = consoleLog
	if fileLog != nil {
		runLog = logger.NewMultiLogger(consoleLog, fileLog)
	}

	runner := executor.NewTestRunner(rec, runCfg.OnlyCandyNameMatching)
	orchestrator := executor.NewOrchestrator(runner, runLog)

	result, err := orchestrator.Run(cmd.Context(), runCfg)
	if err != nil {
		return err
	}

	// Side outputs never change the verdict of a completed run
	if recorder != nil {
		path := recordingsPath(cmd, cfg)
		if err := recorder.Save(cmd.Context(), path); err != nil {
			consoleLog.LogWarn(fmt.Sprintf("Failed to save recordings: %v", err))
		} else {
			consoleLog.LogInfo(fmt.Sprintf("Saved %d recordings to %s", recorder.Len(), path))
		}
	}

	if reportPath != "" {
		if err := report.Write(reportPath, result); err != nil {
			consoleLog.LogWarn(fmt.Sprintf("Failed to write report: %v", err))
		} else {
			consoleLog.LogInfo(fmt.Sprintf("Report written to %s", reportPath))
		}
	}

	noHistory, _ := cmd.Flags().GetBool("no-history")
	if cfg.History.Enabled && !noHistory {
		if err := recordHistory(cmd, cfg, result, runCfg, description); err != nil {
			consoleLog.LogWarn(fmt.Sprintf("Failed to record run history: %v", err))
		}
	}

	if !result.Success {
		return ErrTestsFailed
	}
	return nil
}

// readConfig loads the file named by --config, which must exist, or
// .screencheck/config.yaml when present
func readConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		return config.LoadConfigFromDir(".")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file %s: %w", configPath, err)
	}
	return config.LoadConfig(configPath)
}

// loadConfig loads the configuration file and applies flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := readConfig(cmd)
	if err != nil {
		return nil, executor.NewConfigError("config", "failed to load configuration", err)
	}

	var flags config.Flags
	if cmd.Flags().Changed("player-level") {
		level, _ := cmd.Flags().GetInt("player-level")
		flags.PlayerLevel = &level
	}
	if cmd.Flags().Changed("only-candy") {
		onlyCandy, _ := cmd.Flags().GetBool("only-candy")
		flags.OnlyCandy = &onlyCandy
	}
	if cmd.Flags().Changed("parallel") {
		parallel, _ := cmd.Flags().GetInt("parallel")
		flags.Parallelism = &parallel
	}
	if cmd.Flags().Changed("log-level") {
		logLevel, _ := cmd.Flags().GetString("log-level")
		flags.LogLevel = &logLevel
	}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		debug := "debug"
		flags.LogLevel = &debug
	}
	if cmd.Flags().Changed("log-dir") {
		logDir, _ := cmd.Flags().GetString("log-dir")
		flags.LogDir = &logDir
	}
	if cmd.Flags().Changed("recognizer") {
		command, _ := cmd.Flags().GetString("recognizer")
		flags.Recognizer = &command
	}

	cfg.MergeWithFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, executor.NewConfigError("config", "invalid configuration", err)
	}

	return cfg, nil
}

// buildRunConfiguration combines the configuration, the slash options and the
// target argument. Slash options take precedence over flags and the file.
func buildRunConfiguration(cmd *cobra.Command, cfg *config.Config, parsed *options.Parsed) (models.RunConfiguration, error) {
	filter, _ := cmd.Flags().GetString("filter")

	runCfg := models.RunConfiguration{
		TargetPath:            cfg.ScreenshotsDirectory,
		DefaultPlayerLevel:    cfg.DefaultPlayerLevel(),
		OnlyCandyNameMatching: cfg.OnlyCandy,
		Extensions:            cfg.Extensions,
		Filter:                filter,
		Parallelism:           cfg.Parallelism,
	}

	if len(parsed.Parameters) > 1 {
		return runCfg, executor.NewConfigError("target",
			fmt.Sprintf("expected one screenshot file or directory, got %d", len(parsed.Parameters)), nil)
	}
	if target := parsed.Target(); target != "" {
		runCfg.TargetPath = target
	}

	if err := parsed.Apply(&runCfg); err != nil {
		return runCfg, executor.NewConfigError(options.KeyPlayerLevel, "invalid option", err)
	}

	return runCfg, nil
}

// buildRecognizer returns the recognizer used for the run, the recorder
// wrapping it when --record is set, and a description for the run history.
func buildRecognizer(cmd *cobra.Command, cfg *config.Config) (executor.Recognizer, *recognizer.Recorder, string, error) {
	record, _ := cmd.Flags().GetBool("record")
	replay, _ := cmd.Flags().GetBool("replay")

	if record && replay {
		return nil, nil, "", executor.NewConfigError("recognizer", "--record and --replay cannot be used together", nil)
	}

	if replay {
		path := recordingsPath(cmd, cfg)
		rec, err := recognizer.NewReplayRecognizer(path)
		if err != nil {
			return nil, nil, "", executor.NewConfigError("recordings", path, err)
		}
		return rec, nil, "replay " + path, nil
	}

	if cfg.Recognizer.Command == "" {
		return nil, nil, "", executor.NewConfigError("recognizer",
			"no recognizer configured (set recognizer.command, --recognizer or --replay)", nil)
	}

	command, err := recognizer.NewCommandRecognizer(cfg.Recognizer.Command)
	if err != nil {
		return nil, nil, "", executor.NewConfigError("recognizer", cfg.Recognizer.Command, err)
	}
	command.Timeout = cfg.Recognizer.Timeout

	if record {
		recorder := recognizer.NewRecorder(command)
		return recorder, recorder, cfg.Recognizer.Command, nil
	}
	return command, nil, cfg.Recognizer.Command, nil
}

func recordingsPath(cmd *cobra.Command, cfg *config.Config) string {
	if path, _ := cmd.Flags().GetString("recordings"); path != "" {
		return path
	}
	return cfg.Recognizer.Recordings
}

// recordHistory stores the run and prunes runs beyond history.keep_runs
func recordHistory(cmd *cobra.Command, cfg *config.Config, result *models.RunResult, runCfg models.RunConfiguration, description string) error {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return err
	}

	store, err := history.NewStore(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := cmd.Context()
	if err := store.RecordRun(ctx, history.NewRun(result, runCfg, description), result.Outcomes); err != nil {
		return err
	}

	_, err = store.PruneRuns(ctx, cfg.History.KeepRuns)
	return err
}
