package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harrison/screencheck/internal/logger"
)

// RecognizerConfig configures the recognizer invoked for every screenshot
type RecognizerConfig struct {
	// Command is the recognizer program and its arguments
	Command string `yaml:"command"`

	// Timeout limits the time spent on one screenshot (0 = no limit)
	Timeout time.Duration `yaml:"timeout"`

	// Recordings is the YAML file used by --record and --replay
	Recordings string `yaml:"recordings"`
}

// HistoryConfig configures the run history database
type HistoryConfig struct {
	// Enabled records every run in the history database
	Enabled bool `yaml:"enabled"`

	// DBPath is the path to the history database (empty = $SCREENCHECK_HOME/history.db)
	DBPath string `yaml:"db_path"`

	// KeepRuns is the number of most recent runs kept (0 = keep all)
	KeepRuns int `yaml:"keep_runs"`
}

// Config represents screencheck configuration options
type Config struct {
	// ScreenshotsDirectory is tested when no target is given on the command line
	ScreenshotsDirectory string `yaml:"screenshots_directory"`

	// Extensions are the screenshot file extensions to scan for
	Extensions []string `yaml:"extensions"`

	// PlayerLevel is the default player level (0 = none)
	PlayerLevel int `yaml:"player_level"`

	// OnlyCandy compares names against the recognized candy name
	OnlyCandy bool `yaml:"only_candy"`

	// Parallelism is the number of screenshots evaluated concurrently
	Parallelism int `yaml:"parallelism"`

	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where run logs are written (empty = no run log)
	LogDir string `yaml:"log_dir"`

	Recognizer RecognizerConfig `yaml:"recognizer"`
	History    HistoryConfig    `yaml:"history"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		Extensions:  []string{".png", ".jpg", ".jpeg"},
		Parallelism: 1,
		LogLevel:    "info",
		LogDir:      filepath.Join(".screencheck", "logs"),
		Recognizer: RecognizerConfig{
			Recordings: filepath.Join(".screencheck", "recordings.yaml"),
		},
		History: HistoryConfig{
			Enabled:  true,
			KeepRuns: 200,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// If the file doesn't exist, returns default configuration without error.
// Keys present in the file override the defaults, even when set to a zero value.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Durations are parsed by hand to accept "30s" style values
	type yamlRecognizer struct {
		Command    string `yaml:"command"`
		Timeout    string `yaml:"timeout"`
		Recordings string `yaml:"recordings"`
	}
	type yamlConfig struct {
		ScreenshotsDirectory string         `yaml:"screenshots_directory"`
		Extensions           []string       `yaml:"extensions"`
		PlayerLevel          int            `yaml:"player_level"`
		OnlyCandy            bool           `yaml:"only_candy"`
		Parallelism          int            `yaml:"parallelism"`
		LogLevel             string         `yaml:"log_level"`
		LogDir               string         `yaml:"log_dir"`
		Recognizer           yamlRecognizer `yaml:"recognizer"`
		History              HistoryConfig  `yaml:"history"`
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var rawMap map[string]interface{}
	if err := yaml.Unmarshal(data, &rawMap); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	has := func(section map[string]interface{}, key string) bool {
		_, exists := section[key]
		return exists
	}

	if has(rawMap, "screenshots_directory") {
		cfg.ScreenshotsDirectory = yamlCfg.ScreenshotsDirectory
	}
	if has(rawMap, "extensions") {
		cfg.Extensions = yamlCfg.Extensions
	}
	if has(rawMap, "player_level") {
		cfg.PlayerLevel = yamlCfg.PlayerLevel
	}
	if has(rawMap, "only_candy") {
		cfg.OnlyCandy = yamlCfg.OnlyCandy
	}
	if has(rawMap, "parallelism") {
		cfg.Parallelism = yamlCfg.Parallelism
	}
	if has(rawMap, "log_level") {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if has(rawMap, "log_dir") {
		cfg.LogDir = yamlCfg.LogDir
	}

	if section, ok := rawMap["recognizer"].(map[string]interface{}); ok {
		if has(section, "command") {
			cfg.Recognizer.Command = yamlCfg.Recognizer.Command
		}
		if has(section, "recordings") {
			cfg.Recognizer.Recordings = yamlCfg.Recognizer.Recordings
		}
		if yamlCfg.Recognizer.Timeout != "" {
			timeout, err := time.ParseDuration(yamlCfg.Recognizer.Timeout)
			if err != nil {
				return nil, fmt.Errorf("invalid recognizer.timeout format %q: %w", yamlCfg.Recognizer.Timeout, err)
			}
			cfg.Recognizer.Timeout = timeout
		}
	}

	if section, ok := rawMap["history"].(map[string]interface{}); ok {
		if has(section, "enabled") {
			cfg.History.Enabled = yamlCfg.History.Enabled
		}
		if has(section, "db_path") {
			cfg.History.DBPath = yamlCfg.History.DBPath
		}
		if has(section, "keep_runs") {
			cfg.History.KeepRuns = yamlCfg.History.KeepRuns
		}
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .screencheck/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".screencheck", "config.yaml"))
}

// Flags carries command-line overrides. Nil fields leave the configuration unchanged.
type Flags struct {
	PlayerLevel *int
	OnlyCandy   *bool
	Parallelism *int
	LogLevel    *string
	LogDir      *string
	Recognizer  *string
	History     *bool
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(flags Flags) {
	if flags.PlayerLevel != nil {
		c.PlayerLevel = *flags.PlayerLevel
	}
	if flags.OnlyCandy != nil {
		c.OnlyCandy = *flags.OnlyCandy
	}
	if flags.Parallelism != nil {
		c.Parallelism = *flags.Parallelism
	}
	if flags.LogLevel != nil {
		c.LogLevel = *flags.LogLevel
	}
	if flags.LogDir != nil {
		c.LogDir = *flags.LogDir
	}
	if flags.Recognizer != nil {
		c.Recognizer.Command = *flags.Recognizer
	}
	if flags.History != nil {
		c.History.Enabled = *flags.History
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be >= 1, got %d", c.Parallelism)
	}

	if c.PlayerLevel < 0 {
		return fmt.Errorf("player_level must be >= 0, got %d", c.PlayerLevel)
	}

	if !logger.IsValidLevel(c.LogLevel) {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions cannot be empty")
	}

	if c.History.KeepRuns < 0 {
		return fmt.Errorf("history.keep_runs must be >= 0, got %d", c.History.KeepRuns)
	}

	if c.Recognizer.Timeout < 0 {
		return fmt.Errorf("recognizer.timeout must be >= 0, got %v", c.Recognizer.Timeout)
	}

	return nil
}

// DefaultPlayerLevel returns the configured player level, nil when unset
func (c *Config) DefaultPlayerLevel() *int {
	if c.PlayerLevel <= 0 {
		return nil
	}
	level := c.PlayerLevel
	return &level
}
