package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// HomeEnv names the environment variable overriding the screencheck home directory
const HomeEnv = "SCREENCHECK_HOME"

// GetHome returns the screencheck home directory
// Priority order:
//  1. SCREENCHECK_HOME environment variable (if set)
//  2. .screencheck in the current working directory
//
// The directory is created if it doesn't exist
func GetHome() (string, error) {
	home := os.Getenv(HomeEnv)
	if home == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get working directory: %w", err)
		}
		home = filepath.Join(cwd, ".screencheck")
	}

	if err := os.MkdirAll(home, 0755); err != nil {
		return "", fmt.Errorf("create screencheck home directory: %w", err)
	}

	return home, nil
}

// HistoryDBPath returns the history database path: the configured path when
// set, $SCREENCHECK_HOME/history.db otherwise
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}

	home, err := GetHome()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, "history.db"), nil
}
