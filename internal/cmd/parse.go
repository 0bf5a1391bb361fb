package cmd

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harrison/screencheck/internal/grammar"
)

// NewParseCommand creates the 'screencheck parse' command
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <screenshot-name>...",
		Short: "Show the ground truth derived from screenshot names",
		Long: `Parse screenshot names and print the ground truth screencheck would
check them against, without running a recognizer.

The level fallback uses the directory of each name, or --dir when given,
then --player-level. Exit status is 1 if any name cannot be parsed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runParse,
	}

	cmd.Flags().String("dir", "", "Parent directory name used for the level fallback")
	cmd.Flags().Int("player-level", 0, "Default player level used for the level fallback")

	return cmd
}

func runParse(cmd *cobra.Command, args []string) error {
	output := cmd.OutOrStdout()
	dirOverride, _ := cmd.Flags().GetString("dir")

	var defaultLevel *int
	if cmd.Flags().Changed("player-level") {
		level, _ := cmd.Flags().GetInt("player-level")
		if level < 0 {
			return fmt.Errorf("--player-level must be >= 0, got %d", level)
		}
		if level > 0 {
			defaultLevel = &level
		}
	}

	red := color.New(color.FgRed)

	var failures []error
	for _, arg := range args {
		parent := dirOverride
		if parent == "" {
			parent = filepath.Base(filepath.Dir(arg))
		}

		truth, err := grammar.Derive(filepath.Base(arg), parent, defaultLevel)
		if err != nil {
			red.Fprintf(output, "%s > %v\n", arg, err)
			failures = append(failures, err)
			continue
		}
		fmt.Fprintf(output, "%s > %s\n", arg, truth)
	}

	if len(failures) > 0 {
		return fmt.Errorf("%d of %d names could not be parsed: %w", len(failures), len(args), errors.Join(failures...))
	}
	return nil
}
