package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for screencheck.
// Without a subcommand it tests the screenshots designated by its arguments.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "screencheck [screenshot-file-or-directory] [/playerlevel:N] [/onlycandy]",
		Short: "Test a screenshot recognizer against ground truth encoded in file names",
		Long: `screencheck runs a recognizer over a set of screenshots and checks its output
against the ground truth encoded in each file name:

  <Name> - Lvl <Level> - Cp <CP> - Hp <HP>.png

The Lvl field may be omitted when the containing directory is named
"<anything> - Lvl <N>" or when a default player level is given. A level of
"X" is never checked. A name of "X", "_" or "?" matches any recognized name.

The target is a single screenshot or a directory searched recursively. When
no target is given, screenshots_directory from the configuration is used.

Options may also be given in slash form, as accepted by earlier versions:

  /playerlevel:<N>   default player level
  /onlycandy         compare names against the recognized candy name

A token starting with "/" is a slash option unless its name contains another
"/". Write a top-level directory as /screenshots/ or ./screenshots, since
plain /screenshots is read as an (unknown) option.

Exit status is 0 when every screenshot passed (or none were found), 1 when
at least one failed and 2 when the run could not start.

Configuration is loaded from .screencheck/config.yaml if present.
CLI flags and slash options override configuration file settings.

Examples:
  screencheck screenshots/ --recognizer "recognize --json"
  screencheck screenshots/ /playerlevel:27 /onlycandy
  screencheck "screenshots/Pidgey - Lvl 20 - Cp 500 - Hp 80.png"
  screencheck screenshots/ --parallel 8 --report report.html
  screencheck screenshots/ --record          # save recognizer answers
  screencheck screenshots/ --replay          # rerun without the recognizer`,
		Version:       Version,
		Args:          cobra.ArbitraryArgs,
		RunE:          runTests,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	addRunFlags(cmd)

	cmd.AddCommand(NewParseCommand())
	cmd.AddCommand(NewHistoryCommand())

	return cmd
}
