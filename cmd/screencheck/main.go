package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/harrison/screencheck/internal/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand()

	err := rootCmd.Execute()
	if err != nil && !errors.Is(err, cmd.ErrTestsFailed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
