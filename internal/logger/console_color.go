package logger

import (
	"fmt"
	"sort"

	"github.com/fatih/color"

	"github.com/harrison/screencheck/internal/models"
)

// colorScheme defines consistent colors for summary output.
// Green: passed counts and status
// Red: failed counts and status
// Yellow: aborted runs
type colorScheme struct {
	enabled bool
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	bold    *color.Color
}

// newColorScheme creates the standard color scheme. When enabled is false
// every helper returns plain text.
func newColorScheme(enabled bool) *colorScheme {
	return &colorScheme{
		enabled: enabled,
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		bold:    color.New(color.Bold),
	}
}

func (s *colorScheme) header(text string) string {
	if !s.enabled {
		return text
	}
	return s.bold.Sprint(text)
}

// count formats "label: n", red when alert is set and green otherwise.
func (s *colorScheme) count(label string, n int, alert bool) string {
	text := fmt.Sprintf("%s: %d", label, n)
	if !s.enabled {
		return text
	}
	if alert {
		return s.fail.Sprint(text)
	}
	return s.success.Sprint(text)
}

func (s *colorScheme) status(status models.RunStatus) string {
	text := string(status)
	if !s.enabled {
		return text
	}

	switch status {
	case models.StatusPassed:
		return s.success.Sprint(text)
	case models.StatusFailed:
		return s.fail.Sprint(text)
	case models.StatusAborted:
		return s.warn.Sprint(text)
	default:
		return text
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
