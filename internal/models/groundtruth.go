package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Level source constants
const (
	LevelFromFile      = "file"      // Level encoded in the screenshot name
	LevelFromDirectory = "directory" // Level taken from the parent directory name
	LevelFromDefault   = "default"   // Level taken from the default player level option
)

// GroundTruth is the expected recognition result for one screenshot,
// derived from its file name and, for the level, its parent directory.
// A nil field imposes no constraint on the recognizer output.
type GroundTruth struct {
	Name         *string  // Subject name (nil when wildcard)
	Level        *float64 // Expected level (nil when absent or unknown)
	LevelUnknown bool     // Level token was "X": no assertion and no fallback
	LevelSource  string   // Where Level came from: file, directory, default
	CombatPower  *int     // Expected combat power
	HitPoints    *int     // Expected hit points
}

// HasLevelAssertion returns true if the level must be checked
func (g *GroundTruth) HasLevelAssertion() bool {
	return g.Level != nil && !g.LevelUnknown
}

// String renders the ground truth in the same field order as the file name grammar
func (g *GroundTruth) String() string {
	parts := []string{
		"name=" + FormatString(g.Name),
	}

	switch {
	case g.LevelUnknown:
		parts = append(parts, "level=X")
	case g.Level != nil:
		level := FormatLevel(g.Level)
		if g.LevelSource != "" && g.LevelSource != LevelFromFile {
			level += " (" + g.LevelSource + ")"
		}
		parts = append(parts, "level="+level)
	default:
		parts = append(parts, "level=-")
	}

	parts = append(parts, "cp="+FormatInt(g.CombatPower), "hp="+FormatInt(g.HitPoints))
	return strings.Join(parts, " ")
}

// DirectoryLevelHint is parsed from a directory name such as "Foo - Lvl 12".
// It is only a fallback for screenshots whose own name has no level.
type DirectoryLevelHint struct {
	Name  string // Name prefix of the directory
	Level int    // Level encoded in the directory name
}

// String implements fmt.Stringer
func (h DirectoryLevelHint) String() string {
	return fmt.Sprintf("%s (level %d)", h.Name, h.Level)
}

// Ptr returns a pointer to a copy of v
func Ptr[T any](v T) *T {
	return &v
}

// FormatLevel formats an optional level, "-" when absent
func FormatLevel(level *float64) string {
	if level == nil {
		return "-"
	}
	return strconv.FormatFloat(*level, 'f', -1, 64)
}

// FormatInt formats an optional integer, "-" when absent
func FormatInt(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// FormatString formats an optional string, "-" when absent
func FormatString(s *string) string {
	if s == nil {
		return "-"
	}
	return *s
}
