package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/harrison/screencheck/internal/models"
)

// ErrUnparsableName indicates a screenshot name does not follow the grammar
var ErrUnparsableName = errors.New("unparsable screenshot name")

// Keywords
const (
	keywordLevel       = "Lvl"
	keywordCombatPower = "Cp"
	keywordHitPoints   = "Hp"
)

// wildcardNames are names that impose no constraint on the recognized name
var wildcardNames = []string{"X", "_", "?"}

// ScreenshotName holds the fields parsed from a screenshot file name
type ScreenshotName struct {
	Name         string   // Name as written in the file name
	Level        *float64 // Level, nil when omitted or unknown
	LevelUnknown bool     // Level was written as X
	CombatPower  int      // Combat power
	HitPoints    int      // Hit points
}

// HasLevel returns true if the name carries a level field (numeric or X)
func (n *ScreenshotName) HasLevel() bool {
	return n.Level != nil || n.LevelUnknown
}

// IsWildcard returns true if the name is a placeholder that matches any subject
func (n *ScreenshotName) IsWildcard() bool {
	for _, w := range wildcardNames {
		if strings.EqualFold(n.Name, w) {
			return true
		}
	}
	return false
}

// ParseDirectoryName parses a directory name of the form "<Name> - Lvl <Level>".
// It returns false when the name is not eligible for level inference.
func ParseDirectoryName(name string) (*models.DirectoryLevelHint, bool) {
	for _, i := range splitPoints(name) {
		if !validName(name[:i]) {
			continue
		}

		sc := newScanner(name)
		sc.pos = i
		if !sc.separator() || !sc.keyword(keywordLevel) {
			continue
		}
		sc.spaces()
		level, ok := sc.integer()
		if !ok || !sc.atEnd() {
			continue
		}

		return &models.DirectoryLevelHint{Name: name[:i], Level: level}, true
	}

	return nil, false
}

// ParseScreenshotName parses a screenshot file name of the form
// "<Name> - Lvl <Level> - Cp <CP> - Hp <HP>". Trailing content after the Hp
// value is ignored. The Lvl field is optional.
func ParseScreenshotName(name string) (*ScreenshotName, error) {
	for _, i := range splitPoints(name) {
		if !validName(name[:i]) {
			continue
		}
		if parsed, ok := parseScreenshotFields(name, i, true); ok {
			return parsed, nil
		}
		if parsed, ok := parseScreenshotFields(name, i, false); ok {
			return parsed, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrUnparsableName, name)
}

// parseScreenshotFields parses everything after the name, which ends at pos
func parseScreenshotFields(name string, pos int, withLevel bool) (*ScreenshotName, bool) {
	sc := newScanner(name)
	sc.pos = pos
	parsed := &ScreenshotName{Name: name[:pos]}

	if withLevel {
		if !sc.separator() || !sc.keyword(keywordLevel) {
			return nil, false
		}
		sc.spaces()
		level, unknown, ok := sc.level()
		if !ok {
			return nil, false
		}
		if unknown {
			parsed.LevelUnknown = true
		} else {
			parsed.Level = &level
		}
	}

	if !sc.separator() || !sc.keyword(keywordCombatPower) {
		return nil, false
	}
	sc.spaces()
	cp, ok := sc.integer()
	if !ok {
		return nil, false
	}
	parsed.CombatPower = cp

	if !sc.separator() || !sc.keyword(keywordHitPoints) {
		return nil, false
	}
	sc.spaces()
	hp, ok := sc.integer()
	if !ok {
		return nil, false
	}
	parsed.HitPoints = hp

	return parsed, true
}

// Derive builds the ground truth of a screenshot from its file name, the name
// of the directory that immediately contains it and the default player level.
// The directory and default levels only apply when the file name has no Lvl
// field; an explicit level, including X, is never overridden.
func Derive(fileName, parentDirName string, defaultLevel *int) (*models.GroundTruth, error) {
	parsed, err := ParseScreenshotName(fileName)
	if err != nil {
		return nil, err
	}

	truth := &models.GroundTruth{
		CombatPower: models.Ptr(parsed.CombatPower),
		HitPoints:   models.Ptr(parsed.HitPoints),
	}
	if !parsed.IsWildcard() {
		truth.Name = models.Ptr(parsed.Name)
	}

	switch {
	case parsed.LevelUnknown:
		truth.LevelUnknown = true
		truth.LevelSource = models.LevelFromFile
	case parsed.Level != nil:
		truth.Level = parsed.Level
		truth.LevelSource = models.LevelFromFile
	default:
		if hint, ok := ParseDirectoryName(parentDirName); ok {
			truth.Level = models.Ptr(float64(hint.Level))
			truth.LevelSource = models.LevelFromDirectory
		} else if defaultLevel != nil {
			truth.Level = models.Ptr(float64(*defaultLevel))
			truth.LevelSource = models.LevelFromDefault
		}
	}

	return truth, nil
}

// NormalizeName lower-cases a name and drops everything but letters and
// digits, so "Farfetch'd", "farfetchd" and "FARFETCH.D" compare equal.
func NormalizeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}
