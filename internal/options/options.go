// Package options separates slash options ("/name" or "/name:value") from
// positional parameters on the screencheck command line.
package options

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/harrison/screencheck/internal/models"
)

// Known option keys
const (
	KeyPlayerLevel = "playerlevel"
	KeyOnlyCandy   = "onlycandy"
)

// Prefix marks a command line token as an option
const Prefix = "/"

// ErrInvalidOption indicates an option value could not be decoded
var ErrInvalidOption = errors.New("invalid option")

// Parsed holds the options and positional parameters of a command line
type Parsed struct {
	Options    map[string]string // Lower-cased key -> value ("" for bare options)
	Parameters []string          // Positional parameters in order
}

// Parse splits raw command line tokens. Option keys are lower-cased, values
// are kept verbatim. A repeated key keeps its last value. A token whose key
// contains a "/" is an absolute path, not an option.
func Parse(args []string) *Parsed {
	parsed := &Parsed{
		Options:    make(map[string]string),
		Parameters: make([]string, 0, len(args)),
	}

	for _, arg := range args {
		if !IsOption(arg) {
			parsed.Parameters = append(parsed.Parameters, arg)
			continue
		}

		option := strings.TrimSpace(strings.TrimPrefix(arg, Prefix))
		key, value, _ := strings.Cut(option, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		parsed.Options[key] = value
	}

	return parsed
}

// IsOption returns true if arg is written as "/name" or "/name:value"
func IsOption(arg string) bool {
	if !strings.HasPrefix(arg, Prefix) {
		return false
	}
	key, _, _ := strings.Cut(strings.TrimPrefix(arg, Prefix), ":")
	return !strings.Contains(key, "/")
}

// Has returns true if the option was given, with or without a value
func (p *Parsed) Has(key string) bool {
	_, ok := p.Options[strings.ToLower(key)]
	return ok
}

// Int decodes an integer option. It returns nil when the option is absent.
func (p *Parsed) Int(key string) (*int, error) {
	value, ok := p.Options[strings.ToLower(key)]
	if !ok {
		return nil, nil
	}

	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("%w: /%s expects an integer, got %q", ErrInvalidOption, key, value)
	}
	return &v, nil
}

// Target returns the first positional parameter, or "" when there is none
func (p *Parsed) Target() string {
	if len(p.Parameters) == 0 {
		return ""
	}
	return p.Parameters[0]
}

// Unknown returns the options that are not recognized by screencheck
func (p *Parsed) Unknown() map[string]string {
	unknown := make(map[string]string)
	for k, v := range p.Options {
		if k != KeyPlayerLevel && k != KeyOnlyCandy {
			unknown[k] = v
		}
	}
	return unknown
}

// UnknownKeys returns the sorted keys of Unknown
func (p *Parsed) UnknownKeys() []string {
	unknown := p.Unknown()
	keys := make([]string, 0, len(unknown))
	for k := range unknown {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Apply decodes the known options into cfg. Options given on the command line
// take precedence over values already in cfg. A player level of 0 clears the
// default level; a negative one is invalid.
func (p *Parsed) Apply(cfg *models.RunConfiguration) error {
	level, err := p.Int(KeyPlayerLevel)
	if err != nil {
		return err
	}
	switch {
	case level == nil:
	case *level < 0:
		return fmt.Errorf("%w: /%s must be >= 0, got %d", ErrInvalidOption, KeyPlayerLevel, *level)
	case *level == 0:
		cfg.DefaultPlayerLevel = nil
	default:
		cfg.DefaultPlayerLevel = level
	}

	if p.Has(KeyOnlyCandy) {
		cfg.OnlyCandyNameMatching = true
	}

	cfg.UnknownOptions = p.Unknown()
	return nil
}
