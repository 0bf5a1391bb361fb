package grammar

import (
	"strconv"
	"strings"
)

// scanner is a cursor over a name being parsed
type scanner struct {
	s   string
	pos int
}

func newScanner(s string) *scanner {
	return &scanner{s: s}
}

func (sc *scanner) atEnd() bool {
	return sc.pos >= len(sc.s)
}

func (sc *scanner) peek() byte {
	if sc.atEnd() {
		return 0
	}
	return sc.s[sc.pos]
}

func (sc *scanner) spaces() int {
	start := sc.pos
	for !sc.atEnd() && sc.s[sc.pos] == ' ' {
		sc.pos++
	}
	return sc.pos - start
}

// separator consumes a field separator: spaces, an optional single "-" or ","
// and spaces. It must consume at least one character.
func (sc *scanner) separator() bool {
	start := sc.pos
	sc.spaces()
	if c := sc.peek(); c == '-' || c == ',' {
		sc.pos++
	}
	sc.spaces()
	return sc.pos > start
}

// keyword consumes kw case-insensitively
func (sc *scanner) keyword(kw string) bool {
	end := sc.pos + len(kw)
	if end > len(sc.s) || !strings.EqualFold(sc.s[sc.pos:end], kw) {
		return false
	}
	sc.pos = end
	return true
}

func (sc *scanner) digits() (string, bool) {
	start := sc.pos
	for !sc.atEnd() && isDigit(sc.s[sc.pos]) {
		sc.pos++
	}
	return sc.s[start:sc.pos], sc.pos > start
}

func (sc *scanner) integer() (int, bool) {
	d, ok := sc.digits()
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(d)
	if err != nil {
		return 0, false
	}
	return v, true
}

// level consumes either X (unknown) or a decimal number, optionally ending
// with a bare decimal point
func (sc *scanner) level() (value float64, unknown bool, ok bool) {
	if c := sc.peek(); c == 'X' || c == 'x' {
		sc.pos++
		return 0, true, true
	}

	start := sc.pos
	if _, ok := sc.digits(); !ok {
		return 0, false, false
	}
	// "20." is accepted as 20
	if sc.peek() == '.' {
		sc.pos++
		sc.digits()
	}

	v, err := strconv.ParseFloat(sc.s[start:sc.pos], 64)
	if err != nil {
		return 0, false, false
	}
	return v, false, true
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// validName reports whether s can be the name part of a directory or
// screenshot name
func validName(s string) bool {
	if s == "" {
		return false
	}
	switch s[0] {
	case ' ', '-', ',':
		return false
	}
	if s[len(s)-1] == ' ' {
		return false
	}
	return !strings.Contains(s, " -")
}

// splitPoints returns the candidate positions where the name can end, in
// increasing order. A name always ends right before a separator character.
func splitPoints(s string) []int {
	var points []int
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case ' ', '-', ',':
			points = append(points, i)
		}
	}
	return points
}
