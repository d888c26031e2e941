package merge

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

// Forbidden is a set of byte patterns that disqualify a merge result.
// The zero value matches nothing.
type Forbidden struct {
	literals [][]byte
	regexps  []*regexp.Regexp
	sources  []string
}

// ParseForbidden compiles patterns. Each pattern is one of
//
//	re:<expr>     RE2 expression matched against the byte string
//	hex:<bytes>   literal byte sequence in hex, e.g. hex:ff or hex:0a20
//	<text>        literal byte sequence
func ParseForbidden(patterns []string) (Forbidden, error) {
	var f Forbidden
	for _, p := range patterns {
		switch {
		case strings.HasPrefix(p, "re:"):
			re, err := regexp.Compile(strings.TrimPrefix(p, "re:"))
			if err != nil {
				return Forbidden{}, fmt.Errorf("forbidden pattern %q: %w", p, err)
			}
			f.regexps = append(f.regexps, re)
		case strings.HasPrefix(p, "hex:"):
			b, err := hex.DecodeString(strings.TrimPrefix(p, "hex:"))
			if err != nil {
				return Forbidden{}, fmt.Errorf("forbidden pattern %q: %w", p, err)
			}
			if len(b) == 0 {
				return Forbidden{}, fmt.Errorf("forbidden pattern %q: empty byte sequence", p)
			}
			f.literals = append(f.literals, b)
		case p == "":
			return Forbidden{}, fmt.Errorf("forbidden pattern: empty pattern")
		default:
			f.literals = append(f.literals, []byte(p))
		}
		f.sources = append(f.sources, p)
	}
	return f, nil
}

// MustForbidden is ParseForbidden for patterns known to be valid.
func MustForbidden(patterns ...string) Forbidden {
	f, err := ParseForbidden(patterns)
	if err != nil {
		panic(err)
	}
	return f
}

// Match reports whether b contains any forbidden pattern.
func (f Forbidden) Match(b []byte) bool {
	for _, lit := range f.literals {
		if bytes.Contains(b, lit) {
			return true
		}
	}
	for _, re := range f.regexps {
		if re.Match(b) {
			return true
		}
	}
	return false
}

// Len returns the number of patterns.
func (f Forbidden) Len() int { return len(f.sources) }

// Patterns returns the patterns as given to ParseForbidden.
func (f Forbidden) Patterns() []string { return append([]string(nil), f.sources...) }
