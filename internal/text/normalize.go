// Package text cleans raw corpus text before it is tokenized.
package text

import (
	"errors"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrEmptyText is returned when the input text is empty or whitespace-only.
var ErrEmptyText = errors.New("text is empty")

// Normalize prepares a raw document for tokenization.
// It normalizes line endings to \n, composes Unicode to NFC, trims
// surrounding whitespace and rejects empty or whitespace-only input.
func Normalize(s string) (string, error) {
	s = strings.TrimSpace(normalizeLines(s))
	if s == "" {
		return "", ErrEmptyText
	}
	return s, nil
}

// normalizeLines turns CRLF and bare CR into LF and composes to NFC.
func normalizeLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return norm.NFC.String(s)
}
