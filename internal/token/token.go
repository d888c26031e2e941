// Package token defines vocabulary identifiers, merge rules and the
// rule-applying Tokenizer shared by the vocabulary state, the histogram and
// the corpus sources.
package token

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Token is a 16-bit vocabulary identifier. Ids 0-255 are the single bytes,
// ids from 256 upward are merge results in creation order.
type Token uint16

const (
	// ByteTokens is the number of fixed single-byte tokens.
	ByteTokens = 256
	// Sentinel separates documents in binary corpus shards and is never a
	// vocabulary entry.
	Sentinel Token = 0xFFFF
	// MaxVocabulary is the largest vocabulary that leaves Sentinel unused.
	MaxVocabulary = int(Sentinel)
)

// FromByte returns the single-byte token for b.
func FromByte(b byte) Token { return Token(b) }

// Index returns t as a slice index.
func (t Token) Index() int { return int(t) }

// IsByte reports whether t is one of the fixed single-byte tokens.
func (t Token) IsByte() bool { return t < ByteTokens }

// MergeRule states that adjacent Left and Right fuse into Result.
type MergeRule struct {
	Left   Token
	Right  Token
	Result Token
}

// String renders the rule in persisted log form.
func (r MergeRule) String() string {
	return fmt.Sprintf("%d %d %d", r.Left, r.Right, r.Result)
}

// Display renders a token byte string for humans: invalid UTF-8 is replaced,
// newlines are escaped and spaces become a visible marker.
func Display(b []byte) string {
	s := string(b)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "�")
	}
	s = strings.ReplaceAll(s, "\n", `\n`)
	return strings.ReplaceAll(s, " ", "⎵")
}
