// Package vocab owns the byte string of every token and the ordered
// merge-rule log, persisted one rule per line so that a crashed training run
// resumes by replaying the log.
package vocab

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/spf13/afero"
)

var (
	// ErrMalformedLog is returned when a persisted log line cannot be
	// replayed.
	ErrMalformedLog = errors.New("malformed vocabulary log")
	// ErrTokenOutOfRange is returned for token ids outside the vocabulary.
	ErrTokenOutOfRange = errors.New("token out of range")
	// ErrTokenInUse is returned when removing a token other rules build on.
	ErrTokenInUse = errors.New("token is used by a merge rule")
	// ErrByteToken is returned when removing one of the 256 byte tokens.
	ErrByteToken = errors.New("single-byte tokens cannot be removed")
	// ErrVocabularyFull is returned when no token id below the document
	// sentinel is left.
	ErrVocabularyFull = errors.New("vocabulary is full")
)

// State is the vocabulary: byte strings for every token plus the rule log.
// It is not safe for concurrent mutation; concurrent readers are fine while
// no goroutine calls AddToken, RemoveToken or Sync.
type State struct {
	vocab [][]byte
	rules []token.MergeRule

	fs   afero.Fs
	path string
	file afero.File
	// dirty is set while the log on disk lags behind a removal.
	dirty bool
}

// Empty returns a state holding only the byte tokens and no backing log.
func Empty() *State {
	return &State{vocab: byteVocabulary()}
}

func byteVocabulary() [][]byte {
	v := make([][]byte, token.ByteTokens, token.ByteTokens+1024)
	for i := range v {
		v[i] = []byte{byte(i)}
	}
	return v
}

// Open replays the log at path and keeps it open for appending. A missing
// file yields the byte-only vocabulary and is created.
func Open(fsys afero.Fs, path string) (*State, error) {
	s := Empty()
	s.fs = fsys
	s.path = path

	f, err := fsys.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("open vocabulary log: %w", err)
	default:
		replayErr := s.replay(f)
		closeErr := f.Close()
		if replayErr != nil {
			return nil, fmt.Errorf("%s: %w", path, replayErr)
		}
		if closeErr != nil {
			return nil, fmt.Errorf("close vocabulary log: %w", closeErr)
		}
	}

	if err := s.openAppend(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load replays the log at path without keeping it open. The result has no
// backing log: AddToken only grows memory and Sync is a no-op. A missing
// file is an error wrapping fs.ErrNotExist.
func Load(fsys afero.Fs, path string) (*State, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary log: %w", err)
	}
	defer f.Close()

	s := Empty()
	if err := s.replay(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *State) openAppend() error {
	f, err := s.fs.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open vocabulary log for append: %w", err)
	}
	s.file = f
	return nil
}

func (s *State) replay(r io.Reader) error {
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		rule, err := parseRule(sc.Text())
		if err != nil {
			return fmt.Errorf("line %d: %w", lineNo, err)
		}
		if int(rule.Result) != len(s.vocab) {
			return fmt.Errorf("line %d: %w: result %d, expected %d", lineNo, ErrMalformedLog, rule.Result, len(s.vocab))
		}
		if int(rule.Left) >= len(s.vocab) || int(rule.Right) >= len(s.vocab) {
			return fmt.Errorf("line %d: %w: operand references unknown token", lineNo, ErrMalformedLog)
		}
		s.push(rule)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read vocabulary log: %w", err)
	}
	return nil
}

// parseRule parses "<left> <right> <result>".
func parseRule(line string) (token.MergeRule, error) {
	fields := strings.Split(line, " ")
	if len(fields) != 3 {
		return token.MergeRule{}, fmt.Errorf("%w: expected three numbers, got %q", ErrMalformedLog, line)
	}
	var ids [3]token.Token
	for i, field := range fields {
		n, err := strconv.ParseUint(field, 10, 16)
		if err != nil {
			return token.MergeRule{}, fmt.Errorf("%w: invalid number %q", ErrMalformedLog, field)
		}
		ids[i] = token.Token(n)
	}
	return token.MergeRule{Left: ids[0], Right: ids[1], Result: ids[2]}, nil
}

// push appends rule and its cached byte string. The rule must be valid.
func (s *State) push(rule token.MergeRule) {
	left, right := s.vocab[rule.Left], s.vocab[rule.Right]
	b := make([]byte, 0, len(left)+len(right))
	b = append(b, left...)
	b = append(b, right...)
	s.vocab = append(s.vocab, b)
	s.rules = append(s.rules, rule)
}

// AddToken creates the token for left followed by right. The rule is
// written to the log and flushed to disk before the in-memory vocabulary
// grows; on a write error the state is unchanged. A log left stale by
// RemoveToken is rewritten first.
func (s *State) AddToken(left, right token.Token) (token.Token, error) {
	if !s.valid(left) || !s.valid(right) {
		return 0, fmt.Errorf("%w: add %d %d with vocabulary size %d", ErrTokenOutOfRange, left, right, len(s.vocab))
	}
	if len(s.vocab) >= token.MaxVocabulary {
		return 0, ErrVocabularyFull
	}
	if s.dirty {
		if err := s.Sync(); err != nil {
			return 0, err
		}
	}

	rule := token.MergeRule{Left: left, Right: right, Result: token.Token(len(s.vocab))}
	if s.file != nil {
		if _, err := io.WriteString(s.file, rule.String()+"\n"); err != nil {
			return 0, fmt.Errorf("append vocabulary log: %w", err)
		}
		if err := s.file.Sync(); err != nil {
			return 0, fmt.Errorf("sync vocabulary log: %w", err)
		}
	}
	s.push(rule)
	return rule.Result, nil
}

// RemoveToken deletes t and shifts every later token id down by one,
// rewriting the rules that mention them. It refuses byte tokens and tokens
// that another rule builds on, leaving the state untouched. The log is not
// rewritten until Sync or the next AddToken.
//
// Removal is linear in the vocabulary size and meant for offline curation.
func (s *State) RemoveToken(t token.Token) error {
	if !s.valid(t) {
		return fmt.Errorf("%w: %d", ErrTokenOutOfRange, t)
	}
	if t.IsByte() {
		return fmt.Errorf("%w: %d", ErrByteToken, t)
	}
	for _, r := range s.rules {
		if r.Left == t || r.Right == t {
			return fmt.Errorf("%w: %d is an operand of %s", ErrTokenInUse, t, r)
		}
	}

	s.vocab = append(s.vocab[:t], s.vocab[t+1:]...)
	i := t.Index() - token.ByteTokens
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	shift := func(x token.Token) token.Token {
		if x > t {
			return x - 1
		}
		return x
	}
	for i := range s.rules {
		s.rules[i].Left = shift(s.rules[i].Left)
		s.rules[i].Right = shift(s.rules[i].Right)
		s.rules[i].Result = shift(s.rules[i].Result)
	}
	s.dirty = s.fs != nil
	return nil
}

// Sync rewrites the whole log from memory. The new content is written to a
// temporary file and renamed over the log.
func (s *State) Sync() error {
	if s.fs == nil {
		return nil
	}

	var buf bytes.Buffer
	for _, r := range s.rules {
		buf.WriteString(r.String())
		buf.WriteByte('\n')
	}

	if s.file != nil {
		if err := s.file.Close(); err != nil {
			return fmt.Errorf("close vocabulary log: %w", err)
		}
		s.file = nil
	}

	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write vocabulary log: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace vocabulary log: %w", err)
	}
	s.dirty = false
	return s.openAppend()
}

// Close releases the log file.
func (s *State) Close() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}

func (s *State) valid(t token.Token) bool { return t.Index() < len(s.vocab) }

// Path returns the log path, empty for an unpersisted state.
func (s *State) Path() string { return s.path }

// Size returns the number of tokens, 256 plus the number of rules.
func (s *State) Size() int { return len(s.vocab) }

// Additional returns the number of merge rules.
func (s *State) Additional() int { return len(s.rules) }

// Bytes returns the byte string of t. The slice must not be modified.
// It returns nil for unknown tokens.
func (s *State) Bytes(t token.Token) []byte {
	if !s.valid(t) {
		return nil
	}
	return s.vocab[t]
}

// Len returns the byte length of t.
func (s *State) Len(t token.Token) int { return len(s.Bytes(t)) }

// Tokens returns every token id in order.
func (s *State) Tokens() []token.Token {
	out := make([]token.Token, len(s.vocab))
	for i := range out {
		out[i] = token.Token(i)
	}
	return out
}

// Rules returns a copy of the rule log.
func (s *State) Rules() []token.MergeRule {
	out := make([]token.MergeRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Tokenizer snapshots the current rules; every rule counts as new.
func (s *State) Tokenizer() token.Tokenizer {
	return token.NewTokenizer(s.rules)
}
