// Package doctor provides preflight checks for a training run: the
// vocabulary log replays, the corpus inputs exist and the training settings
// parse.
package doctor

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/example/go-bpe-trainer/internal/corpus"
	"github.com/example/go-bpe-trainer/internal/merge"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/spf13/afero"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// Config holds the inputs of each doctor check.
type Config struct {
	Fs afero.Fs
	// VocabPath is the vocabulary log. A missing file passes; training
	// creates it.
	VocabPath string
	// CorpusPaths are the corpus inputs; glob patterns are expanded.
	CorpusPaths []string
	// Format is the configured corpus format; auto is detected per input.
	Format     string
	TargetSize int
	Eta        string
	Forbidden  []string
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result
	fsys := cfg.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}

	// ---- vocabulary log ---------------------------------------------------
	size := token.ByteTokens
	switch state, err := vocab.Load(fsys, cfg.VocabPath); {
	case cfg.VocabPath == "":
		res.fail("vocabulary log: no path configured")
		fmt.Fprintf(w, "%s vocabulary log: not configured (set --vocab)\n", FailMark)
	case errors.Is(err, fs.ErrNotExist):
		fmt.Fprintf(w, "%s vocabulary log %s: new file\n", PassMark, cfg.VocabPath)
	case err != nil:
		res.fail(fmt.Sprintf("vocabulary log: %v", err))
		fmt.Fprintf(w, "%s vocabulary log: %v\n", FailMark, err)
	default:
		size = state.Size()
		fmt.Fprintf(w, "%s vocabulary log %s: %d tokens, %d rules\n", PassMark, cfg.VocabPath, state.Size(), state.Additional())
	}

	// ---- training settings ------------------------------------------------
	if err := checkTargetSize(cfg.TargetSize, size); err != nil {
		res.fail(fmt.Sprintf("target size: %v", err))
		fmt.Fprintf(w, "%s target size %d: %v\n", FailMark, cfg.TargetSize, err)
	} else {
		fmt.Fprintf(w, "%s target size: %d (%d to go)\n", PassMark, cfg.TargetSize, cfg.TargetSize-size)
	}

	if eta, err := merge.ParseEta(cfg.Eta); err != nil {
		res.fail(fmt.Sprintf("eta: %v", err))
		fmt.Fprintf(w, "%s eta %q: %v\n", FailMark, cfg.Eta, err)
	} else {
		fmt.Fprintf(w, "%s eta: %s\n", PassMark, eta)
	}

	if f, err := merge.ParseForbidden(cfg.Forbidden); err != nil {
		res.fail(fmt.Sprintf("forbidden patterns: %v", err))
		fmt.Fprintf(w, "%s forbidden patterns: %v\n", FailMark, err)
	} else {
		fmt.Fprintf(w, "%s forbidden patterns: %d", PassMark, f.Len())
		if f.Len() > 0 {
			fmt.Fprintf(w, " (%s)", strings.Join(f.Patterns(), ", "))
		}
		fmt.Fprintln(w)
	}

	// ---- corpus inputs ----------------------------------------------------
	if len(cfg.CorpusPaths) == 0 {
		res.fail("corpus: no inputs configured")
		fmt.Fprintf(w, "%s corpus: no inputs configured (set --corpus)\n", FailMark)
	}
	for _, pattern := range cfg.CorpusPaths {
		paths, err := afero.Glob(fsys, pattern)
		if err != nil || len(paths) == 0 {
			res.fail(fmt.Sprintf("corpus input %q: not found", pattern))
			fmt.Fprintf(w, "%s corpus input %s: not found\n", FailMark, pattern)
			continue
		}
		for _, path := range paths {
			format, err := checkInput(fsys, path, cfg.Format)
			if err != nil {
				res.fail(fmt.Sprintf("corpus input %q: %v", path, err))
				fmt.Fprintf(w, "%s corpus input %s: %v\n", FailMark, path, err)
				continue
			}
			fmt.Fprintf(w, "%s corpus input %s: %s\n", PassMark, path, format)
		}
	}

	return res
}

// checkTargetSize returns an error unless target can be trained from a
// vocabulary of size current.
func checkTargetSize(target, current int) error {
	if target <= token.ByteTokens || target > token.MaxVocabulary {
		return fmt.Errorf("must be in (%d, %d]", token.ByteTokens, token.MaxVocabulary)
	}
	if target < current {
		return fmt.Errorf("vocabulary already has %d tokens", current)
	}
	return nil
}

// checkInput verifies that path can be opened and returns its format.
func checkInput(fsys afero.Fs, path, format string) (string, error) {
	if format == "" || format == corpus.FormatAuto {
		detected, err := corpus.DetectFormat(fsys, path)
		if err != nil {
			return "", err
		}
		format = detected
	}
	f, err := fsys.Open(path)
	if err != nil {
		return "", err
	}
	return format, f.Close()
}
