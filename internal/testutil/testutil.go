// Package testutil provides shared fixtures for tests: in-memory file
// trees, byte-level documents and a deterministic text generator.
//
// Typical usage:
//
//	func TestMyCorpus(t *testing.T) {
//	    fsys := afero.NewMemMapFs()
//	    testutil.WriteFiles(t, fsys, map[string]string{"/wiki/a.json": `{}`})
//	    docs := testutil.ByteDocs(testutil.Sentences(100, 1)...)
//	    ...
//	}
package testutil

import (
	"io"
	"log/slog"
	"math/rand"
	"strings"
	"testing"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/spf13/afero"
)

// Words is the vocabulary Sentences draws from.
var Words = []string{"der", "die", "das", "und", "ist", "nicht", "ein", "eine", "mit", "sich", "über", "straße"}

// WriteFiles creates every file of files in fsys, parents included.
func WriteFiles(tb testing.TB, fsys afero.Fs, files map[string]string) {
	tb.Helper()

	for path, content := range files {
		if err := afero.WriteFile(fsys, path, []byte(content), 0o644); err != nil {
			tb.Fatalf("write %s: %v", path, err)
		}
	}
}

// ByteDocs returns each text as a document of byte tokens.
func ByteDocs(texts ...string) [][]token.Token {
	tok := token.NewTokenizer(nil)
	out := make([][]token.Token, len(texts))
	for i, s := range texts {
		out[i] = tok.TokenizeBytes([]byte(s))
	}
	return out
}

// Sentences returns n space-separated sentences of 3 to 10 Words. The same
// seed always yields the same sentences.
func Sentences(n int, seed int64) []string {
	rng := rand.New(rand.NewSource(seed))
	out := make([]string, n)
	for i := range out {
		var b strings.Builder
		for j := range 3 + rng.Intn(8) {
			if j > 0 {
				b.WriteByte(' ')
			}
			b.WriteString(Words[rng.Intn(len(Words))])
		}
		out[i] = b.String()
	}
	return out
}

// QuietLogger discards everything.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
