package testutil

import (
	"slices"
	"strings"
	"testing"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/spf13/afero"
)

func TestWriteFiles(t *testing.T) {
	fsys := afero.NewMemMapFs()
	WriteFiles(t, fsys, map[string]string{"/a/b/c.txt": "hi"})

	b, err := afero.ReadFile(fsys, "/a/b/c.txt")
	if err != nil || string(b) != "hi" {
		t.Errorf("ReadFile = %q, %v; want \"hi\"", b, err)
	}
}

func TestByteDocs(t *testing.T) {
	got := ByteDocs("ab", "")
	if len(got) != 2 || !slices.Equal(got[0], []token.Token{'a', 'b'}) || len(got[1]) != 0 {
		t.Errorf("ByteDocs = %v; want [[97 98] []]", got)
	}
}

func TestSentences_Deterministic(t *testing.T) {
	a, b := Sentences(20, 5), Sentences(20, 5)
	if !slices.Equal(a, b) {
		t.Fatal("same seed produced different sentences")
	}

	for _, s := range a {
		n := len(strings.Fields(s))
		if n < 3 || n > 10 {
			t.Errorf("sentence %q has %d words; want 3..10", s, n)
		}
	}
}
