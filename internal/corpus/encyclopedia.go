package corpus

import (
	"context"
	"fmt"

	"github.com/example/go-bpe-trainer/internal/text"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Article is one encyclopedia entry as stored in the JSON dump.
type Article struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Encyclopedia reads a directory of JSON articles, one article per *.json
// file. Each article is cleaned with text.PrepareArticle and tokenized from
// raw bytes on every read.
type Encyclopedia struct {
	fs    afero.Fs
	files []string
	tok   token.Tokenizer
}

// NewEncyclopedia lists the articles in dir.
func NewEncyclopedia(fsys afero.Fs, dir string, tok token.Tokenizer) (*Encyclopedia, error) {
	files, err := listFiles(fsys, dir, ".json")
	if err != nil {
		return nil, err
	}
	return &Encyclopedia{fs: fsys, files: files, tok: tok.WithAllNew()}, nil
}

// Files returns the number of articles.
func (e *Encyclopedia) Files() int { return len(e.files) }

// LoadArticle decodes the article at path.
func LoadArticle(fsys afero.Fs, path string) (a Article, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return Article{}, fmt.Errorf("open article: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	if err := json.NewDecoder(f).Decode(&a); err != nil {
		return Article{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return a, nil
}

// Documents yields every article in file name order.
func (e *Encyclopedia) Documents(ctx context.Context, fn func(doc []token.Token) error) error {
	for _, path := range e.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := LoadArticle(e.fs, path)
		if err != nil {
			return err
		}
		prepared := text.PrepareArticle(a.Title, a.Text)
		if err := fn(e.tok.TokenizeBytes([]byte(prepared))); err != nil {
			return err
		}
	}
	return nil
}

// Split partitions the article files.
func (e *Encyclopedia) Split(n int) []train.Source {
	groups := partition(e.files, n)
	out := make([]train.Source, len(groups))
	for i, g := range groups {
		out[i] = &Encyclopedia{fs: e.fs, files: g, tok: e.tok}
	}
	return out
}

// Retokenize keeps tok for subsequent reads.
func (e *Encyclopedia) Retokenize(_ context.Context, tok token.Tokenizer) error {
	e.tok = tok.WithAllNew()
	return nil
}
