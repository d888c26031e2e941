package corpus

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-bpe-trainer/internal/text"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// TextElement is the markup element whose character data forms a document.
const TextElement = "TEXT"

// ExtractText collects the character data inside every <TEXT> element of
// r, one line per text run. It returns "" when r has no text.
func ExtractText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	dec.Entity = xml.HTMLEntity

	var b strings.Builder
	inside := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == TextElement {
				inside = true
			}
		case xml.EndElement:
			if t.Name.Local == TextElement {
				inside = false
			}
		case xml.CharData:
			if inside {
				b.Write(t)
				b.WriteByte('\n')
			}
		}
	}
	return b.String(), nil
}

// Markup reads a directory of *.xml files; each file with text is one
// document.
type Markup struct {
	fs    afero.Fs
	files []string
	tok   token.Tokenizer
}

// NewMarkup lists the markup files in dir.
func NewMarkup(fsys afero.Fs, dir string, tok token.Tokenizer) (*Markup, error) {
	files, err := listFiles(fsys, dir, ".xml")
	if err != nil {
		return nil, err
	}
	return &Markup{fs: fsys, files: files, tok: tok.WithAllNew()}, nil
}

func (m *Markup) extract(path string) (s string, err error) {
	f, err := m.fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open markup: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	s, err = ExtractText(f)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", path, err)
	}
	return s, nil
}

// Documents yields the normalized text of every file that has any.
func (m *Markup) Documents(ctx context.Context, fn func(doc []token.Token) error) error {
	for _, path := range m.files {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := m.extract(path)
		if err != nil {
			return err
		}
		s, err := text.Normalize(raw)
		if errors.Is(err, text.ErrEmptyText) {
			continue
		}
		if err != nil {
			return err
		}
		if err := fn(m.tok.TokenizeBytes([]byte(s))); err != nil {
			return err
		}
	}
	return nil
}

// Split partitions the files.
func (m *Markup) Split(n int) []train.Source {
	groups := partition(m.files, n)
	out := make([]train.Source, len(groups))
	for i, g := range groups {
		out[i] = &Markup{fs: m.fs, files: g, tok: m.tok}
	}
	return out
}

// Retokenize keeps tok for subsequent reads.
func (m *Markup) Retokenize(_ context.Context, tok token.Tokenizer) error {
	m.tok = tok.WithAllNew()
	return nil
}
