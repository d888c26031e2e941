// Package corpus provides the corpus sources the trainer counts over: an
// in-memory store of token documents and streaming readers for binary token
// shards, Arrow IPC shards, JSON encyclopedia dumps and tagged markup.
package corpus

import (
	"context"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/sourcegraph/conc/iter"
)

// Memory keeps every document as tokens. Retokenize rewrites the documents
// in place with only the new rules, which is what makes repeated rounds over
// a large corpus affordable.
type Memory struct {
	docs    [][]token.Token
	workers int
}

// NewMemory wraps docs. workers bounds re-tokenization parallelism; 0 uses
// GOMAXPROCS.
func NewMemory(docs [][]token.Token, workers int) *Memory {
	return &Memory{docs: docs, workers: workers}
}

// Len returns the number of documents.
func (m *Memory) Len() int { return len(m.docs) }

// Tokens returns the number of tokens over all documents.
func (m *Memory) Tokens() int {
	n := 0
	for _, d := range m.docs {
		n += len(d)
	}
	return n
}

// Documents calls fn for every document in order.
func (m *Memory) Documents(ctx context.Context, fn func(doc []token.Token) error) error {
	for _, d := range m.docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
	}
	return nil
}

// Split returns up to n contiguous views holding roughly equal token
// counts. Views share the documents; they are read-only for counting.
func (m *Memory) Split(n int) []train.Source {
	if n <= 1 || len(m.docs) <= 1 {
		return []train.Source{m}
	}
	per := (m.Tokens() + n - 1) / n
	var out []train.Source
	lo, acc := 0, 0
	for i, d := range m.docs {
		acc += len(d)
		if acc >= per && len(out) < n-1 {
			out = append(out, &Memory{docs: m.docs[lo : i+1], workers: m.workers})
			lo, acc = i+1, 0
		}
	}
	if lo < len(m.docs) {
		out = append(out, &Memory{docs: m.docs[lo:], workers: m.workers})
	}
	return out
}

// Retokenize applies the new rules of tok to every document, in parallel.
func (m *Memory) Retokenize(ctx context.Context, tok token.Tokenizer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tok.New() == 0 {
		return nil
	}
	it := iter.Iterator[[]token.Token]{MaxGoroutines: m.workers}
	it.ForEach(m.docs, func(doc *[]token.Token) {
		*doc = tok.Apply(*doc)
	})
	return nil
}

// Append adds documents. It must not run concurrently with other methods.
func (m *Memory) Append(docs ...[]token.Token) {
	m.docs = append(m.docs, docs...)
}
