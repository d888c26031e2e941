package corpus

import (
	"context"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
)

// Multi concatenates several sources.
type Multi struct {
	children []train.Source
}

// NewMulti returns a source that enumerates children in order.
func NewMulti(children ...train.Source) *Multi {
	return &Multi{children: children}
}

// Documents enumerates every child in order.
func (m *Multi) Documents(ctx context.Context, fn func(doc []token.Token) error) error {
	for _, c := range m.children {
		if err := c.Documents(ctx, fn); err != nil {
			return err
		}
	}
	return nil
}

// Split yields at least one sub-source per child. When n exceeds the number
// of children the remaining budget is spread over the children's own splits.
func (m *Multi) Split(n int) []train.Source {
	if len(m.children) == 0 {
		return []train.Source{m}
	}
	per := max(1, n/len(m.children))
	var out []train.Source
	for _, c := range m.children {
		out = append(out, c.Split(per)...)
	}
	return out
}

// Retokenize forwards tok to every child.
func (m *Multi) Retokenize(ctx context.Context, tok token.Tokenizer) error {
	for _, c := range m.children {
		if err := c.Retokenize(ctx, tok); err != nil {
			return err
		}
	}
	return nil
}
