package train

import (
	"context"

	"github.com/example/go-bpe-trainer/internal/token"
)

// Source is the corpus as the trainer sees it.
//
// Documents enumerates the stored content as token documents; fn must not
// retain doc. Split partitions the content into at most n sub-sources that
// can be enumerated concurrently; they are only used for counting.
// Retokenize brings the retained content up to date with tok, whose New()
// rules are the ones added since the previous call.
type Source interface {
	Documents(ctx context.Context, fn func(doc []token.Token) error) error
	Split(n int) []Source
	Retokenize(ctx context.Context, tok token.Tokenizer) error
}
