package corpus

import (
	"context"
	"runtime"
	"slices"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"golang.org/x/sync/errgroup"
)

// Materialize reads every document of src into memory. The parts returned
// by src.Split(workers) are read concurrently and concatenated in order.
func Materialize(ctx context.Context, src train.Source, workers int) (*Memory, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	parts := src.Split(workers)
	docs := make([][][]token.Token, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, p := range parts {
		g.Go(func() error {
			return p.Documents(gctx, func(doc []token.Token) error {
				docs[i] = append(docs[i], slices.Clone(doc))
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return NewMemory(slices.Concat(docs...), workers), nil
}
