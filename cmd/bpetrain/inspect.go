package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/example/go-bpe-trainer/internal/histogram"
	"github.com/example/go-bpe-trainer/internal/report"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newInspectCmd() *cobra.Command {
	var (
		last int
		top  int
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the vocabulary and, with --top, the corpus statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := requireVocab(cfg)
			if err != nil {
				return err
			}
			state, err := vocab.Load(appFs, path)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vocabulary %s: %d tokens, %d rules\n\n", path, state.Size(), state.Additional())
			report.Rules(out, state, last)

			if top <= 0 || len(cfg.Corpus.Paths) == 0 {
				return nil
			}

			src, err := openCorpus(cfg, state.Tokenizer())
			if err != nil {
				return err
			}
			h, err := countShared(cmd.Context(), src, cfg.Train.Workers)
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "\ncorpus: %s pair occurrences, %d distinct pairs\n\n", token.Count(h.Total()), h.Pairs())
			report.TopPairs(out, state, h, top)
			fmt.Fprintln(out)
			report.TopTokens(out, state, h, top)
			return nil
		},
	}

	cmd.Flags().IntVar(&last, "last", 20, "Show only the most recent rules (0 = all)")
	cmd.Flags().IntVar(&top, "top", 0, "Count the corpus and show the top N pairs and tokens")

	return cmd
}

// countShared counts src with every partition feeding one shared histogram.
func countShared(ctx context.Context, src train.Source, workers int) (*histogram.Histogram, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	shared := histogram.NewShared()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, part := range src.Split(workers) {
		g.Go(func() error {
			return part.Documents(gctx, func(doc []token.Token) error {
				shared.RegisterDocument(doc)
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return shared.Histogram(), nil
}
