package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/go-bpe-trainer/internal/corpus"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

func newTrainCmd() *cobra.Command {
	var (
		roundsLog string
		maxRounds int
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Grow the vocabulary to the target size from a corpus",
		Long: `Grow the vocabulary log to --target-size tokens.

Every round counts all adjacent token pairs of the corpus, merges the most
frequent ones and re-tokenizes the corpus with the new rules. Each new rule is
appended to the log as soon as it is created, so an interrupted run resumes
where it stopped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}
			path, err := requireVocab(cfg)
			if err != nil {
				return err
			}
			tcfg, err := trainConfig(cfg)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runTrain(ctx, trainOptions{
				VocabPath:   path,
				Config:      tcfg,
				Materialize: cfg.Corpus.Materialize,
				RoundsLog:   roundsLog,
				MaxRounds:   maxRounds,
				Open: func(tok token.Tokenizer) (train.Source, error) {
					return openCorpus(cfg, tok)
				},
			})
		},
	}

	cmd.Flags().StringVar(&roundsLog, "rounds-log", "", "Append one JSON line per completed round to this file")
	cmd.Flags().IntVar(&maxRounds, "max-rounds", 0, "Stop after this many rounds (0 = until the target size)")

	return cmd
}

type trainOptions struct {
	VocabPath   string
	Config      train.Config
	Materialize bool
	RoundsLog   string
	MaxRounds   int
	Open        func(token.Tokenizer) (train.Source, error)
}

func runTrain(ctx context.Context, opts trainOptions) (err error) {
	state, err := vocab.Open(appFs, opts.VocabPath)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, state.Close()) }()

	logger := slog.Default()
	logger.Info("vocabulary loaded", "path", opts.VocabPath, "size", state.Size(), "target", opts.Config.TargetSize)

	src, err := opts.Open(state.Tokenizer())
	if err != nil {
		return err
	}
	if opts.Materialize {
		mem, err := corpus.Materialize(ctx, src, opts.Config.Workers)
		if err != nil {
			return fmt.Errorf("load corpus: %w", err)
		}
		logger.Info("corpus loaded", "documents", mem.Len(), "tokens", token.Count(mem.Tokens()).String())
		src = mem
	}

	trainOpts := []train.Option{train.WithLogger(logger)}
	if opts.RoundsLog != "" {
		f, openErr := appFs.OpenFile(opts.RoundsLog, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if openErr != nil {
			return fmt.Errorf("open rounds log: %w", openErr)
		}
		defer func() { err = multierr.Append(err, f.Close()) }()
		trainOpts = append(trainOpts, train.WithObserver(roundsWriter(f, logger)))
	}

	trainer, err := train.New(state, src, opts.Config, trainOpts...)
	if err != nil {
		return err
	}

	rounds := 0
	for !trainer.Done() {
		if opts.MaxRounds > 0 && rounds >= opts.MaxRounds {
			break
		}
		if _, err := trainer.Step(ctx); err != nil {
			if errors.Is(err, train.ErrNoProgress) {
				logger.Warn("training stopped early", "reason", err, "size", state.Size(), "target", opts.Config.TargetSize)
				return nil
			}
			return err
		}
		rounds++
	}

	logger.Info("training finished", "rounds", rounds, "size", state.Size())
	return nil
}

// roundsWriter encodes every round as one JSON line. Write errors are
// logged; they never stop training.
func roundsWriter(f afero.File, logger *slog.Logger) func(train.RoundResult) {
	enc := json.NewEncoder(f)
	return func(r train.RoundResult) {
		if err := enc.Encode(roundRecord{
			Round:       r.Round,
			Progress:    r.Progress,
			Eta:         r.Eta,
			Pairs:       r.Pairs,
			PairTotal:   r.PairTotal,
			TopCount:    r.TopCount,
			Added:       r.Added,
			Skipped:     r.Skipped,
			VocabSize:   r.VocabSize,
			CountMillis: r.Count.Milliseconds(),
			ApplyMillis: r.Apply.Milliseconds(),
			RetokMillis: r.Retokenize.Milliseconds(),
		}); err != nil {
			logger.Error("write rounds log", "err", err)
		}
	}
}

type roundRecord struct {
	Round       int     `json:"round"`
	Progress    float64 `json:"progress"`
	Eta         float64 `json:"eta"`
	Pairs       int     `json:"pairs"`
	PairTotal   uint64  `json:"pair_total"`
	TopCount    uint64  `json:"top_count"`
	Added       int     `json:"added"`
	Skipped     int     `json:"skipped"`
	VocabSize   int     `json:"vocab_size"`
	CountMillis int64   `json:"count_ms"`
	ApplyMillis int64   `json:"apply_ms"`
	RetokMillis int64   `json:"retokenize_ms"`
}
