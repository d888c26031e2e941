// Package train drives BPE training rounds over a corpus Source: parallel
// pair counting, reduction, merge selection, vocabulary growth and
// incremental re-tokenization of the corpus.
package train

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/go-bpe-trainer/internal/histogram"
	"github.com/example/go-bpe-trainer/internal/merge"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/vocab"
	"golang.org/x/sync/errgroup"
)

// ErrNoProgress is returned when a round adds no token: the corpus has no
// pairs left or every candidate was filtered.
var ErrNoProgress = errors.New("training round added no tokens")

// RoundResult describes one completed round.
type RoundResult struct {
	Round      int
	Progress   float64 // additional vocabulary size / target size
	Eta        float64
	Pairs      int    // distinct pairs counted
	PairTotal  uint64 // pair occurrences counted
	TopCount   uint64
	Candidates int
	Added      int
	Skipped    int
	VocabSize  int

	Count      time.Duration
	Apply      time.Duration
	Retokenize time.Duration
}

// Summary aggregates a Run.
type Summary struct {
	Rounds    int
	Added     int
	VocabSize int
	Elapsed   time.Duration
}

// Option configures a Trainer.
type Option func(*Trainer)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Trainer) { t.logger = l }
}

// WithObserver registers fn to receive every completed round.
func WithObserver(fn func(RoundResult)) Option {
	return func(t *Trainer) { t.observer = fn }
}

// Trainer owns the vocabulary for the duration of training. Workers only
// ever see the corpus source and immutable Tokenizer snapshots; the
// vocabulary is mutated between the parallel phases by the goroutine that
// calls Step.
type Trainer struct {
	state    *vocab.State
	source   Source
	cfg      Config
	logger   *slog.Logger
	observer func(RoundResult)
	round    int
}

// New returns a Trainer growing state from source.
func New(state *vocab.State, source Source, cfg Config, opts ...Option) (*Trainer, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	t := &Trainer{
		state:  state,
		source: source,
		cfg:    cfg,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Done reports whether the vocabulary reached the target size.
func (t *Trainer) Done() bool { return t.state.Size() >= t.cfg.TargetSize }

// Run executes rounds until the target size is reached.
func (t *Trainer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	var sum Summary
	for !t.Done() {
		res, err := t.Step(ctx)
		sum.Rounds++
		sum.Added += res.Added
		sum.VocabSize = t.state.Size()
		sum.Elapsed = time.Since(start)
		if err != nil {
			return sum, err
		}
	}
	sum.VocabSize = t.state.Size()
	sum.Elapsed = time.Since(start)
	return sum, nil
}

// Step executes one round. Every added token is persisted by the vocabulary
// before Step moves on, so an interrupted round loses only its counting.
func (t *Trainer) Step(ctx context.Context) (RoundResult, error) {
	t.round++
	res := RoundResult{Round: t.round}

	start := time.Now()
	total, err := t.count(ctx)
	if err != nil {
		return res, err
	}
	res.Count = time.Since(start)
	res.Pairs = total.Pairs()
	res.PairTotal = total.Total()

	start = time.Now()
	res.Progress = float64(t.state.Additional()) / float64(t.cfg.TargetSize)
	res.Eta = t.cfg.Policy.Eta.At(res.Progress)
	candidates := merge.Select(total, t.state, t.cfg.Policy, res.Progress)
	res.Candidates = len(candidates)
	if top := total.TopPairs(1); len(top) > 0 {
		res.TopCount = top[0].Count
	}
	if err := t.apply(candidates, &res); err != nil {
		return res, err
	}
	res.Apply = time.Since(start)
	res.VocabSize = t.state.Size()

	if res.Added == 0 {
		return res, fmt.Errorf("round %d: %w", t.round, ErrNoProgress)
	}

	start = time.Now()
	if err := t.source.Retokenize(ctx, t.state.Tokenizer().WithNew(res.Added)); err != nil {
		return res, fmt.Errorf("retokenize: %w", err)
	}
	res.Retokenize = time.Since(start)

	t.logger.Info("round complete",
		"round", res.Round,
		"added", res.Added,
		"skipped", res.Skipped,
		"vocab_size", res.VocabSize,
		"target", t.cfg.TargetSize,
		"eta", res.Eta,
		"pairs", token.Count(res.Pairs).String(),
		"top_count", token.Count(res.TopCount).String(),
		"count_time", res.Count,
		"retokenize_time", res.Retokenize,
	)
	if t.observer != nil {
		t.observer(res)
	}
	return res, nil
}

// count runs one private histogram per partition and reduces them in
// partition order.
func (t *Trainer) count(ctx context.Context) (*histogram.Histogram, error) {
	workers := t.cfg.workers()
	parts := t.source.Split(workers)
	partial := make([]*histogram.Histogram, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, part := range parts {
		g.Go(func() error {
			h := histogram.New()
			err := part.Documents(gctx, func(doc []token.Token) error {
				h.RegisterDocument(doc)
				return nil
			})
			if err != nil {
				return fmt.Errorf("count partition %d: %w", i, err)
			}
			partial[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	t.logger.Debug("counting complete", "partitions", len(parts))
	return histogram.Sum(partial...), nil
}

// apply adds the selected merges until the target size is reached. The
// length limit is checked again against the current vocabulary.
func (t *Trainer) apply(candidates []merge.Candidate, res *RoundResult) error {
	maxLen := t.cfg.Policy.MaxTokenLength
	for _, c := range candidates {
		if t.Done() {
			break
		}
		if maxLen > 0 && t.state.Len(c.Left)+t.state.Len(c.Right) > maxLen {
			res.Skipped++
			continue
		}
		result, err := t.state.AddToken(c.Left, c.Right)
		if err != nil {
			return fmt.Errorf("add token: %w", err)
		}
		res.Added++
		t.logger.Debug("merge",
			"left", token.Display(t.state.Bytes(c.Left)),
			"right", token.Display(t.state.Bytes(c.Right)),
			"token", int(result),
			"bytes", token.Display(t.state.Bytes(result)),
			"count", token.Count(c.Count).String(),
		)
	}
	return nil
}
