package corpus

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// DefaultTextColumn is the column read from Arrow shards when neither a name
// nor an index is configured. Dataset dumps store an id first and the text
// second.
const DefaultTextColumn = 1

// ErrNoTextColumn is returned when an Arrow shard lacks the text column or
// it does not hold strings.
var ErrNoTextColumn = errors.New("arrow shard has no usable text column")

// ArrowShard streams the text column of an Arrow IPC stream file. Every
// non-null row is one document, tokenized from raw bytes on each read.
type ArrowShard struct {
	fs     afero.Fs
	path   string
	column string
	index  int
	tok    token.Tokenizer
}

// NewArrowShard reads the column called column, or the column at index when
// column is empty.
func NewArrowShard(fsys afero.Fs, path, column string, index int, tok token.Tokenizer) *ArrowShard {
	return &ArrowShard{fs: fsys, path: path, column: column, index: index, tok: tok.WithAllNew()}
}

// stringColumn is satisfied by both the 32-bit and 64-bit offset string
// arrays.
type stringColumn interface {
	Len() int
	IsNull(i int) bool
	Value(i int) string
}

// Documents tokenizes and yields every row of the text column.
func (s *ArrowShard) Documents(ctx context.Context, fn func(doc []token.Token) error) (err error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return fmt.Errorf("open arrow shard: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	rdr, err := ipc.NewReader(f, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	defer rdr.Release()

	for rdr.Next() {
		col, err := s.textColumn(rdr.Record())
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		for i := range col.Len() {
			if col.IsNull(i) {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(s.tok.TokenizeBytes([]byte(col.Value(i)))); err != nil {
				return err
			}
		}
	}
	if err := rdr.Err(); err != nil {
		return fmt.Errorf("%s: read record: %w", s.path, err)
	}
	return nil
}

func (s *ArrowShard) textColumn(rec arrow.Record) (stringColumn, error) {
	idx := s.index
	if s.column != "" {
		found := rec.Schema().FieldIndices(s.column)
		if len(found) == 0 {
			return nil, fmt.Errorf("%w: no column %q", ErrNoTextColumn, s.column)
		}
		idx = found[0]
	}
	if idx < 0 || idx >= int(rec.NumCols()) {
		return nil, fmt.Errorf("%w: column index %d of %d", ErrNoTextColumn, idx, rec.NumCols())
	}
	col, ok := rec.Column(idx).(stringColumn)
	if !ok {
		return nil, fmt.Errorf("%w: column %d has type %s", ErrNoTextColumn, idx, rec.Column(idx).DataType())
	}
	return col, nil
}

// Split returns the shard itself.
func (s *ArrowShard) Split(int) []train.Source { return []train.Source{s} }

// Retokenize keeps tok for subsequent reads.
func (s *ArrowShard) Retokenize(_ context.Context, tok token.Tokenizer) error {
	s.tok = tok.WithAllNew()
	return nil
}
