package corpus

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/example/go-bpe-trainer/internal/train"
	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

var (
	// ErrTruncatedShard is returned for a shard with an odd byte count.
	ErrTruncatedShard = errors.New("token shard ends in the middle of a token")
	// ErrSentinelToken is returned when writing a document that contains
	// the document sentinel.
	ErrSentinelToken = errors.New("document contains the sentinel token")
)

const zstdExt = ".zst"

// TokenShard streams a binary token shard: big-endian uint16 token ids with
// 0xFFFF after every document. Files ending in .zst are zstd-compressed.
//
// The shard is read again on every enumeration and each document is passed
// through the tokenizer, so the on-disk content may be tokenized with any
// prefix of the current rules.
type TokenShard struct {
	fs   afero.Fs
	path string
	tok  token.Tokenizer
}

// NewTokenShard returns a source reading path and applying every rule of tok.
func NewTokenShard(fsys afero.Fs, path string, tok token.Tokenizer) *TokenShard {
	return &TokenShard{fs: fsys, path: path, tok: tok.WithAllNew()}
}

// Documents decodes the shard and calls fn for every non-empty document.
func (s *TokenShard) Documents(ctx context.Context, fn func(doc []token.Token) error) (err error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		return fmt.Errorf("open token shard: %w", err)
	}
	defer func() { err = multierr.Append(err, f.Close()) }()

	var r io.Reader = bufio.NewReaderSize(f, 1<<20)
	if strings.HasSuffix(s.path, zstdExt) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return fmt.Errorf("%s: %w", s.path, err)
		}
		defer dec.Close()
		r = dec
	}

	err = DecodeShard(r, func(doc []token.Token) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.tok.New() > 0 {
			doc = s.tok.Apply(doc)
		}
		return fn(doc)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", s.path, err)
	}
	return nil
}

// Split returns the shard itself; a single file is not partitioned.
func (s *TokenShard) Split(int) []train.Source { return []train.Source{s} }

// Retokenize keeps tok for subsequent reads, with every rule applied.
func (s *TokenShard) Retokenize(_ context.Context, tok token.Tokenizer) error {
	s.tok = tok.WithAllNew()
	return nil
}

// DecodeShard reads the shard format from r and calls fn for every
// non-empty document. fn may modify doc but must not retain it.
func DecodeShard(r io.Reader, fn func(doc []token.Token) error) error {
	buf := make([]byte, 64<<10)
	var doc []token.Token
	carry := 0
	for {
		n, readErr := r.Read(buf[carry:])
		n += carry
		even := n &^ 1
		for i := 0; i < even; i += 2 {
			t := token.Token(binary.BigEndian.Uint16(buf[i:]))
			if t != token.Sentinel {
				doc = append(doc, t)
				continue
			}
			if len(doc) > 0 {
				if err := fn(doc); err != nil {
					return err
				}
			}
			doc = doc[:0]
		}
		carry = n - even
		if carry == 1 {
			buf[0] = buf[even]
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return fmt.Errorf("read token shard: %w", readErr)
		}
	}
	if carry != 0 {
		return ErrTruncatedShard
	}
	if len(doc) > 0 {
		return fn(doc)
	}
	return nil
}

// ShardWriter writes documents in the token shard format.
type ShardWriter struct {
	w       *bufio.Writer
	enc     *zstd.Encoder
	closer  io.Closer
	scratch []byte
}

// NewShardWriter writes to w. Close flushes but does not close w.
func NewShardWriter(w io.Writer) *ShardWriter {
	return &ShardWriter{w: bufio.NewWriterSize(w, 1<<20)}
}

// CreateShard creates path, zstd-compressing when it ends in .zst.
func CreateShard(fsys afero.Fs, path string) (*ShardWriter, error) {
	f, err := fsys.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create token shard: %w", err)
	}
	if !strings.HasSuffix(path, zstdExt) {
		sw := NewShardWriter(f)
		sw.closer = f
		return sw, nil
	}
	enc, err := zstd.NewWriter(f)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("zstd writer: %w", err), f.Close())
	}
	sw := NewShardWriter(enc)
	sw.enc = enc
	sw.closer = f
	return sw, nil
}

// WriteDocument appends doc followed by the sentinel. Empty documents are
// dropped since readers skip them anyway.
func (sw *ShardWriter) WriteDocument(doc []token.Token) error {
	if len(doc) == 0 {
		return nil
	}
	need := 2 * (len(doc) + 1)
	if cap(sw.scratch) < need {
		sw.scratch = make([]byte, need)
	}
	b := sw.scratch[:need]
	for i, t := range doc {
		if t == token.Sentinel {
			return ErrSentinelToken
		}
		binary.BigEndian.PutUint16(b[2*i:], uint16(t))
	}
	binary.BigEndian.PutUint16(b[2*len(doc):], uint16(token.Sentinel))
	_, err := sw.w.Write(b)
	return err
}

// Close flushes buffered output and closes the file if the writer owns one.
func (sw *ShardWriter) Close() error {
	err := sw.w.Flush()
	if sw.enc != nil {
		err = multierr.Append(err, sw.enc.Close())
	}
	if sw.closer != nil {
		err = multierr.Append(err, sw.closer.Close())
	}
	return err
}

// WriteShard writes every document of src to w.
func WriteShard(ctx context.Context, w io.Writer, src train.Source) error {
	sw := NewShardWriter(w)
	err := src.Documents(ctx, sw.WriteDocument)
	return multierr.Append(err, sw.Close())
}
