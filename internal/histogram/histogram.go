// Package histogram counts token and adjacent token-pair occurrences.
//
// Counting is split across workers: each worker fills a private Histogram
// and the partial results are reduced with Combine, which is an element-wise
// sum and therefore independent of partition count and combination order.
// Shared is the alternative where all workers write into one structure.
package histogram

import (
	"github.com/example/go-bpe-trainer/internal/token"
)

// Slots is the size of the per-token count array, one slot per possible id.
const Slots = 1 << 16

// Pair is an ordered pair of adjacent tokens.
type Pair struct {
	Left  token.Token
	Right token.Token
}

// Entry is a pair with its count.
type Entry struct {
	Pair
	Count uint64
}

// Histogram holds per-token and per-pair counts. The zero value is not
// usable; call New.
type Histogram struct {
	tokens []uint64
	pairs  map[Pair]uint64
}

// New returns an empty histogram.
func New() *Histogram {
	return &Histogram{
		tokens: make([]uint64, Slots),
		pairs:  make(map[Pair]uint64),
	}
}

// Register counts one occurrence of t.
func (h *Histogram) Register(t token.Token) { h.tokens[t]++ }

// RegisterN counts n occurrences of t.
func (h *Histogram) RegisterN(t token.Token, n uint64) { h.tokens[t] += n }

// RegisterPair counts one occurrence of left directly followed by right.
func (h *Histogram) RegisterPair(left, right token.Token) {
	h.pairs[Pair{left, right}]++
}

// RegisterDocument counts every adjacent pair of doc together with the left
// token of the pair. The last token of a document is not counted on its own.
func (h *Histogram) RegisterDocument(doc []token.Token) {
	for i := 0; i+1 < len(doc); i++ {
		h.tokens[doc[i]]++
		h.pairs[Pair{doc[i], doc[i+1]}]++
	}
}

// Combine adds every count of other into h. other is left unchanged.
func (h *Histogram) Combine(other *Histogram) {
	for i, n := range other.tokens {
		h.tokens[i] += n
	}
	for p, n := range other.pairs {
		h.pairs[p] += n
	}
}

// Sum folds hs into a fresh histogram in argument order.
func Sum(hs ...*Histogram) *Histogram {
	total := New()
	for _, h := range hs {
		total.Combine(h)
	}
	return total
}

// Token returns the count of t.
func (h *Histogram) Token(t token.Token) uint64 { return h.tokens[t] }

// Pair returns the count of left followed by right.
func (h *Histogram) Pair(left, right token.Token) uint64 {
	return h.pairs[Pair{left, right}]
}

// Pairs returns the number of distinct pairs seen.
func (h *Histogram) Pairs() int { return len(h.pairs) }

// Total returns the sum of all pair counts.
func (h *Histogram) Total() uint64 {
	var n uint64
	for _, c := range h.pairs {
		n += c
	}
	return n
}

// Entries returns every pair with a nonzero count, in unspecified order.
func (h *Histogram) Entries() []Entry {
	out := make([]Entry, 0, len(h.pairs))
	for p, n := range h.pairs {
		if n > 0 {
			out = append(out, Entry{Pair: p, Count: n})
		}
	}
	return out
}

// Equal reports whether h and other hold identical counts.
func (h *Histogram) Equal(other *Histogram) bool {
	for i := range h.tokens {
		if h.tokens[i] != other.tokens[i] {
			return false
		}
	}
	if len(h.pairs) != len(other.pairs) {
		return false
	}
	for p, n := range h.pairs {
		if other.pairs[p] != n {
			return false
		}
	}
	return true
}
