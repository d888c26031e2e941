package histogram

import (
	"sync"
	"sync/atomic"

	"github.com/example/go-bpe-trainer/internal/token"
)

const sharedShards = 64

// Shared is a histogram that many goroutines update directly. Pair counts
// live in mutex-guarded shards selected by the pair value; token counts are
// atomic. It yields the same totals as private histograms combined with
// Combine, at the cost of contention.
type Shared struct {
	tokens [Slots]atomic.Uint64
	shards [sharedShards]struct {
		mu    sync.Mutex
		pairs map[Pair]uint64
	}
}

// NewShared returns an empty shared histogram.
func NewShared() *Shared {
	s := &Shared{}
	for i := range s.shards {
		s.shards[i].pairs = make(map[Pair]uint64)
	}
	return s
}

func shardOf(p Pair) int {
	return int((uint32(p.Left)*31 + uint32(p.Right)) % sharedShards)
}

// Register counts one occurrence of t.
func (s *Shared) Register(t token.Token) { s.tokens[t].Add(1) }

// RegisterPair counts one occurrence of left followed by right.
func (s *Shared) RegisterPair(left, right token.Token) {
	p := Pair{left, right}
	sh := &s.shards[shardOf(p)]
	sh.mu.Lock()
	sh.pairs[p]++
	sh.mu.Unlock()
}

// RegisterDocument counts every adjacent pair of doc and its left token.
func (s *Shared) RegisterDocument(doc []token.Token) {
	for i := 0; i+1 < len(doc); i++ {
		s.Register(doc[i])
		s.RegisterPair(doc[i], doc[i+1])
	}
}

// Histogram copies the current counts into a private histogram. It must not
// race with writers if an exact snapshot is needed.
func (s *Shared) Histogram() *Histogram {
	h := New()
	for i := range s.tokens {
		h.tokens[i] = s.tokens[i].Load()
	}
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for p, n := range sh.pairs {
			h.pairs[p] = n
		}
		sh.mu.Unlock()
	}
	return h
}
