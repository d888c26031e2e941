package histogram

import (
	"github.com/emirpasic/gods/trees/binaryheap"
	"github.com/example/go-bpe-trainer/internal/token"
)

// TokenCount is a token with its count.
type TokenCount struct {
	Token token.Token
	Count uint64
}

// Less orders pair entries by count descending, then by (Left, Right)
// ascending. It is the ranking used for merge selection and reports.
func Less(a, b Entry) bool {
	if a.Count != b.Count {
		return a.Count > b.Count
	}
	if a.Left != b.Left {
		return a.Left < b.Left
	}
	return a.Right < b.Right
}

// TopPairs returns the n highest ranked pairs, best first.
func (h *Histogram) TopPairs(n int) []Entry {
	if n <= 0 {
		return nil
	}
	// Min-heap on rank: the root is the worst of the kept entries.
	heap := binaryheap.NewWith(func(a, b interface{}) int {
		x, y := a.(Entry), b.(Entry)
		switch {
		case Less(x, y):
			return 1
		case Less(y, x):
			return -1
		default:
			return 0
		}
	})
	for p, c := range h.pairs {
		if c == 0 {
			continue
		}
		heap.Push(Entry{Pair: p, Count: c})
		if heap.Size() > n {
			heap.Pop()
		}
	}
	return drain[Entry](heap)
}

// TopTokens returns the n most frequent tokens, best first. Ties go to the
// smaller id.
func (h *Histogram) TopTokens(n int) []TokenCount {
	if n <= 0 {
		return nil
	}
	heap := binaryheap.NewWith(func(a, b interface{}) int {
		x, y := a.(TokenCount), b.(TokenCount)
		switch {
		case x.Count < y.Count:
			return -1
		case x.Count > y.Count:
			return 1
		case x.Token > y.Token:
			return -1
		case x.Token < y.Token:
			return 1
		default:
			return 0
		}
	})
	for i, c := range h.tokens {
		if c == 0 {
			continue
		}
		heap.Push(TokenCount{Token: token.Token(i), Count: c})
		if heap.Size() > n {
			heap.Pop()
		}
	}
	return drain[TokenCount](heap)
}

// drain pops every value (worst first) and returns them best first.
func drain[T any](heap *binaryheap.Heap) []T {
	out := make([]T, heap.Size())
	for i := len(out) - 1; i >= 0; i-- {
		v, _ := heap.Pop()
		out[i] = v.(T)
	}
	return out
}
