package histogram

import (
	"math/rand"
	"sync"
	"testing"

	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/google/go-cmp/cmp"
)

func randomCorpus(r *rand.Rand, docs, maxLen int) [][]token.Token {
	out := make([][]token.Token, docs)
	for i := range out {
		doc := make([]token.Token, r.Intn(maxLen+1))
		for j := range doc {
			doc[j] = token.Token(r.Intn(6) + 'a')
		}
		out[i] = doc
	}
	return out
}

func count(docs [][]token.Token) *Histogram {
	h := New()
	for _, d := range docs {
		h.RegisterDocument(d)
	}
	return h
}

// ---------------------------------------------------------------------------
// Registration
// ---------------------------------------------------------------------------

func TestRegisterDocument(t *testing.T) {
	h := New()
	h.RegisterDocument([]token.Token{'a', 'b', 'a', 'b'})
	h.RegisterDocument([]token.Token{'z'})
	h.RegisterDocument(nil)

	if got := h.Pair('a', 'b'); got != 2 {
		t.Errorf("Pair(a,b) = %d; want 2", got)
	}
	if got := h.Pair('b', 'a'); got != 1 {
		t.Errorf("Pair(b,a) = %d; want 1", got)
	}
	if got := h.Token('a'); got != 2 {
		t.Errorf("Token(a) = %d; want 2", got)
	}
	// The trailing b and the lone z are never a left token.
	if got := h.Token('b'); got != 1 {
		t.Errorf("Token(b) = %d; want 1", got)
	}
	if got := h.Token('z'); got != 0 {
		t.Errorf("Token(z) = %d; want 0", got)
	}
	if got := h.Pairs(); got != 2 {
		t.Errorf("Pairs() = %d; want 2", got)
	}
	if got := h.Total(); got != 3 {
		t.Errorf("Total() = %d; want 3", got)
	}
}

func TestRegister_FullTokenRange(t *testing.T) {
	h := New()
	h.Register(token.Sentinel)
	h.RegisterN(token.Sentinel, 4)

	if got := h.Token(token.Sentinel); got != 5 {
		t.Errorf("Token(0xFFFF) = %d; want 5", got)
	}
}

// ---------------------------------------------------------------------------
// Combine
// ---------------------------------------------------------------------------

func TestCombine_MatchesSequentialCounting(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	docs := randomCorpus(r, 120, 40)
	want := count(docs)

	for _, parts := range []int{1, 2, 3, 7, 120} {
		var partial []*Histogram
		size := (len(docs) + parts - 1) / parts
		for lo := 0; lo < len(docs); lo += size {
			partial = append(partial, count(docs[lo:min(lo+size, len(docs))]))
		}

		forward := Sum(partial...)
		if !forward.Equal(want) {
			t.Errorf("parts=%d: forward reduction differs from sequential count", parts)
		}

		reversed := New()
		for i := len(partial) - 1; i >= 0; i-- {
			reversed.Combine(partial[i])
		}
		if !reversed.Equal(want) {
			t.Errorf("parts=%d: reversed reduction differs from sequential count", parts)
		}
	}
}

func TestCombine_Associative(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	a := count(randomCorpus(r, 30, 20))
	b := count(randomCorpus(r, 30, 20))
	c := count(randomCorpus(r, 30, 20))

	left := Sum(a, b)
	left.Combine(c)

	bc := Sum(b, c)
	right := Sum(a)
	right.Combine(bc)

	if !left.Equal(right) {
		t.Error("(a+b)+c != a+(b+c)")
	}
}

func TestCombine_LeavesOtherUnchanged(t *testing.T) {
	a := count([][]token.Token{{'a', 'b'}})
	b := count([][]token.Token{{'a', 'b', 'c'}})
	snapshot := Sum(b)

	a.Combine(b)

	if !b.Equal(snapshot) {
		t.Error("Combine modified its argument")
	}
	if got := a.Pair('a', 'b'); got != 2 {
		t.Errorf("Pair(a,b) = %d; want 2", got)
	}
}

// ---------------------------------------------------------------------------
// Shared
// ---------------------------------------------------------------------------

func TestShared_MatchesPrivateReduction(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	docs := randomCorpus(r, 400, 60)
	want := count(docs)

	shared := NewShared()
	var wg sync.WaitGroup
	const workers = 8
	for w := range workers {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := w; i < len(docs); i += workers {
				shared.RegisterDocument(docs[i])
			}
		}(w)
	}
	wg.Wait()

	if !shared.Histogram().Equal(want) {
		t.Error("shared accumulator totals differ from private reduction")
	}
}

// ---------------------------------------------------------------------------
// Top-N
// ---------------------------------------------------------------------------

func TestTopPairs(t *testing.T) {
	h := New()
	for range 5 {
		h.RegisterPair('a', 'b')
	}
	for range 3 {
		h.RegisterPair('c', 'd')
		h.RegisterPair('b', 'c')
	}
	h.RegisterPair('x', 'y')

	got := h.TopPairs(3)
	want := []Entry{
		{Pair: Pair{'a', 'b'}, Count: 5},
		{Pair: Pair{'b', 'c'}, Count: 3},
		{Pair: Pair{'c', 'd'}, Count: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopPairs(3) mismatch (-want +got):\n%s", diff)
	}

	if got := h.TopPairs(10); len(got) != 4 {
		t.Errorf("len(TopPairs(10)) = %d; want 4", len(got))
	}
	if got := h.TopPairs(0); got != nil {
		t.Errorf("TopPairs(0) = %v; want nil", got)
	}
}

func TestTopTokens(t *testing.T) {
	h := New()
	h.RegisterN('e', 10)
	h.RegisterN('a', 4)
	h.RegisterN('b', 4)
	h.RegisterN('q', 1)

	got := h.TopTokens(3)
	want := []TokenCount{{Token: 'e', Count: 10}, {Token: 'a', Count: 4}, {Token: 'b', Count: 4}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TopTokens(3) mismatch (-want +got):\n%s", diff)
	}
}
