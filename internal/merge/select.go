// Package merge decides which token pairs become new vocabulary entries in a
// training round.
package merge

import (
	"slices"

	"github.com/example/go-bpe-trainer/internal/histogram"
	"github.com/example/go-bpe-trainer/internal/token"
)

// Vocabulary is the read-only view of token byte strings selection needs.
type Vocabulary interface {
	Bytes(t token.Token) []byte
}

// Policy configures merge selection.
type Policy struct {
	Eta Eta
	// MaxTokenLength bounds the byte length of a merged token. 0 disables
	// the limit.
	MaxTokenLength int
	Forbidden      Forbidden
}

// Candidate is an accepted pair with its count in the round's histogram.
type Candidate = histogram.Entry

// Allowed reports whether merging left and right passes the length limit
// and the forbidden patterns.
func (p Policy) Allowed(vocab Vocabulary, left, right token.Token) bool {
	l, r := vocab.Bytes(left), vocab.Bytes(right)
	if p.MaxTokenLength > 0 && len(l)+len(r) > p.MaxTokenLength {
		return false
	}
	if p.Forbidden.Len() == 0 {
		return true
	}
	merged := make([]byte, 0, len(l)+len(r))
	merged = append(merged, l...)
	merged = append(merged, r...)
	return !p.Forbidden.Match(merged)
}

// Select returns this round's merges in descending count order.
//
// Pairs are ranked by count, ties broken by ascending (left, right). The
// first ranked pair sets the top count; ranking stops at the first pair
// below eta(t) times the top count. A pair is taken only if its left token
// has not been the right token of an accepted pair and its right token has
// not been the left token of one. The batch is applied to the corpus without
// recounting in between, and this keeps two accepted merges from competing
// for the same corpus position. Pairs rejected by the length limit or a
// forbidden pattern are skipped without blocking anything.
func Select(h *histogram.Histogram, vocab Vocabulary, policy Policy, t float64) []Candidate {
	entries := h.Entries()
	if len(entries) == 0 {
		return nil
	}
	slices.SortFunc(entries, func(a, b histogram.Entry) int {
		switch {
		case histogram.Less(a, b):
			return -1
		case histogram.Less(b, a):
			return 1
		default:
			return 0
		}
	})

	threshold := policy.Eta.At(t) * float64(entries[0].Count)
	blockedLeft := make(map[token.Token]struct{})
	blockedRight := make(map[token.Token]struct{})

	var accepted []Candidate
	for _, e := range entries {
		if float64(e.Count) < threshold {
			break
		}
		if !policy.Allowed(vocab, e.Left, e.Right) {
			continue
		}
		if _, ok := blockedLeft[e.Left]; ok {
			continue
		}
		if _, ok := blockedRight[e.Right]; ok {
			continue
		}
		blockedLeft[e.Right] = struct{}{}
		blockedRight[e.Left] = struct{}{}
		accepted = append(accepted, e)
	}
	return accepted
}
