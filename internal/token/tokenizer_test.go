package token

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// rulesFor builds consecutive rules from operand pairs starting at id 256.
func rulesFor(pairs ...[2]Token) []MergeRule {
	rules := make([]MergeRule, len(pairs))
	for i, p := range pairs {
		rules[i] = MergeRule{Left: p[0], Right: p[1], Result: Token(ByteTokens + i)}
	}
	return rules
}

func bytesOf(s string) []Token {
	out := make([]Token, len(s))
	for i := range len(s) {
		out[i] = FromByte(s[i])
	}
	return out
}

// ---------------------------------------------------------------------------
// Single rule passes
// ---------------------------------------------------------------------------

func TestTokenizeBytes_RepeatedPair(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'a', 'a'}))

	got := tok.TokenizeBytes([]byte("aaaa"))
	want := []Token{256, 256}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("TokenizeBytes(aaaa) mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_GreedyLeftToRight(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'a', 'a'}))

	tests := []struct {
		in   string
		want []Token
	}{
		{"", []Token{}},
		{"a", []Token{'a'}},
		{"aa", []Token{256}},
		{"aaa", []Token{256, 'a'}},
		{"baaab", []Token{'b', 256, 'a', 'b'}},
		{"abab", []Token{'a', 'b', 'a', 'b'}},
	}
	for _, tt := range tests {
		got := tok.TokenizeBytes([]byte(tt.in))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("TokenizeBytes(%q) mismatch (-want +got):\n%s", tt.in, diff)
		}
	}
}

func TestTokenize_RuleOrderMatters(t *testing.T) {
	// "abc" with (a,b) first yields [ab, c]; with (b,c) first yields [a, bc].
	abFirst := NewTokenizer(rulesFor([2]Token{'a', 'b'}, [2]Token{'b', 'c'}))
	bcFirst := NewTokenizer(rulesFor([2]Token{'b', 'c'}, [2]Token{'a', 'b'}))

	if diff := cmp.Diff([]Token{256, 'c'}, abFirst.TokenizeBytes([]byte("abc"))); diff != "" {
		t.Errorf("ab-first mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Token{'a', 256}, bcFirst.TokenizeBytes([]byte("abc"))); diff != "" {
		t.Errorf("bc-first mismatch (-want +got):\n%s", diff)
	}
}

func TestTokenize_DoesNotModifyInput(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'x', 'y'}))
	in := bytesOf("xyxy")
	orig := append([]Token(nil), in...)

	_ = tok.Tokenize(in)

	if diff := cmp.Diff(orig, in); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}

// ---------------------------------------------------------------------------
// New-rule cursor
// ---------------------------------------------------------------------------

func TestWithNew_Clamps(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'a', 'b'}, [2]Token{256, 'c'}))

	if got := tok.New(); got != 2 {
		t.Errorf("New() = %d; want 2", got)
	}
	if got := tok.WithNew(-3).New(); got != 0 {
		t.Errorf("WithNew(-3).New() = %d; want 0", got)
	}
	if got := tok.WithNew(10).New(); got != 2 {
		t.Errorf("WithNew(10).New() = %d; want 2", got)
	}
	if got := tok.WithNew(1).WithAllNew().New(); got != 2 {
		t.Errorf("WithAllNew().New() = %d; want 2", got)
	}
	if got := tok.WithNew(1); tok.New() != 2 || got.New() != 1 {
		t.Errorf("WithNew mutated receiver: receiver=%d copy=%d", tok.New(), got.New())
	}
}

func TestWithNew_ZeroIsIdentity(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'a', 'b'})).WithNew(0)

	got := tok.TokenizeBytes([]byte("abab"))
	if diff := cmp.Diff(bytesOf("abab"), got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestNewTokenizer_CopiesRules(t *testing.T) {
	rules := rulesFor([2]Token{'a', 'b'})
	tok := NewTokenizer(rules)
	rules[0].Left = 'z'

	if got := tok.Rules()[0].Left; got != 'a' {
		t.Errorf("rule left = %d; want %d", got, 'a')
	}
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// chainRules builds a rule list that keeps fusing the previous result with
// small alphabets, similar in shape to a trained vocabulary.
func chainRules() []MergeRule {
	return rulesFor(
		[2]Token{'a', 'b'}, // 256 ab
		[2]Token{'c', 'a'}, // 257 ca
		[2]Token{256, 'c'}, // 258 abc
		[2]Token{'b', 'b'}, // 259 bb
		[2]Token{258, 257}, // 260 abcca
		[2]Token{'a', 'a'}, // 261 aa
		[2]Token{261, 256}, // 262 aaab
		[2]Token{'c', 'c'}, // 263 cc
	)
}

func randomText(r *rand.Rand, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = "abc"[r.Intn(3)]
	}
	return out
}

func TestTokenize_Idempotent(t *testing.T) {
	tok := NewTokenizer(chainRules())
	r := rand.New(rand.NewSource(7))

	for i := range 50 {
		text := randomText(r, 1+r.Intn(200))
		once := tok.TokenizeBytes(text)
		twice := tok.WithAllNew().Tokenize(once)
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Fatalf("case %d: second full pass changed output (-once +twice):\n%s", i, diff)
		}
	}
}

func TestTokenize_IncrementalEquivalence(t *testing.T) {
	rules := chainRules()
	full := NewTokenizer(rules)
	r := rand.New(rand.NewSource(11))

	for split := 0; split <= len(rules); split++ {
		older := NewTokenizer(rules[:split])
		update := full.WithNew(len(rules) - split)

		for i := range 20 {
			text := randomText(r, 1+r.Intn(300))
			want := full.TokenizeBytes(text)
			got := update.Tokenize(older.TokenizeBytes(text))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("split %d case %d mismatch (-full +incremental):\n%s", split, i, diff)
			}
		}
	}
}

func TestApply_RewritesInPlace(t *testing.T) {
	tok := NewTokenizer(rulesFor([2]Token{'a', 'b'}))
	in := bytesOf("abxab")

	got := tok.Apply(in)

	if diff := cmp.Diff([]Token{256, 'x', 256}, got); diff != "" {
		t.Errorf("Apply mismatch (-want +got):\n%s", diff)
	}
	if &got[0] != &in[0] {
		t.Error("Apply allocated a new backing array")
	}
}
