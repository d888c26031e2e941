package token

// Tokenizer applies an ordered list of merge rules to token sequences.
//
// Only the last New() rules are applied. A corpus that was fully tokenized
// with the older rules can be brought up to date by applying just the rules
// added since, which keeps re-tokenization cost proportional to the number
// of new rules instead of the whole vocabulary.
//
// Tokenizer is a value; the With* methods return modified copies and never
// touch the receiver, so one snapshot can be shared across goroutines.
type Tokenizer struct {
	rules []MergeRule
	fresh int
}

// NewTokenizer snapshots rules. All rules count as new.
func NewTokenizer(rules []MergeRule) Tokenizer {
	owned := make([]MergeRule, len(rules))
	copy(owned, rules)
	return Tokenizer{rules: owned, fresh: len(owned)}
}

// WithNew returns a copy that applies only the last n rules.
// n is clamped to [0, Len()].
func (t Tokenizer) WithNew(n int) Tokenizer {
	t.fresh = max(0, min(n, len(t.rules)))
	return t
}

// WithAllNew returns a copy that applies every rule, as needed for a first
// pass over raw bytes.
func (t Tokenizer) WithAllNew() Tokenizer {
	t.fresh = len(t.rules)
	return t
}

// New returns the number of trailing rules that are applied.
func (t Tokenizer) New() int { return t.fresh }

// Len returns the total number of rules.
func (t Tokenizer) Len() int { return len(t.rules) }

// Rules returns a copy of the rule list.
func (t Tokenizer) Rules() []MergeRule {
	out := make([]MergeRule, len(t.rules))
	copy(out, t.rules)
	return out
}

// TokenizeBytes maps every byte to its single-byte token and applies the
// new rules.
func (t Tokenizer) TokenizeBytes(b []byte) []Token {
	tokens := make([]Token, len(b))
	for i, c := range b {
		tokens[i] = FromByte(c)
	}
	return t.apply(tokens)
}

// Tokenize applies the new rules to tokens and returns the result.
// The input slice is not modified.
func (t Tokenizer) Tokenize(tokens []Token) []Token {
	out := make([]Token, len(tokens))
	copy(out, tokens)
	return t.apply(out)
}

// Apply is Tokenize without the copy: tokens is rewritten in place and the
// returned slice shares its backing array.
func (t Tokenizer) Apply(tokens []Token) []Token { return t.apply(tokens) }

// apply rewrites tokens in place, one greedy left-to-right pass per rule.
func (t Tokenizer) apply(tokens []Token) []Token {
	for _, rule := range t.rules[len(t.rules)-t.fresh:] {
		tokens = applyRule(tokens, rule)
		if len(tokens) < 2 {
			break
		}
	}
	return tokens
}

// applyRule fuses every non-overlapping (Left, Right) occurrence scanning
// from the left. A position consumed by a fusion is not looked at again in
// the same pass. The write index never overtakes the read index, so the
// rewrite happens in place.
func applyRule(tokens []Token, rule MergeRule) []Token {
	w := 0
	for r := 0; r < len(tokens); {
		if r+1 < len(tokens) && tokens[r] == rule.Left && tokens[r+1] == rule.Right {
			tokens[w] = rule.Result
			r += 2
		} else {
			tokens[w] = tokens[r]
			r++
		}
		w++
	}
	return tokens[:w]
}
