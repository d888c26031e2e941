// Package report renders vocabularies and histograms as plain text tables.
package report

import (
	"io"
	"strconv"

	"github.com/example/go-bpe-trainer/internal/histogram"
	"github.com/example/go-bpe-trainer/internal/token"
	"github.com/olekukonko/tablewriter"
)

// Vocabulary is the read side of a vocabulary state.
type Vocabulary interface {
	Bytes(t token.Token) []byte
	Rules() []token.MergeRule
}

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

// Rules writes one row per merge rule: the new token, its operands and the
// bytes it stands for. last limits the output to the most recent rules; 0
// writes every rule.
func Rules(w io.Writer, v Vocabulary, last int) {
	rules := v.Rules()
	if last > 0 && last < len(rules) {
		rules = rules[len(rules)-last:]
	}

	table := newTable(w, "TOKEN", "LEFT", "RIGHT", "BYTES", "TEXT")
	for _, r := range rules {
		b := v.Bytes(r.Result)
		table.Append([]string{
			strconv.Itoa(int(r.Result)),
			token.Display(v.Bytes(r.Left)),
			token.Display(v.Bytes(r.Right)),
			strconv.Itoa(len(b)),
			token.Display(b),
		})
	}
	table.Render()
}

// TopPairs writes the n most frequent pairs of h.
func TopPairs(w io.Writer, v Vocabulary, h *histogram.Histogram, n int) {
	table := newTable(w, "LEFT", "RIGHT", "MERGED", "COUNT")
	for _, e := range h.TopPairs(n) {
		merged := append(append([]byte(nil), v.Bytes(e.Left)...), v.Bytes(e.Right)...)
		table.Append([]string{
			token.Display(v.Bytes(e.Left)),
			token.Display(v.Bytes(e.Right)),
			token.Display(merged),
			token.Count(e.Count).String(),
		})
	}
	table.Render()
}

// TopTokens writes the n most frequent tokens of h.
func TopTokens(w io.Writer, v Vocabulary, h *histogram.Histogram, n int) {
	table := newTable(w, "TOKEN", "TEXT", "COUNT")
	for _, tc := range h.TopTokens(n) {
		table.Append([]string{
			strconv.Itoa(int(tc.Token)),
			token.Display(v.Bytes(tc.Token)),
			token.Count(tc.Count).String(),
		})
	}
	table.Render()
}

// Tokens writes a document as one row per token.
func Tokens(w io.Writer, v Vocabulary, doc []token.Token) {
	table := newTable(w, "TOKEN", "TEXT")
	for _, t := range doc {
		table.Append([]string{strconv.Itoa(int(t)), token.Display(v.Bytes(t))})
	}
	table.Render()
}
