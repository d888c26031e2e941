package text

import (
	"fmt"
	"regexp"
	"strings"
)

const maxHeadingLevel = 6

var (
	// "= =" joins a closing and an opening heading marker on one line.
	adjacentHeadingRE = regexp.MustCompile(`= =`)
	headingRE         = regexp.MustCompile(headingPattern())
	bulletRE          = regexp.MustCompile(`\s\*+\s\*?\s?`)
	blankLinesRE      = regexp.MustCompile(`\n{3,}`)
)

// headingPattern matches "== Title ==" style headings of levels 2 to 6; the
// closing marker is optional at the end of a line. Submatch pair 2k-1, 2k
// holds the marker and the title of alternative k.
func headingPattern() string {
	alts := make([]string, 0, maxHeadingLevel-1)
	for n := 2; n <= maxHeadingLevel; n++ {
		alts = append(alts, fmt.Sprintf(`(?:\s|^)(={%d})\s([^=]+?)(?:(?:\s={%d})|\s*$)`, n, n))
	}
	return `(?m)` + strings.Join(alts, "|")
}

// PrepareArticle turns an encyclopedia article with wiki-style markup into
// markdown-like plain text: headings become "#" lines surrounded by blank
// lines, "*" bullets become "- " items, runs of blank lines collapse, and the
// title is prepended as a top-level heading.
func PrepareArticle(title, body string) string {
	s := normalizeLines(body)
	s = adjacentHeadingRE.ReplaceAllLiteralString(s, "=\n=")
	s = replaceHeadings(s)
	s = bulletRE.ReplaceAllLiteralString(s, "\n- ")
	s = blankLinesRE.ReplaceAllLiteralString(s, "\n\n")
	return "# " + normalizeLines(title) + "\n\n" + s
}

func replaceHeadings(s string) string {
	matches := headingRE.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, m := range matches {
		b.WriteString(s[last:m[0]])
		for g := 2; g+3 < len(m); g += 4 {
			if m[g] < 0 || m[g+2] < 0 {
				continue
			}
			level := m[g+1] - m[g]
			b.WriteString("\n\n")
			b.WriteString(strings.Repeat("#", level))
			b.WriteByte(' ')
			b.WriteString(s[m[g+2]:m[g+3]])
			b.WriteString("\n\n")
			break
		}
		last = m[1]
	}
	b.WriteString(s[last:])
	return b.String()
}
