package library

import (
	"regexp"
	"strings"
)

// EmptyPattern is the combined pattern of an index with no markers. A line can
// never contain a library reference when it is in effect.
const EmptyPattern = "()"

// Pattern is the alternation of every marker token.
type Pattern struct {
	source string
	re     *regexp.Regexp
}

// NewPattern alternates tokens into one pattern. Tokens are matched literally
// and duplicates keep their first position.
func NewPattern(tokens []string) *Pattern {
	seen := make(map[string]bool, len(tokens))
	quoted := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		quoted = append(quoted, regexp.QuoteMeta(t))
	}
	if len(quoted) == 0 {
		return &Pattern{source: EmptyPattern}
	}

	source := "(" + strings.Join(quoted, "|") + ")"
	return &Pattern{source: source, re: regexp.MustCompile(source)}
}

// String returns the pattern source, EmptyPattern when there are no markers.
func (p *Pattern) String() string { return p.source }

// Empty reports whether the pattern is the no-marker sentinel.
func (p *Pattern) Empty() bool { return p.re == nil }

// FindAllIndex returns the start and end offsets of every marker occurrence.
func (p *Pattern) FindAllIndex(line string) [][]int {
	if p.re == nil {
		return nil
	}
	return p.re.FindAllStringIndex(line, -1)
}
