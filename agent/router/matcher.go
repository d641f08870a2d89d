package router

import (
	"regexp"
	"strings"
)

// wordStart and wordEnd bound a term by any rune that is not a letter, digit
// or underscore in any script, so accented letters continue a word.
const (
	wordStart = `(?:^|[^\p{L}\p{N}_])`
	wordEnd   = `(?:$|[^\p{L}\p{N}_])`
)

// termMatcher finds a term as a whole word. When no word-boundary pattern
// could be compiled for the term, matching degrades to plain containment.
type termMatcher struct {
	term    string
	pattern *regexp.Regexp
}

func newTermMatcher(term string) termMatcher {
	term = strings.ToLower(strings.TrimSpace(term))
	// A quoted term always compiles; the containment branch is only reached
	// by matchers constructed without a pattern.
	pattern, err := regexp.Compile(wordStart + regexp.QuoteMeta(term) + wordEnd)
	if err != nil {
		return termMatcher{term: term}
	}
	return termMatcher{term: term, pattern: pattern}
}

// match expects a lower-cased query.
func (m termMatcher) match(query string) bool {
	if m.term == "" {
		return false
	}
	if m.pattern == nil {
		return strings.Contains(query, m.term)
	}
	return m.pattern.MatchString(query)
}

func compileMatchers(terms []string) []termMatcher {
	seen := make(map[string]struct{}, len(terms))
	out := make([]termMatcher, 0, len(terms))
	for _, term := range terms {
		m := newTermMatcher(term)
		if m.term == "" {
			continue
		}
		if _, ok := seen[m.term]; ok {
			continue
		}
		seen[m.term] = struct{}{}
		out = append(out, m)
	}
	return out
}
