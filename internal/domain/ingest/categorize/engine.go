package categorize

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// keywordHit records which category a matched pattern belongs to and the
// score weight of that keyword. The same pattern may serve several
// categories, so metadata entries are grouped per pattern.
type keywordHit struct {
	Category string
	Weight   float64
}

// Engine matches a transaction's text against the whole keyword
// vocabulary in a single pass using the Aho-Corasick automaton, then
// scores categories the same way a per-keyword substring scan would.
type Engine struct {
	matcher   *ahocorasick.Matcher
	metadata  [][]keywordHit
	vocabSize map[string]int
}

// NewEngine builds the automaton from a table's keyword vocabulary.
func NewEngine(table Table) *Engine {
	e := &Engine{
		vocabSize: make(map[string]int, len(table.Keywords)),
	}

	patternToIndex := make(map[string]int)
	var patterns []string

	for category, keywords := range table.Keywords {
		e.vocabSize[category] = len(keywords)
		for _, kw := range keywords {
			pattern := strings.ToUpper(strings.TrimSpace(kw))
			if pattern == "" {
				continue
			}

			// Longer keywords are more specific and score higher.
			hit := keywordHit{
				Category: category,
				Weight:   min(1.0, float64(len(pattern))/10.0),
			}

			if idx, ok := patternToIndex[pattern]; ok {
				e.metadata[idx] = append(e.metadata[idx], hit)
				continue
			}
			patternToIndex[pattern] = len(patterns)
			patterns = append(patterns, pattern)
			e.metadata = append(e.metadata, []keywordHit{hit})
		}
	}

	if len(patterns) > 0 {
		bytePatterns := make([][]byte, len(patterns))
		for i, p := range patterns {
			bytePatterns[i] = []byte(p)
		}
		e.matcher = ahocorasick.NewMatcher(bytePatterns)
	}

	return e
}

// Scores computes the keyword score of every category that has at least
// one keyword present in the text. Score = Σ min(1, len/10) over matched
// keywords, normalized by the category's vocabulary size.
func (e *Engine) Scores(text string) map[string]float64 {
	matched := e.match(text)
	if len(matched) == 0 {
		return nil
	}

	totals := make(map[string]float64)
	for _, idx := range matched {
		for _, hit := range e.metadata[idx] {
			totals[hit.Category] += hit.Weight
		}
	}

	scores := make(map[string]float64, len(totals))
	for category, total := range totals {
		if size := e.vocabSize[category]; size > 0 {
			scores[category] = total / float64(size)
		}
	}
	return scores
}

// HasKeyword reports whether any keyword of the category appears in the
// text.
func (e *Engine) HasKeyword(text, category string) bool {
	for _, idx := range e.match(text) {
		for _, hit := range e.metadata[idx] {
			if hit.Category == category {
				return true
			}
		}
	}
	return false
}

func (e *Engine) match(text string) []int {
	if e.matcher == nil {
		return nil
	}
	return e.matcher.Match([]byte(strings.ToUpper(text)))
}
