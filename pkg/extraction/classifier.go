package extraction

import (
	"regexp"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Classifier assigns memory-type labels to sentences using the injected
// trigger-pattern table.
type Classifier struct {
	table *PatternTable
}

// NewClassifier creates a classifier over a pattern table. A nil table
// selects the built-in default patterns.
func NewClassifier(table *PatternTable) *Classifier {
	if table == nil {
		table = DefaultPatterns()
	}
	return &Classifier{table: table}
}

// Classify returns every memory type whose trigger patterns match the
// sentence, in the fixed evaluation order.
func (c *Classifier) Classify(sentence string) []storage.MemoryType {
	var types []storage.MemoryType
	for _, entry := range c.table.entries {
		if countMatches(entry.patterns, sentence) > 0 {
			types = append(types, entry.memType)
		}
	}
	return types
}

// First returns the first memory type (in the fixed evaluation order) whose
// triggers match the sentence, along with the number of that type's triggers
// that matched. The second return is false when no type matches.
//
// First-match-wins is what keeps a sentence from being emitted under more
// than one type during extraction.
func (c *Classifier) First(sentence string) (storage.MemoryType, int, bool) {
	for _, entry := range c.table.entries {
		if n := countMatches(entry.patterns, sentence); n > 0 {
			return entry.memType, n, true
		}
	}
	return "", 0, false
}

// Matches returns how many triggers of the given type match the sentence.
func (c *Classifier) Matches(sentence string, memType storage.MemoryType) int {
	return countMatches(c.table.Patterns(memType), sentence)
}

func countMatches(patterns []*regexp.Regexp, sentence string) int {
	n := 0
	for _, p := range patterns {
		if p.MatchString(sentence) {
			n++
		}
	}
	return n
}
