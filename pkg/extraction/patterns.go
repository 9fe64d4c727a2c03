// Package extraction provides the memory extraction and deduplication
// pipeline: sentence segmentation, trigger-pattern classification, candidate
// production, near-duplicate suppression, and persistence orchestration.
package extraction

import (
	"regexp"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// PatternTable is the read-only lookup of trigger patterns per memory type.
//
// The table is process-wide constant configuration: it is built once at
// initialization and must not be mutated afterwards. The entry order is the
// fixed classification order (semantic, episodic, procedural, emotional,
// value_principle) and the pattern order within a type is the fixed trigger
// evaluation order.
type PatternTable struct {
	entries []patternEntry
}

type patternEntry struct {
	memType  storage.MemoryType
	patterns []*regexp.Regexp
}

// NewPatternTable builds a table from per-type trigger lists, preserving the
// canonical type order. Types absent from the map are skipped.
func NewPatternTable(triggers map[storage.MemoryType][]*regexp.Regexp) *PatternTable {
	table := &PatternTable{}
	for _, t := range storage.AllMemoryTypes {
		if patterns, ok := triggers[t]; ok && len(patterns) > 0 {
			table.entries = append(table.entries, patternEntry{memType: t, patterns: patterns})
		}
	}
	return table
}

// DefaultPatterns returns the built-in trigger table.
//
// All triggers are case-insensitive regular expressions tested against whole
// sentences; matching is a substring test, not a full parse.
func DefaultPatterns() *PatternTable {
	return NewPatternTable(map[storage.MemoryType][]*regexp.Regexp{
		storage.TypeSemantic: compileAll(
			`\bi (?:really )?(?:like|love|prefer|enjoy)\b`,
			`\bmy favou?rite\b`,
			`\bi(?:'m| am) (?:a|an|from)\b`,
			`\bi (?:work|live)\b`,
			`\bi (?:hate|dislike|can't stand)\b`,
			`\bmy name is\b`,
		),
		storage.TypeEpisodic: compileAll(
			`\byesterday\b`,
			`\blast (?:week|month|year|night|summer|weekend)\b`,
			`\bi went to\b`,
			`\bwe (?:went|met|visited|watched)\b`,
			`\bi (?:visited|attended|met|saw)\b`,
			`\bthis (?:morning|afternoon|evening)\b`,
			`\b(?:days|weeks|months|years) ago\b`,
			`\btoday i\b`,
		),
		storage.TypeProcedural: compileAll(
			`\bhow to\b`,
			`\bmy (?:routine|process|workflow|ritual)\b`,
			`\bi usually\b`,
			`\bi always (?:start|begin|do)\b`,
			`\bevery (?:day|morning|evening|night|week)\b`,
			`\bstep[- ]by[- ]step\b`,
			`\bthe way i\b`,
		),
		storage.TypeEmotional: compileAll(
			`\bi (?:feel|felt)\b`,
			`\bmakes? me (?:happy|sad|angry|anxious|excited|nervous|proud)\b`,
			`\bi(?:'m| am| was) (?:happy|sad|angry|excited|worried|anxious|scared|frustrated|stressed|overwhelmed|thrilled)\b`,
			`\bi(?:'ve| have) been feeling\b`,
		),
		storage.TypeValuePrinciple: compileAll(
			`\bi believe\b`,
			`\bi value\b`,
			`\bit(?:'s| is) important (?:to|that)\b`,
			`\b(?:everyone|people) should\b`,
			`\bi stand for\b`,
			`\b(?:honesty|integrity|fairness|kindness) (?:is|matters)\b`,
			`\bmy principles?\b`,
		),
	})
}

// compileAll compiles trigger expressions as case-insensitive regexps.
func compileAll(exprs ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(exprs))
	for i, expr := range exprs {
		patterns[i] = regexp.MustCompile(`(?i)` + expr)
	}
	return patterns
}

// Types returns the memory types in the table's fixed evaluation order.
func (t *PatternTable) Types() []storage.MemoryType {
	types := make([]storage.MemoryType, len(t.entries))
	for i, e := range t.entries {
		types[i] = e.memType
	}
	return types
}

// Patterns returns the ordered trigger list for a memory type (nil if the
// type has no entry).
func (t *PatternTable) Patterns(memType storage.MemoryType) []*regexp.Regexp {
	for _, e := range t.entries {
		if e.memType == memType {
			return e.patterns
		}
	}
	return nil
}
