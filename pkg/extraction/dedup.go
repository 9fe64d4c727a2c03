package extraction

import (
	"strings"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Deduplicator suppresses candidates textually near-identical to existing
// memories of the same type and owner.
type Deduplicator struct {
	// threshold is the Jaccard similarity above which a candidate counts as
	// a duplicate. Identical summaries score 1.0 and always exceed it.
	threshold float64
}

// NewDeduplicator creates a deduplicator. A zero threshold selects the
// default of 0.8.
func NewDeduplicator(threshold float64) *Deduplicator {
	if threshold == 0 {
		threshold = 0.8
	}
	return &Deduplicator{threshold: threshold}
}

// IsDuplicate reports whether the candidate's summary is a near-duplicate of
// any existing memory's summary.
//
// The caller supplies existing memories already filtered to the candidate's
// type and owner, bounded by the configured fetch cap.
func (d *Deduplicator) IsDuplicate(candidate CandidateMemory, existing []*storage.Memory) bool {
	for _, memory := range existing {
		if JaccardSimilarity(candidate.Summary, memory.Summary) > d.threshold {
			return true
		}
	}
	return false
}

// JaccardSimilarity computes intersection-over-union of the lower-cased,
// whitespace-tokenized word sets of two strings. Two texts with no words at
// all yield 0.
func JaccardSimilarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	intersection := 0
	for word := range setA {
		if _, ok := setB[word]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}

	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(text)) {
		set[word] = struct{}{}
	}
	return set
}
