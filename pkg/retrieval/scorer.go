// Package retrieval provides the relevance scoring and memory retrieval
// pipeline: query embedding, weighted multi-signal scoring, candidate
// ranking, and reply composition from the top-ranked memories.
package retrieval

import (
	"math"
	"strings"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Weights holds the fixed signal weights for relevance scoring.
//
// The weights are a behavioral contract: the default 0.4/0.3/0.2/0.1 split
// must be reproduced exactly for score-boundary compatibility. They are kept
// in one named structure so they stay independently testable and tunable
// instead of being scattered through the scoring logic.
type Weights struct {
	// Vector weighs cosine similarity between memory and query embeddings.
	Vector float64 `yaml:"vector" json:"vector"`

	// Keyword weighs the fraction of query keywords found in the memory text.
	Keyword float64 `yaml:"keyword" json:"keyword"`

	// Context weighs the fraction of trailing-context words found in the
	// memory text.
	Context float64 `yaml:"context" json:"context"`

	// Confidence weighs the memory's stored extraction confidence.
	Confidence float64 `yaml:"confidence" json:"confidence"`
}

// DefaultWeights returns the fixed production scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Vector:     0.4,
		Keyword:    0.3,
		Context:    0.2,
		Confidence: 0.1,
	}
}

// fallbackConfidence substitutes for memories stored without a confidence
// score.
const fallbackConfidence = 0.5

// Scorer combines vector similarity, keyword overlap, context overlap, and
// stored confidence into a single relevance score per memory.
type Scorer struct {
	weights Weights
}

// NewScorer creates a scorer with the given weights. Zero-value weights
// select the defaults.
func NewScorer(weights Weights) *Scorer {
	if weights == (Weights{}) {
		weights = DefaultWeights()
	}
	return &Scorer{weights: weights}
}

// Score computes the relevance of a memory to a query.
//
// The formula is:
//
//	0.4*cosine(memory.embedding, queryVector)
//	+ 0.3*keywordOverlap + 0.2*contextOverlap
//	+ 0.1*(memory.confidence ?? 0.5)
//
// with the weights taken from the scorer's configuration. Keyword overlap is
// the fraction of query keywords found as literal substrings in
// "summary + content" (case-insensitive); context overlap is the analogous
// fraction for trailing-context words. Both denominators are clamped to at
// least 1, so empty inputs contribute 0 rather than failing.
func (s *Scorer) Score(memory *storage.Memory, queryVector []float64, keywords []string, contextText string) float64 {
	similarity := CosineSimilarity(memory.Embedding, queryVector)

	text := strings.ToLower(memory.Summary + " " + memory.Content)

	matched := 0
	for _, keyword := range keywords {
		if strings.Contains(text, keyword) {
			matched++
		}
	}
	keywordOverlap := float64(matched) / math.Max(float64(len(keywords)), 1)

	words := contextWords(contextText)
	matched = 0
	for _, word := range words {
		if strings.Contains(text, word) {
			matched++
		}
	}
	contextOverlap := float64(matched) / math.Max(float64(len(words)), 1)

	confidence := fallbackConfidence
	if memory.Confidence != nil {
		confidence = *memory.Confidence
	}

	return s.weights.Vector*similarity +
		s.weights.Keyword*keywordOverlap +
		s.weights.Context*contextOverlap +
		s.weights.Confidence*confidence
}

// CosineSimilarity calculates the cosine similarity between two vectors.
//
// Returns a value in [-1, 1], or exactly 0 when the vectors have different
// lengths or either has zero norm. The zero fallback is a defined behavior
// for mismatched or empty embeddings, not an error.
func CosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}
