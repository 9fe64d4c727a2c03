package extraction_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemo-ai/mnemo-go/pkg/extraction"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

func newTestExtractor() *extraction.Extractor {
	return extraction.NewExtractor(nil, extraction.Config{})
}

func TestExtractBasic(t *testing.T) {
	e := newTestExtractor()

	candidates := e.Extract("I really love pizza with fresh basil. The sky was clear.")

	require.Len(t, candidates, 1)
	assert.Equal(t, storage.TypeSemantic, candidates[0].Type)
	assert.Equal(t, "I really love pizza with fresh basil", candidates[0].Content)
	assert.Equal(t, candidates[0].Content, candidates[0].Summary)
}

func TestExtractMinSentenceLength(t *testing.T) {
	e := newTestExtractor()

	// "I like it" trimmed is 9 characters, below the minimum of 10.
	assert.Empty(t, e.Extract("I like it."))

	// One character longer passes.
	candidates := e.Extract("I like tea.")
	require.Len(t, candidates, 1)
	assert.Equal(t, storage.TypeSemantic, candidates[0].Type)
}

func TestExtractSummaryTruncation(t *testing.T) {
	e := newTestExtractor()

	long := "I really love " + strings.Repeat("pizza ", 30) // well over 100 chars
	candidates := e.Extract(long + ".")

	require.Len(t, candidates, 1)
	summary := candidates[0].Summary
	assert.Equal(t, 100, len([]rune(summary)))
	assert.True(t, strings.HasSuffix(summary, "..."))
	assert.Equal(t, strings.TrimSpace(long), candidates[0].Content, "content keeps the full sentence")
}

func TestExtractOneCandidatePerSentence(t *testing.T) {
	e := newTestExtractor()

	// Matches semantic and episodic triggers; only the first type emits.
	candidates := e.Extract("I love the ramen place we found yesterday.")

	require.Len(t, candidates, 1)
	assert.Equal(t, storage.TypeSemantic, candidates[0].Type)
}

func TestExtractMultipleSentences(t *testing.T) {
	e := newTestExtractor()

	candidates := e.Extract(
		"I really love Italian food! Yesterday I went to a trattoria downtown. " +
			"I believe good food should be shared.")

	require.Len(t, candidates, 3)
	assert.Equal(t, storage.TypeSemantic, candidates[0].Type)
	assert.Equal(t, storage.TypeEpisodic, candidates[1].Type)
	assert.Equal(t, storage.TypeValuePrinciple, candidates[2].Type)
}

func TestExtractConfidenceDeterministic(t *testing.T) {
	e := newTestExtractor()

	// Single trigger match: base confidence.
	candidates := e.Extract("I really love Italian food.")
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.7, candidates[0].Confidence, 1e-9)

	// Two emotional triggers: one step above base.
	candidates = e.Extract("I feel that sunshine makes me happy sometimes.")
	require.Len(t, candidates, 1)
	assert.InDelta(t, 0.8, candidates[0].Confidence, 1e-9)

	// Repeated runs give identical confidence.
	again := e.Extract("I really love Italian food.")
	require.Len(t, again, 1)
	assert.Equal(t, 0.7, again[0].Confidence)
}

func TestExtractConfidenceCapped(t *testing.T) {
	e := extraction.NewExtractor(nil, extraction.Config{
		BaseConfidence: 0.7,
		ConfidenceStep: 0.4,
	})

	candidates := e.Extract("I feel that sunshine makes me happy sometimes.")
	require.Len(t, candidates, 1)
	assert.Equal(t, 1.0, candidates[0].Confidence)
}

func TestExtractNoiseOverride(t *testing.T) {
	e := extraction.NewExtractor(nil, extraction.Config{
		Noise: func() float64 { return 0.5 },
	})

	candidates := e.Extract("I really love Italian food.")
	require.Len(t, candidates, 1)
	// 0.7 + 0.5*(1-0.7)
	assert.InDelta(t, 0.85, candidates[0].Confidence, 1e-9)
}

func TestExtractNothingMatches(t *testing.T) {
	e := newTestExtractor()
	assert.Empty(t, e.Extract("The weather report said rain tomorrow. Trains were on schedule."))
}
