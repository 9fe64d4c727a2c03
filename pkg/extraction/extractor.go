package extraction

import (
	"math"
	"regexp"
	"strings"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Config contains the tunables of the extraction pipeline.
//
// The defaults are behavioral constants: minimum sentence length 10, summary
// cap 100 characters, duplicate threshold 0.8, dedup fetch cap 100.
type Config struct {
	// MinSentenceLength is the minimum trimmed sentence length (in
	// characters) considered for extraction.
	MinSentenceLength int `yaml:"min_sentence_length" json:"min_sentence_length"`

	// SummaryMaxLength is the maximum summary length; longer sentences are
	// truncated with a trailing ellipsis.
	SummaryMaxLength int `yaml:"summary_max_length" json:"summary_max_length"`

	// DuplicateThreshold is the Jaccard similarity above which a candidate
	// is suppressed as a near-duplicate of an existing memory.
	DuplicateThreshold float64 `yaml:"duplicate_threshold" json:"duplicate_threshold"`

	// DedupFetchLimit caps how many existing memories of the candidate's
	// type are fetched for the duplicate check.
	DedupFetchLimit int `yaml:"dedup_fetch_limit" json:"dedup_fetch_limit"`

	// BaseConfidence is the extraction confidence floor.
	BaseConfidence float64 `yaml:"base_confidence" json:"base_confidence"`

	// ConfidenceStep is the confidence gained per additional matched
	// trigger, capped at 1.0.
	ConfidenceStep float64 `yaml:"confidence_step" json:"confidence_step"`

	// Noise optionally replaces the deterministic confidence with
	// BaseConfidence + Noise()*(1-BaseConfidence). The reference behavior
	// drew confidence at random from [0.7, 1.0]; keep this nil for the
	// reproducible match-count variant and inject a source only for
	// compatibility experiments.
	Noise func() float64 `yaml:"-" json:"-"`
}

// DefaultConfig returns the fixed production extraction configuration.
func DefaultConfig() Config {
	return Config{
		MinSentenceLength:  10,
		SummaryMaxLength:   100,
		DuplicateThreshold: 0.8,
		DedupFetchLimit:    100,
		BaseConfidence:     0.7,
		ConfidenceStep:     0.1,
	}
}

// applyDefaults fills zero-valued fields with their defaults.
func (c Config) applyDefaults() Config {
	d := DefaultConfig()
	if c.MinSentenceLength == 0 {
		c.MinSentenceLength = d.MinSentenceLength
	}
	if c.SummaryMaxLength == 0 {
		c.SummaryMaxLength = d.SummaryMaxLength
	}
	if c.DuplicateThreshold == 0 {
		c.DuplicateThreshold = d.DuplicateThreshold
	}
	if c.DedupFetchLimit == 0 {
		c.DedupFetchLimit = d.DedupFetchLimit
	}
	if c.BaseConfidence == 0 {
		c.BaseConfidence = d.BaseConfidence
	}
	if c.ConfidenceStep == 0 {
		c.ConfidenceStep = d.ConfidenceStep
	}
	return c
}

// CandidateMemory is the transient output of classification: a provisional
// memory that is promoted to a stored Memory only if it survives
// deduplication.
type CandidateMemory struct {
	// Type is the classified memory type.
	Type storage.MemoryType

	// Summary is the sentence truncated to the summary cap.
	Summary string

	// Content is the full source sentence.
	Content string

	// Confidence is the extraction confidence in [0,1].
	Confidence float64
}

// sentenceSplit matches runs of sentence-terminal punctuation.
var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Extractor segments conversation text into sentences, classifies each, and
// produces candidate memory records.
type Extractor struct {
	classifier *Classifier
	cfg        Config
}

// NewExtractor creates an extractor. A nil classifier selects the default
// pattern table; zero-valued config fields fall back to the defaults.
func NewExtractor(classifier *Classifier, cfg Config) *Extractor {
	if classifier == nil {
		classifier = NewClassifier(nil)
	}
	return &Extractor{classifier: classifier, cfg: cfg.applyDefaults()}
}

// Extract produces candidate memories from conversation text.
//
// Text is split on sentence-terminal punctuation; trimmed sentences shorter
// than the minimum length are discarded. Each surviving sentence is
// classified in the fixed type order and emits at most one candidate, for
// the first matching type.
func (e *Extractor) Extract(text string) []CandidateMemory {
	var candidates []CandidateMemory

	for _, raw := range sentenceSplit.Split(text, -1) {
		sentence := strings.TrimSpace(raw)
		if len(sentence) < e.cfg.MinSentenceLength {
			continue
		}

		memType, matches, ok := e.classifier.First(sentence)
		if !ok {
			continue
		}

		candidates = append(candidates, CandidateMemory{
			Type:       memType,
			Summary:    e.summarize(sentence),
			Content:    sentence,
			Confidence: e.confidence(matches),
		})
	}

	return candidates
}

// summarize truncates a sentence to the summary cap, appending an ellipsis
// when it was cut.
func (e *Extractor) summarize(sentence string) string {
	runes := []rune(sentence)
	if len(runes) <= e.cfg.SummaryMaxLength {
		return sentence
	}
	return string(runes[:e.cfg.SummaryMaxLength-3]) + "..."
}

// confidence derives the extraction confidence from trigger-match
// specificity: the more of the type's triggers a sentence hits, the higher
// the confidence, capped at 1.0. An injected noise source overrides this
// with the legacy randomized range.
func (e *Extractor) confidence(matches int) float64 {
	if e.cfg.Noise != nil {
		noise := math.Max(0, math.Min(1, e.cfg.Noise()))
		return e.cfg.BaseConfidence + noise*(1-e.cfg.BaseConfidence)
	}
	return math.Min(e.cfg.BaseConfidence+e.cfg.ConfidenceStep*float64(matches-1), 1.0)
}
