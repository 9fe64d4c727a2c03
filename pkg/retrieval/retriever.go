package retrieval

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/mnemo-ai/mnemo-go/pkg/embedder"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// Config contains the tunables of the retrieval pipeline.
//
// The defaults are behavioral constants: candidate window 50, score
// threshold 0.1, result cap 5, keyword cap 10, summary cap 3.
type Config struct {
	// Weights are the relevance scoring weights.
	Weights Weights `yaml:"weights" json:"weights"`

	// ScoreThreshold is the minimum relevance score (exclusive) for a memory
	// to be returned.
	ScoreThreshold float64 `yaml:"score_threshold" json:"score_threshold"`

	// CandidateWindow caps how many most-recently-updated memories are
	// fetched per user for scoring. A performance bound, not a correctness
	// one: older memories simply fall out of the window.
	CandidateWindow int `yaml:"candidate_window" json:"candidate_window"`

	// MaxResults caps how many memories a retrieval returns.
	MaxResults int `yaml:"max_results" json:"max_results"`

	// MaxKeywords caps how many keywords are extracted from the query.
	MaxKeywords int `yaml:"max_keywords" json:"max_keywords"`

	// MaxSummaries caps how many memory summaries the composer folds into
	// one reply.
	MaxSummaries int `yaml:"max_summaries" json:"max_summaries"`

	// ScoringWorkers sets the size of the per-request scoring worker pool.
	ScoringWorkers int `yaml:"scoring_workers" json:"scoring_workers"`
}

// DefaultConfig returns the fixed production retrieval configuration.
func DefaultConfig() Config {
	return Config{
		Weights:        DefaultWeights(),
		ScoreThreshold: 0.1,
		CandidateWindow: 50,
		MaxResults:     5,
		MaxKeywords:    10,
		MaxSummaries:   3,
		ScoringWorkers: 4,
	}
}

// applyDefaults fills zero-valued fields with their defaults.
func (c Config) applyDefaults() Config {
	d := DefaultConfig()
	if c.Weights == (Weights{}) {
		c.Weights = d.Weights
	}
	if c.ScoreThreshold == 0 {
		c.ScoreThreshold = d.ScoreThreshold
	}
	if c.CandidateWindow == 0 {
		c.CandidateWindow = d.CandidateWindow
	}
	if c.MaxResults == 0 {
		c.MaxResults = d.MaxResults
	}
	if c.MaxKeywords == 0 {
		c.MaxKeywords = d.MaxKeywords
	}
	if c.MaxSummaries == 0 {
		c.MaxSummaries = d.MaxSummaries
	}
	if c.ScoringWorkers == 0 {
		c.ScoringWorkers = d.ScoringWorkers
	}
	return c
}

// ScoredMemory pairs a memory with its computed relevance score for the
// duration of one retrieval request. It is never persisted.
type ScoredMemory struct {
	// Memory is the scored memory.
	Memory *storage.Memory

	// Score is the computed relevance in the current request.
	Score float64
}

// Result is the outcome of one retrieval request.
type Result struct {
	// Top is the filtered, ranked list of relevant memories
	// (score > threshold, at most MaxResults, best first).
	Top []*storage.Memory

	// Scored is the full pre-filter scored candidate set in ranked order.
	// The composer derives its confidence from this set.
	Scored []ScoredMemory
}

// Retriever fetches a bounded candidate set per user, scores it, and returns
// the filtered ranking. Retrieval is read-only and side-effect-free; a
// Retriever may be used concurrently without coordination.
type Retriever struct {
	store    storage.MemoryStore
	embedder embedder.Provider
	scorer   *Scorer
	cfg      Config
	log      zerolog.Logger
}

// NewRetriever creates a retriever over the given store and embedding
// provider. Zero-valued config fields fall back to the defaults.
func NewRetriever(store storage.MemoryStore, provider embedder.Provider, cfg Config, log zerolog.Logger) *Retriever {
	cfg = cfg.applyDefaults()
	return &Retriever{
		store:    store,
		embedder: provider,
		scorer:   NewScorer(cfg.Weights),
		cfg:      cfg,
		log:      log,
	}
}

// Retrieve scores the user's most-recently-updated memories against a query
// and returns the relevant ranking.
//
// Steps:
//  1. Fetch up to CandidateWindow memories for the user (newest first).
//  2. Embed the query and extract its keywords.
//  3. Score every candidate (fanned out over a worker pool; the final order
//     is deterministic regardless of scheduling).
//  4. Sort descending by score; ties keep retrieval order.
//  5. Filter to score > ScoreThreshold and keep at most MaxResults.
//
// An empty candidate set or an all-below-threshold scoring is an empty
// result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, userID, query, recentContext string) (*Result, error) {
	candidates, err := r.store.Query(ctx, &storage.QueryOptions{
		UserID: userID,
		Limit:  r.cfg.CandidateWindow,
	})
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &Result{}, nil
	}

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	keywords := ExtractKeywords(query, r.cfg.MaxKeywords)

	scored := r.scoreAll(candidates, queryVector, keywords, recentContext)

	// Stable sort keeps retrieval order for equal scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	var top []*storage.Memory
	for _, sm := range scored {
		if sm.Score <= r.cfg.ScoreThreshold {
			continue
		}
		top = append(top, sm.Memory)
		if len(top) >= r.cfg.MaxResults {
			break
		}
	}

	r.log.Debug().
		Str("user_id", userID).
		Int("candidates", len(candidates)).
		Int("returned", len(top)).
		Msg("retrieval complete")

	return &Result{Top: top, Scored: scored}, nil
}

// scoreAll scores every candidate concurrently. Results are written into an
// index-addressed slice, so the output order always matches the candidate
// (retrieval) order.
func (r *Retriever) scoreAll(candidates []*storage.Memory, queryVector []float64, keywords []string, contextText string) []ScoredMemory {
	scored := make([]ScoredMemory, len(candidates))

	workers := r.cfg.ScoringWorkers
	if workers > len(candidates) {
		workers = len(candidates)
	}

	indexes := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range indexes {
				scored[i] = ScoredMemory{
					Memory: candidates[i],
					Score:  r.scorer.Score(candidates[i], queryVector, keywords, contextText),
				}
			}
		}()
	}
	for i := range candidates {
		indexes <- i
	}
	close(indexes)
	wg.Wait()

	return scored
}
