package retrieval

import (
	"fmt"
	"math"
	"strings"

	"github.com/samber/lo"

	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// noMemoryReply is returned when retrieval found nothing relevant.
const noMemoryReply = "I don't have specific memories related to this topic yet. " +
	"Could you provide more context so I can remember it for next time?"

// Composer builds reply text from the top retrieved memories.
//
// The reply is template-composed from memory summaries; text generation by a
// language model is deliberately out of scope.
type Composer struct {
	cfg Config
}

// NewComposer creates a composer. Zero-valued config fields fall back to the
// defaults.
func NewComposer(cfg Config) *Composer {
	return &Composer{cfg: cfg.applyDefaults()}
}

// Compose builds the reply text and its confidence for one retrieval result.
//
// With no relevant memories, the reply is a fixed "no relevant memory"
// message; the confidence formula then evaluates over an empty set and is
// guaranteed to stay below 0.5.
//
// Otherwise the reply opens with a framing phrase chosen by type priority
// (episodic, then semantic, then emotional, then value_principle; a
// procedural-only result gets no framing), folds in up to MaxSummaries
// memory summaries, and closes with a clause echoing the query and inviting
// elaboration.
//
// Confidence is min(0.8*avgScore + 0.2*min(n/3, 1), 1) rounded to 3 decimal
// places, where avgScore averages the scored set filtered to
// score > ScoreThreshold and n is the number of returned memories.
func (c *Composer) Compose(query string, top []*storage.Memory, scored []ScoredMemory) (string, float64) {
	confidence := c.confidence(len(top), scored)

	if len(top) == 0 {
		return noMemoryReply, confidence
	}

	summaries := lo.Map(lo.Subset(top, 0, uint(c.cfg.MaxSummaries)),
		func(m *storage.Memory, _ int) string {
			return strings.TrimRight(m.Summary, ".!? ")
		})

	content := fmt.Sprintf("%s%s. Regarding \"%s\", could you tell me more?",
		c.prefix(top), strings.Join(summaries, ". "), query)

	return content, confidence
}

// prefix picks the framing phrase for the reply by fixed type priority.
func (c *Composer) prefix(top []*storage.Memory) string {
	present := map[storage.MemoryType]bool{}
	for _, m := range top {
		present[m.Type] = true
	}

	switch {
	case present[storage.TypeEpisodic]:
		return "Based on what we've previously discussed, "
	case present[storage.TypeSemantic]:
		return "From what I know about you, "
	case present[storage.TypeEmotional]:
		return "Considering the feelings you've shared with me, "
	case present[storage.TypeValuePrinciple]:
		return "In line with the values you've expressed, "
	default:
		// Procedural-only results carry no specific framing.
		return ""
	}
}

// confidence computes the reply confidence from the scored candidate set.
func (c *Composer) confidence(returned int, scored []ScoredMemory) float64 {
	var sum float64
	var count int
	for _, sm := range scored {
		if sm.Score > c.cfg.ScoreThreshold {
			sum += sm.Score
			count++
		}
	}

	avg := 0.0
	if count > 0 {
		avg = sum / float64(count)
	}

	coverage := math.Min(float64(returned)/3.0, 1.0)
	confidence := math.Min(0.8*avg+0.2*coverage, 1.0)

	return math.Round(confidence*1000) / 1000
}
