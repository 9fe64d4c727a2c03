package core

import (
	"github.com/mnemo-ai/mnemo-go/pkg/extraction"
	"github.com/mnemo-ai/mnemo-go/pkg/storage"
)

// fromStorageMemory converts a storage-layer memory row into the public
// Memory type.
func fromStorageMemory(m *storage.Memory) *Memory {
	if m == nil {
		return nil
	}
	return &Memory{
		ID:         m.ID,
		UserID:     m.UserID,
		Type:       m.Type,
		Summary:    m.Summary,
		Content:    m.Content,
		Embedding:  m.Embedding,
		Details:    m.Details,
		Confidence: m.Confidence,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

// fromStorageMemories converts a slice of storage-layer memories.
func fromStorageMemories(memories []*storage.Memory) []*Memory {
	result := make([]*Memory, len(memories))
	for i, m := range memories {
		result[i] = fromStorageMemory(m)
	}
	return result
}

// toExtractionTurns converts public conversation turns into the extraction
// pipeline's turn type.
func toExtractionTurns(turns []ConversationTurn) []extraction.Turn {
	result := make([]extraction.Turn, len(turns))
	for i, t := range turns {
		result[i] = extraction.Turn{
			Role:      t.Role,
			Content:   t.Content,
			Timestamp: t.Timestamp,
		}
	}
	return result
}
