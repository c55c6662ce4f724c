package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/hupe1980/planmesh/core"
)

type record struct {
	memoryType string
	content    string
	metadata   map[string]any
}

// InMemoryRetriever is a process-local core.MemoryRetriever. Relevance is
// the fraction of query tokens that appear in a memory's content, compared
// case-insensitively, which keeps scores in [0, 1] and deterministic.
type InMemoryRetriever struct {
	mu      sync.RWMutex
	records map[string][]record // keyed by user ID
}

// NewInMemoryRetriever creates an empty in-process memory store.
func NewInMemoryRetriever() *InMemoryRetriever {
	return &InMemoryRetriever{
		records: make(map[string][]record),
	}
}

// Store adds one memory for a user.
func (r *InMemoryRetriever) Store(userID, memoryType, content string, metadata map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[userID] = append(r.records[userID], record{
		memoryType: memoryType,
		content:    content,
		metadata:   metadata,
	})
}

// RetrieveRelevantMemories implements core.MemoryRetriever. Memories with a
// zero score are omitted; the result carries no ordering guarantee.
func (r *InMemoryRetriever) RetrieveRelevantMemories(ctx context.Context, userID, query string, types []string) ([]core.Memory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	typeFilter := make(map[string]struct{}, len(types))
	for _, t := range types {
		typeFilter[t] = struct{}{}
	}

	queryTokens := tokenize(query)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var memories []core.Memory
	for _, rec := range r.records[userID] {
		if len(typeFilter) > 0 {
			if _, ok := typeFilter[rec.memoryType]; !ok {
				continue
			}
		}

		score := relevance(queryTokens, rec.content)
		if score == 0 {
			continue
		}

		memories = append(memories, core.Memory{
			Type:           rec.memoryType,
			Content:        rec.content,
			RelevanceScore: score,
			Metadata:       rec.metadata,
		})
	}

	return memories, nil
}

// relevance returns the fraction of query tokens present in the content.
func relevance(queryTokens []string, content string) float64 {
	if len(queryTokens) == 0 {
		return 0
	}

	contentTokens := make(map[string]struct{})
	for _, t := range tokenize(content) {
		contentTokens[t] = struct{}{}
	}

	matched := 0
	for _, t := range queryTokens {
		if _, ok := contentTokens[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(queryTokens))
}

func tokenize(s string) []string {
	return strings.Fields(strings.ToLower(s))
}
