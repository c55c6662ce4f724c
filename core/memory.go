package core

import "context"

// Memory is one retrieved memory candidate. RelevanceScore is in [0,1]; the
// retriever guarantees no ordering, the planner sorts and filters itself.
type Memory struct {
	Type           string         `json:"type"`
	Content        string         `json:"content"`
	RelevanceScore float64        `json:"relevance_score"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// MemoryRetriever is the retrieval contract the planner consumes. Durable
// implementations (vector stores, conversation archives) live outside this
// module; the memory package provides a process-local one for development
// and tests.
type MemoryRetriever interface {
	// RetrieveRelevantMemories returns memory candidates for the query,
	// optionally restricted to the given types. An empty types slice means
	// all types.
	RetrieveRelevantMemories(ctx context.Context, userID, query string, types []string) ([]Memory, error)
}
