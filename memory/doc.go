// Package memory provides retrieval of user memories for plan enhancement.
// The in-process implementation scores relevance by token overlap; callers
// needing semantic retrieval can implement core.MemoryRetriever against an
// embedding store.
package memory
