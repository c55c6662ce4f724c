package builtin

import (
	"context"

	"github.com/hupe1980/planmesh/tool"
)

// DocumentSearchConfig describes the search_user_documents tool.
func DocumentSearchConfig() tool.Config {
	return tool.Config{
		Name:         "search_user_documents",
		FunctionName: "search_user_documents",
		Description:  "Search through user uploaded documents",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "Search query",
			},
			"user_id": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "Owner of the documents to search",
			},
		},
		PriceUSD:     0.002,
		Capabilities: []string{"document search", "retrieval"},
	}
}

// SearchDocuments is a placeholder for document retrieval.
// TODO: back this with a vector store once document ingestion lands.
func SearchDocuments(_ context.Context, params map[string]any) (map[string]any, error) {
	query, _ := params["query"].(string)
	userID, _ := params["user_id"].(string)

	return map[string]any{
		"status":  "not_implemented",
		"message": "Document retrieval will be implemented in a future version",
		"query":   query,
		"user_id": userID,
	}, nil
}
