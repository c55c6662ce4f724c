package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hupe1980/planmesh/tool"
)

const serperEndpoint = "https://google.serper.dev/search"

// WebSearchConfig describes the web_search_serper tool.
func WebSearchConfig() tool.Config {
	return tool.Config{
		Name:         "web_search_serper",
		FunctionName: "web_search_serper",
		Description:  "Perform a web search and return the top organic results",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "Search query",
			},
		},
		PriceUSD:     0.001,
		Capabilities: []string{"web search", "information retrieval"},
	}
}

// WebSearch queries the Serper.dev search API and returns the top five
// organic results. API and transport failures are reported in the payload,
// never as a Go error.
type WebSearch struct {
	apiKey   string
	endpoint string
	client   *http.Client
}

// WebSearchOptions holds the options for a WebSearch.
type WebSearchOptions struct {
	// Endpoint overrides the search API endpoint, for testing.
	Endpoint string
	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// NewWebSearch creates a web search tool backed by the Serper.dev API.
func NewWebSearch(apiKey string, optFns ...func(o *WebSearchOptions)) *WebSearch {
	opts := WebSearchOptions{
		Endpoint:   serperEndpoint,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &WebSearch{
		apiKey:   apiKey,
		endpoint: opts.Endpoint,
		client:   opts.HTTPClient,
	}
}

type serperResponse struct {
	Organic []struct {
		Title       string `json:"title"`
		Snippet     string `json:"snippet"`
		Link        string `json:"link"`
		DisplayLink string `json:"displayLink"`
	} `json:"organic"`
}

// Search implements tool.Func.
func (w *WebSearch) Search(ctx context.Context, params map[string]any) (map[string]any, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return webSearchError(query, fmt.Errorf("query must not be empty")), nil
	}

	body, err := json.Marshal(map[string]string{"q": query})
	if err != nil {
		return webSearchError(query, err), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return webSearchError(query, err), nil
	}
	req.Header.Set("X-API-KEY", w.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return webSearchError(query, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return webSearchError(query, fmt.Errorf("search API returned status %d", resp.StatusCode)), nil
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return webSearchError(query, err), nil
	}

	results := make([]map[string]any, 0, 5)
	for _, item := range parsed.Organic {
		if len(results) == 5 {
			break
		}
		results = append(results, map[string]any{
			"title":       item.Title,
			"snippet":     item.Snippet,
			"url":         item.Link,
			"displayLink": item.DisplayLink,
		})
	}

	return map[string]any{
		"status":        "success",
		"query":         query,
		"results":       results,
		"total_results": len(results),
	}, nil
}

func webSearchError(query string, err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
		"query":  query,
	}
}
