package builtin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hupe1980/planmesh/tool"
)

// WikipediaConfig describes the wikipedia_search tool.
func WikipediaConfig() tool.Config {
	return tool.Config{
		Name:         "wikipedia_search",
		FunctionName: "wikipedia_search",
		Description:  "Search Wikipedia and return article summaries",
		Parameters: map[string]any{
			"query": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "Search query",
			},
			"language": map[string]any{
				"type":        "string",
				"required":    false,
				"description": "Wikipedia language code, defaults to en",
			},
		},
		PriceUSD:     0.0,
		Capabilities: []string{"encyclopedia", "reference", "information retrieval"},
	}
}

// Wikipedia searches the MediaWiki API and returns up to three article
// summaries. Failures are reported in the payload, never as a Go error.
type Wikipedia struct {
	baseURL string
	client  *http.Client
}

// WikipediaOptions holds the options for a Wikipedia tool.
type WikipediaOptions struct {
	// BaseURL overrides the API base URL pattern. It must contain one %s
	// placeholder for the language code.
	BaseURL string
	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// NewWikipedia creates a Wikipedia search tool.
func NewWikipedia(optFns ...func(o *WikipediaOptions)) *Wikipedia {
	opts := WikipediaOptions{
		BaseURL:    "https://%s.wikipedia.org/w/api.php",
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Wikipedia{
		baseURL: opts.BaseURL,
		client:  opts.HTTPClient,
	}
}

type wikipediaResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
		} `json:"pages"`
	} `json:"query"`
}

// Search implements tool.Func.
func (w *Wikipedia) Search(ctx context.Context, params map[string]any) (map[string]any, error) {
	query, _ := params["query"].(string)
	if query == "" {
		return wikipediaError(query, fmt.Errorf("query must not be empty")), nil
	}

	language, _ := params["language"].(string)
	if language == "" {
		language = "en"
	}

	values := url.Values{}
	values.Set("action", "query")
	values.Set("format", "json")
	values.Set("generator", "search")
	values.Set("gsrsearch", query)
	values.Set("gsrlimit", "3")
	values.Set("prop", "extracts|info")
	values.Set("exintro", "1")
	values.Set("explaintext", "1")
	values.Set("inprop", "url")

	endpoint := fmt.Sprintf(w.baseURL, language) + "?" + values.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return wikipediaError(query, err), nil
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return wikipediaError(query, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wikipediaError(query, fmt.Errorf("wikipedia API returned status %d", resp.StatusCode)), nil
	}

	var parsed wikipediaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return wikipediaError(query, err), nil
	}

	results := make([]map[string]any, 0, len(parsed.Query.Pages))
	for _, page := range parsed.Query.Pages {
		summary := page.Extract
		if len(summary) > 500 {
			summary = summary[:500] + "..."
		}
		results = append(results, map[string]any{
			"title":   page.Title,
			"summary": summary,
			"url":     page.FullURL,
		})
	}

	return map[string]any{
		"status":        "success",
		"query":         query,
		"language":      language,
		"results":       results,
		"total_results": len(results),
	}, nil
}

func wikipediaError(query string, err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
		"query":  query,
	}
}
