package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSearchReturnsTopFiveResults(t *testing.T) {
	var gotAPIKey string
	var gotQuery string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("X-API-KEY")
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		gotQuery = body["q"]

		organic := make([]map[string]string, 7)
		for i := range organic {
			organic[i] = map[string]string{
				"title":       "result",
				"snippet":     "snippet",
				"link":        "https://example.com",
				"displayLink": "example.com",
			}
		}
		json.NewEncoder(w).Encode(map[string]any{"organic": organic})
	}))
	defer server.Close()

	search := NewWebSearch("secret", func(o *WebSearchOptions) {
		o.Endpoint = server.URL
	})

	out, err := search.Search(context.Background(), map[string]any{"query": "go testing"})
	require.NoError(t, err)

	assert.Equal(t, "secret", gotAPIKey)
	assert.Equal(t, "go testing", gotQuery)
	assert.Equal(t, "success", out["status"])
	assert.Equal(t, 5, out["total_results"])
	assert.Len(t, out["results"], 5)
}

func TestWebSearchEmptyQuery(t *testing.T) {
	search := NewWebSearch("secret")

	out, err := search.Search(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
}

func TestWebSearchAPIErrorInPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	search := NewWebSearch("secret", func(o *WebSearchOptions) {
		o.Endpoint = server.URL
	})

	out, err := search.Search(context.Background(), map[string]any{"query": "q"})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
	assert.Contains(t, out["error"], "403")
}

func TestWebpageReaderExtractsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head><title>Test Page</title><script>ignore()</script></head>
<body><p>Hello world</p><a href="https://example.com/next">Next</a><a href="/relative">Skip</a></body></html>`))
	}))
	defer server.Close()

	reader := NewWebpageReader()

	out, err := reader.Read(context.Background(), map[string]any{"url": server.URL})
	require.NoError(t, err)

	assert.Equal(t, "success", out["status"])
	assert.Equal(t, "Test Page", out["title"])
	assert.Contains(t, out["text"], "Hello world")
	assert.NotContains(t, out["text"], "ignore()")

	links := out["links"].([]map[string]any)
	require.Len(t, links, 1)
	assert.Equal(t, "https://example.com/next", links[0]["url"])
}

func TestWebpageReaderErrorStatusInPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	reader := NewWebpageReader()

	out, err := reader.Read(context.Background(), map[string]any{"url": server.URL})
	require.NoError(t, err)
	assert.Equal(t, "error", out["status"])
}
