package builtin

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/hupe1980/planmesh/tool"
)

const maxPageTextLength = 4000

// WebpageConfig describes the read_webpage tool.
func WebpageConfig() tool.Config {
	return tool.Config{
		Name:         "read_webpage",
		FunctionName: "read_webpage",
		Description:  "Fetch a webpage and extract its title, text content and links",
		Parameters: map[string]any{
			"url": map[string]any{
				"type":        "string",
				"required":    true,
				"description": "URL of the page to read",
			},
		},
		PriceUSD:     0.0,
		Capabilities: []string{"web scraping", "content extraction"},
	}
}

// WebpageReader fetches a page and extracts title, body text and outgoing
// links. Failures are reported in the payload, never as a Go error.
type WebpageReader struct {
	client *http.Client
}

// WebpageReaderOptions holds the options for a WebpageReader.
type WebpageReaderOptions struct {
	// HTTPClient overrides the HTTP client used for requests.
	HTTPClient *http.Client
}

// NewWebpageReader creates a webpage extraction tool.
func NewWebpageReader(optFns ...func(o *WebpageReaderOptions)) *WebpageReader {
	opts := WebpageReaderOptions{
		HTTPClient: &http.Client{Timeout: 20 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &WebpageReader{client: opts.HTTPClient}
}

// Read implements tool.Func.
func (w *WebpageReader) Read(ctx context.Context, params map[string]any) (map[string]any, error) {
	pageURL, _ := params["url"].(string)
	if pageURL == "" {
		return webpageError(pageURL, fmt.Errorf("url must not be empty")), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return webpageError(pageURL, err), nil
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return webpageError(pageURL, err), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return webpageError(pageURL, fmt.Errorf("page returned status %d", resp.StatusCode)), nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return webpageError(pageURL, err), nil
	}

	doc.Find("script, style, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	text := strings.Join(strings.Fields(doc.Find("body").Text()), " ")
	if len(text) > maxPageTextLength {
		text = text[:maxPageTextLength] + "..."
	}

	links := make([]map[string]any, 0, 20)
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if !strings.HasPrefix(href, "http") {
			return true
		}
		links = append(links, map[string]any{
			"text": strings.TrimSpace(s.Text()),
			"url":  href,
		})
		return len(links) < 20
	})

	return map[string]any{
		"status": "success",
		"url":    pageURL,
		"title":  title,
		"text":   text,
		"links":  links,
	}, nil
}

func webpageError(pageURL string, err error) map[string]any {
	return map[string]any{
		"status": "error",
		"error":  err.Error(),
		"url":    pageURL,
	}
}
