package builtin

import (
	"github.com/hupe1980/planmesh/tool"
)

// Options configure the default tool set.
type Options struct {
	// SerperAPIKey authenticates web searches against Serper.dev.
	SerperAPIKey string
	// WebSearch overrides the default web search tool, for testing.
	WebSearch *WebSearch
	// Wikipedia overrides the default Wikipedia tool, for testing.
	Wikipedia *Wikipedia
	// WebpageReader overrides the default webpage reader, for testing.
	WebpageReader *WebpageReader
}

// Register wires the default tool set into the given registry.
func Register(registry *tool.Registry, optFns ...func(o *Options)) {
	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	search := opts.WebSearch
	if search == nil {
		search = NewWebSearch(opts.SerperAPIKey)
	}
	wiki := opts.Wikipedia
	if wiki == nil {
		wiki = NewWikipedia()
	}
	reader := opts.WebpageReader
	if reader == nil {
		reader = NewWebpageReader()
	}

	registry.Register(WebSearchConfig(), search.Search)
	registry.Register(WikipediaConfig(), wiki.Search)
	registry.Register(CalculatorConfig(), Calculate)
	registry.Register(WebpageConfig(), reader.Read)
	registry.Register(DocumentSearchConfig(), SearchDocuments)
}
