// Package anthropic implements model.Caller using the Anthropic Messages
// API. System turns are lifted into the request's system blocks; provider
// failures are mapped to model.CallError.
package anthropic

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/hupe1980/planmesh/model"
)

// Options configure the Anthropic caller (model id, temperature, max tokens,
// API key). Values from model.Config override them per call.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Caller wraps the Anthropic Messages API behind the generic model.Caller
// interface.
type Caller struct {
	client *anthropic.Client
	opts   Options
}

// NewCaller creates a new Anthropic caller using the official client.
func NewCaller(optFns ...func(o *Options)) *Caller {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Caller{client: &client, opts: opts}
}

// NewCallerFromClient creates a new Anthropic caller from an existing client.
func NewCallerFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Caller {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Caller{client: client, opts: opts}
}

// Call implements model.Caller.
func (c *Caller) Call(ctx context.Context, cfg model.Config, messages []model.Message) (*model.Response, error) {
	name := c.opts.Model
	if cfg.Name != "" {
		name = anthropic.Model(cfg.Name)
	}
	temperature := c.opts.Temperature
	if cfg.Temperature > 0 {
		temperature = cfg.Temperature
	}
	maxTokens := c.opts.MaxTokens
	if cfg.MaxTokens > 0 {
		maxTokens = int64(cfg.MaxTokens)
	}

	params := anthropic.MessageNewParams{
		Model:       name,
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(temperature),
	}

	for _, msg := range messages {
		switch msg.Role {
		case "system":
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case "assistant":
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, model.NewCallError("anthropic", string(name), err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	if content == "" && len(resp.Content) == 0 {
		return nil, model.NewCallError("anthropic", string(name), fmt.Errorf("empty response content"))
	}

	return &model.Response{
		Content:    content,
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		Model:      string(resp.Model),
	}, nil
}
