// Package openai implements model.Caller using the OpenAI Chat Completions
// API. It adapts the engine's normalized message format into the SDK's
// parameter types and maps provider failures to model.CallError.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/planmesh/model"
)

// Options configure the OpenAI caller. Fields mirror a minimal subset of the
// Chat Completion parameters; values from model.Config override them per call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// Caller wraps the OpenAI Chat Completions API behind the generic
// model.Caller interface.
type Caller struct {
	client *openai.Client
	opts   Options
}

// NewCaller creates a new OpenAI caller using the official client.
func NewCaller(optFns ...func(o *Options)) *Caller {
	opts := Options{
		Model:       openai.ChatModelGPT4oMini,
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
	client := openai.NewClient(clientOpts...)

	return &Caller{client: &client, opts: opts}
}

// NewCallerFromClient creates a new OpenAI caller from an existing client.
func NewCallerFromClient(client *openai.Client, optFns ...func(o *Options)) *Caller {
	opts := Options{
		Model:       openai.ChatModelGPT4oMini,
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
	name := cfg.Name
	if name == "" {
		name = c.opts.Model
	}
	temperature := c.opts.Temperature
	if cfg.Temperature > 0 {
		temperature = cfg.Temperature
	}
	maxTokens := c.opts.MaxTokens
	if cfg.MaxTokens > 0 {
		maxTokens = int64(cfg.MaxTokens)
	}

	params := openai.ChatCompletionNewParams{
		Model:               name,
		Messages:            buildMessages(messages),
		Temperature:         openai.Float(temperature),
		MaxCompletionTokens: openai.Int(maxTokens),
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, model.NewCallError("openai", name, err)
	}
	if len(resp.Choices) == 0 {
		return nil, model.NewCallError("openai", name, fmt.Errorf("no choices returned"))
	}

	return &model.Response{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
		Model:      resp.Model,
	}, nil
}

// buildMessages converts normalized messages into OpenAI chat messages.
func buildMessages(messages []model.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			out = append(out, openai.SystemMessage(msg.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
