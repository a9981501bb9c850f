package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

// AnthropicConfig configures an AnthropicProvider.
type AnthropicConfig struct {
	APIKey       string
	BaseURL      string
	DefaultModel string
	MaxRetries   int
	RetryDelay   time.Duration
}

// AnthropicProvider implements Provider against Claude models.
type AnthropicProvider struct {
	client       anthropic.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// NewAnthropicProvider builds a Provider from config, applying the same
// defaults the rest of this package uses: 3 retries, 1s base backoff,
// claude-sonnet-4-20250514 as the fallback model.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm: anthropic API key is required")
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "claude-sonnet-4-20250514"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicProvider{
		client:       anthropic.NewClient(opts...),
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Models() []Model {
	return []Model{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", ContextSize: 200000},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", ContextSize: 200000},
		{ID: "claude-3-5-sonnet-20241022", Name: "Claude 3.5 Sonnet", ContextSize: 200000},
		{ID: "claude-3-haiku-20240307", Name: "Claude 3 Haiku", ContextSize: 200000},
	}
}

func (p *AnthropicProvider) model(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func (p *AnthropicProvider) maxTokens(req *CompletionRequest) int64 {
	if req.MaxTokens > 0 {
		return int64(req.MaxTokens)
	}
	return 4096
}

// Complete streams a chat response, retrying transient failures (rate
// limits, 5xx, timeouts) with exponential backoff before giving up.
func (p *AnthropicProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	out := make(chan *CompletionChunk)

	go func() {
		defer close(out)

		params := anthropic.MessageNewParams{
			Model:     anthropic.Model(p.model(req)),
			MaxTokens: p.maxTokens(req),
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Type: "text", Text: req.System}}
		}
		for _, m := range req.Messages {
			switch m.Role {
			case "assistant":
				params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
			default:
				params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}

		var stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
		var lastErr error
		for attempt := 0; attempt <= p.maxRetries; attempt++ {
			stream = p.client.Messages.NewStreaming(ctx, params)
			// The SDK reports connection failures on the first Next() call,
			// not on NewStreaming itself, so probe it before committing.
			if stream.Next() {
				lastErr = nil
				break
			}
			lastErr = stream.Err()
			if lastErr == nil {
				break
			}
			if attempt == p.maxRetries {
				break
			}
			backoff := time.Duration(float64(p.retryDelay) * math.Pow(2, float64(attempt)))
			select {
			case <-ctx.Done():
				out <- &CompletionChunk{Error: ctx.Err()}
				return
			case <-time.After(backoff):
			}
		}
		if lastErr != nil {
			out <- &CompletionChunk{Error: fmt.Errorf("llm: anthropic stream failed: %w", lastErr)}
			return
		}

		var inputTokens, outputTokens int
		processEvent := func(event anthropic.MessageStreamEventUnion) {
			switch event.Type {
			case "message_start":
				ms := event.AsMessageStart()
				inputTokens = int(ms.Message.Usage.InputTokens)
			case "content_block_delta":
				delta := event.AsContentBlockDelta().Delta
				if delta.Text != "" {
					out <- &CompletionChunk{Text: delta.Text}
				}
			case "message_delta":
				md := event.AsMessageDelta()
				if md.Usage.OutputTokens > 0 {
					outputTokens = int(md.Usage.OutputTokens)
				}
			}
		}

		processEvent(stream.Current())
		for stream.Next() {
			processEvent(stream.Current())
		}
		if err := stream.Err(); err != nil {
			out <- &CompletionChunk{Error: fmt.Errorf("llm: anthropic stream error: %w", err)}
			return
		}
		out <- &CompletionChunk{Done: true, InputTokens: inputTokens, OutputTokens: outputTokens}
	}()

	return out, nil
}
