package llm

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockConfig configures a BedrockProvider.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
	MaxRetries      int
	RetryDelay      time.Duration
}

// BedrockProvider implements Provider against AWS Bedrock's Converse
// streaming API, so the same provider covers every foundation model
// Bedrock hosts (Claude, Titan, Llama) without a per-model adapter.
type BedrockProvider struct {
	client       *bedrockruntime.Client
	defaultModel string
	maxRetries   int
	retryDelay   time.Duration
}

// NewBedrockProvider builds a Provider backed by bedrockruntime,
// loading AWS credentials from the explicit config fields if present,
// else falling back to the default credential chain.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "anthropic.claude-3-sonnet-20240229-v1:0"
	}

	var awsCfg aws.Config
	var err error
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg, err = config.LoadDefaultConfig(ctx,
			config.WithRegion(cfg.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken,
			)),
		)
	} else {
		awsCfg, err = config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	}
	if err != nil {
		return nil, fmt.Errorf("llm: bedrock config load failed: %w", err)
	}

	return &BedrockProvider{
		client:       bedrockruntime.NewFromConfig(awsCfg),
		defaultModel: cfg.DefaultModel,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

func (p *BedrockProvider) Name() string { return "bedrock" }

func (p *BedrockProvider) Models() []Model {
	return []Model{
		{ID: "anthropic.claude-3-sonnet-20240229-v1:0", Name: "Claude 3 Sonnet (Bedrock)", ContextSize: 200000},
		{ID: "anthropic.claude-3-haiku-20240307-v1:0", Name: "Claude 3 Haiku (Bedrock)", ContextSize: 200000},
		{ID: "amazon.titan-text-express-v1", Name: "Titan Text Express", ContextSize: 8192},
		{ID: "meta.llama3-70b-instruct-v1:0", Name: "Llama 3 70B (Bedrock)", ContextSize: 8192},
	}
}

func (p *BedrockProvider) model(req *CompletionRequest) string {
	if req.Model != "" {
		return req.Model
	}
	return p.defaultModel
}

func (p *BedrockProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	model := p.model(req)

	var messages []types.Message
	for _, m := range req.Messages {
		role := types.ConversationRoleUser
		if m.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		messages = append(messages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: m.Content}},
		})
	}

	converseReq := &bedrockruntime.ConverseStreamInput{
		ModelId:  aws.String(model),
		Messages: messages,
	}
	if req.System != "" {
		converseReq.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	if req.MaxTokens > 0 {
		tokens := req.MaxTokens
		if tokens > math.MaxInt32 {
			tokens = math.MaxInt32
		}
		converseReq.InferenceConfig = &types.InferenceConfiguration{MaxTokens: aws.Int32(int32(tokens))}
	}

	var stream *bedrockruntime.ConverseStreamOutput
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		stream, lastErr = p.client.ConverseStream(ctx, converseReq)
		if lastErr == nil {
			break
		}
		if attempt == p.maxRetries {
			break
		}
		backoff := time.Duration(float64(p.retryDelay) * math.Pow(2, float64(attempt)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("llm: bedrock stream failed: %w", lastErr)
	}

	out := make(chan *CompletionChunk)
	go p.pump(ctx, stream, out)
	return out, nil
}

func (p *BedrockProvider) pump(ctx context.Context, stream *bedrockruntime.ConverseStreamOutput, out chan<- *CompletionChunk) {
	defer close(out)
	eventStream := stream.GetStream()
	defer eventStream.Close()

	events := eventStream.Events()
	for {
		select {
		case <-ctx.Done():
			out <- &CompletionChunk{Error: ctx.Err()}
			return
		case event, ok := <-events:
			if !ok {
				if err := eventStream.Err(); err != nil {
					out <- &CompletionChunk{Error: err}
				} else {
					out <- &CompletionChunk{Done: true}
				}
				return
			}
			switch ev := event.(type) {
			case *types.ConverseStreamOutputMemberContentBlockDelta:
				if textDelta, ok := ev.Value.Delta.(*types.ContentBlockDeltaMemberText); ok && textDelta.Value != "" {
					out <- &CompletionChunk{Text: textDelta.Value}
				}
			case *types.ConverseStreamOutputMemberMessageStop:
				out <- &CompletionChunk{Done: true}
				return
			}
		}
	}
}
