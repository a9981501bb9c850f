// Package llm provides a provider-agnostic abstraction over chat model
// backends. The planner (internal/planner) is the only caller that
// matters for this module: it needs one backend-agnostic way to send a
// prompt and collect the full text reply. The streaming shape mirrors
// the donor agent runtime's own LLMProvider interface so swapping in a
// fourth backend never touches planner code.
package llm

import "context"

// Provider is a chat-completion backend.
type Provider interface {
	// Complete sends a prompt and returns a channel of incremental
	// chunks. The channel is closed when the stream ends; the final
	// chunk observed has Done set (possibly together with text), or
	// Error set if the stream failed.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name identifies the backend for logging and metrics.
	Name() string

	// Models lists the backend's available model identifiers.
	Models() []Model
}

// CompletionRequest is a single-turn or multi-turn chat request. The
// planner always sends one user message carrying the built prompt; the
// Messages slice exists so the same type serves multi-turn callers
// later without a breaking change.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

// Message is one turn of a conversation.
type Message struct {
	Role    string // "user", "assistant"
	Content string
}

// CompletionChunk is one increment of a streamed response.
type CompletionChunk struct {
	Text         string
	Done         bool
	Error        error
	InputTokens  int
	OutputTokens int
}

// Model describes a selectable model.
type Model struct {
	ID          string
	Name        string
	ContextSize int
}

// Collect drains chunks into a single string, returning the first
// error observed (if any). It is the shape the planner actually needs:
// it has no use for partial tokens, only the finished JSON document.
func Collect(chunks <-chan *CompletionChunk) (string, error) {
	var text string
	for chunk := range chunks {
		if chunk.Error != nil {
			return text, chunk.Error
		}
		text += chunk.Text
	}
	return text, nil
}
