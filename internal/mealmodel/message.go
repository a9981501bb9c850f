package mealmodel

import "time"

// UserMessage is one inbound chat turn (spec.md §3).
type UserMessage struct {
	Text                string `json:"message"`
	SessionID           string `json:"session_id"`
	UserID              string `json:"user_id"`
	IsConfirmationReply bool   `json:"is_confirmation_reply"`
}

// ProgressEventKind enumerates the kinds of events the Progress Channel
// (C3) emits over a session's SSE stream.
type ProgressEventKind string

const (
	EventProgress  ProgressEventKind = "progress"
	EventComplete  ProgressEventKind = "complete"
	EventError     ProgressEventKind = "error"
	EventHeartbeat ProgressEventKind = "heartbeat"
	EventClose     ProgressEventKind = "close"
	EventConnected ProgressEventKind = "connected"
)

// ProgressEvent is one item on a session's Progress Channel.
type ProgressEvent struct {
	Kind      ProgressEventKind `json:"kind"`
	Payload   map[string]any    `json:"payload"`
	Timestamp time.Time         `json:"timestamp"`
}

// ToolDescriptor is the static catalog entry for one callable tool (C1).
type ToolDescriptor struct {
	Name            string                    `json:"name"`
	Server          string                    `json:"server"`
	Parameters      map[string]ParameterSpec  `json:"parameters"`
	MayBeAmbiguous  bool                      `json:"may_be_ambiguous"`
	SideEffecting   bool                      `json:"side_effecting"`
}

// ParameterSpec describes one parameter a tool accepts.
type ParameterSpec struct {
	Required bool   `json:"required"`
	Type     string `json:"type"` // "string", "number", "boolean", "object", "array"
}

// ToolResult is the uniform shape every tool dispatch returns
// (spec.md §6 "Tool-call contract").
type ToolResult struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Items   []map[string]any `json:"items,omitempty"`
}

// IsAmbiguityMarker reports whether this result is the distinguished
// "multiple candidates" ambiguity signal (spec.md §4.10 / §6).
func (r ToolResult) IsAmbiguityMarker() bool {
	return !r.Success && r.Error == "AMBIGUITY_DETECTED"
}
