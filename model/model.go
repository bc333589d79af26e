package model

import (
	"context"

	"github.com/hupe1980/actionweave/core"
)

// Normalized finish reasons. Providers map their vendor values onto these.
const (
	FinishReasonStop          = "stop"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonLength        = "length"
	FinishReasonContentFilter = "content_filter"
)

// ToolDefinition declaratively exposes a callable function to the model.
type ToolDefinition struct {
	Type     string             `json:"type"` // "function"
	Function FunctionDefinition `json:"function"`
}

// FunctionDefinition describes an individual function (tool) exposed to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolChoiceType selects how the model may use the offered tools.
type ToolChoiceType string

const (
	// ToolChoiceAuto lets the model call any offered tool or reply in text.
	ToolChoiceAuto ToolChoiceType = "auto"
	// ToolChoiceNone forbids tool calls.
	ToolChoiceNone ToolChoiceType = "none"
	// ToolChoiceFunction compels a call of the named function.
	ToolChoiceFunction ToolChoiceType = "function"
)

// ToolChoice is the provider-neutral tool_choice directive.
type ToolChoice struct {
	Type ToolChoiceType `json:"type"`
	Name string         `json:"name,omitempty"` // Set for ToolChoiceFunction
}

// Request captures the normalized model input produced by the dispatch loop.
type Request struct {
	Instructions string           `json:"instructions"` // Instructions for the model
	Contents     []core.Content   `json:"contents"`     // Transcript converted to provider messages
	Tools        []ToolDefinition `json:"tools,omitempty"`
	ToolChoice   *ToolChoice      `json:"tool_choice,omitempty"` // nil = provider default
	Stream       bool             `json:"stream,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a (partial or final) chunk emitted by a model.
//
// Partial responses carry Delta, the raw incremental fragment in chat
// completion delta shape ({"role", "content", "tool_calls": [{"index", "id",
// "function": {"name", "arguments"}}]}). Content mirrors any text of the
// fragment so live consumers can print it directly.
type Response struct {
	ID           string         `json:"id"`
	Partial      bool           `json:"partial"` // Indicates if this is a partial response
	Content      core.Content   `json:"content"`
	Delta        map[string]any `json:"delta,omitempty"`
	FinishReason string         `json:"finish_reason"` // "stop", "length", "tool_calls", etc.
	Usage        *TokenUsage    `json:"usage,omitempty"`
}

// DeltaText returns the textual content of a partial delta and whether the
// delta carries a text field at all (an empty string counts, null does not).
func (r Response) DeltaText() (string, bool) {
	if r.Delta == nil {
		return "", false
	}

	s, ok := r.Delta["content"].(string)

	return s, ok
}

// Info contains metadata about a model implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "mock", etc.
	SupportsTools bool   `json:"supports_tools"`
}

// Model is the minimal interface required to drive generation. Both channels
// are closed when generation ends; at most one error is sent.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}
