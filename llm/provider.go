// Package llm provides LLM provider abstractions.
//
// LLM Provider interface - the abstract interface for LLM providers.
// Each provider implementation hides:
// - API client initialization and authentication
// - Request/response format conversion
// - Streaming protocol details (SSE deltas, event accumulation)
// - Provider-specific usage reporting

package llm

import (
	"context"
)

// Provider defines the abstract interface for LLM providers.
// Implementations hide provider-specific details while exposing
// a consistent interface for streaming tool-using chat turns.
type Provider interface {
	// Name returns the provider name (for logging/debugging).
	Name() string

	// Model returns the current model being used.
	Model() string

	// StreamTurn runs a single model turn with the given tool definitions.
	// Incremental text is sent to deltas in arrival order as it is produced;
	// the channel is owned by the caller and never closed by the provider.
	// Sends must honor ctx cancellation. The returned Turn carries the full
	// accumulated text, any tool calls the model requested, and token usage
	// when the provider reports it.
	StreamTurn(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, deltas chan<- string) (*Turn, error)
}
