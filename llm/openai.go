// OpenAI Provider implementation using go-openai library.
//
// Information Hiding:
// - API endpoint and authentication
// - Request/response format for OpenAI Chat Completions API
// - Streaming tool-call delta accumulation

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements the Provider interface for OpenAI.
// An alternate base URL may be configured for OpenAI-compatible endpoints.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewOpenAIProvider creates a new OpenAI provider.
func NewOpenAIProvider(opts Options) *OpenAIProvider {
	var client *openai.Client
	if opts.BaseURL != "" {
		config := openai.DefaultConfig(opts.APIKey)
		config.BaseURL = opts.BaseURL
		client = openai.NewClientWithConfig(config)
	} else {
		client = openai.NewClient(opts.APIKey)
	}

	return &OpenAIProvider{
		client:      client,
		model:       opts.Model,
		maxTokens:   int(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Model returns the current model.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// StreamTurn runs one streaming chat completion with tool definitions,
// forwarding text deltas and accumulating tool-call fragments by index.
func (p *OpenAIProvider) StreamTurn(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, deltas chan<- string) (*Turn, error) {
	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    convertToOpenAIMessages(messages),
		MaxTokens:   p.maxTokens,
		Temperature: p.temperature,
		Stream:      true,
		StreamOptions: &openai.StreamOptions{
			IncludeUsage: true,
		},
	}
	if len(tools) > 0 {
		req.Tools = convertToOpenAITools(tools)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("stream creation failed: %w", err)
	}
	defer stream.Close()

	turn := &Turn{}
	acc := newToolCallAccumulator()

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			turn.ToolCalls = acc.calls()
			return turn, nil
		}
		if err != nil {
			return nil, fmt.Errorf("stream recv failed: %w", err)
		}

		// Usage arrives on a trailing chunk with no choices
		if response.Usage != nil {
			turn.Usage = &TokenUsage{
				PromptTokens:     uint32(response.Usage.PromptTokens),
				CompletionTokens: uint32(response.Usage.CompletionTokens),
				TotalTokens:      uint32(response.Usage.TotalTokens),
			}
		}

		if len(response.Choices) == 0 {
			continue
		}
		delta := response.Choices[0].Delta

		for _, tc := range delta.ToolCalls {
			acc.add(tc)
		}

		if delta.Content != "" {
			turn.Content += delta.Content
			select {
			case deltas <- delta.Content:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
}

// toolCallAccumulator reassembles streamed tool-call fragments. The first
// fragment for a call carries its index, ID, and name; subsequent fragments
// carry argument pieces keyed by the same index.
type toolCallAccumulator struct {
	byIndex map[int]*ToolCall
	order   []int
}

func newToolCallAccumulator() *toolCallAccumulator {
	return &toolCallAccumulator{byIndex: make(map[int]*ToolCall)}
}

func (a *toolCallAccumulator) add(tc openai.ToolCall) {
	idx := 0
	if tc.Index != nil {
		idx = *tc.Index
	}

	call, ok := a.byIndex[idx]
	if !ok {
		call = &ToolCall{}
		a.byIndex[idx] = call
		a.order = append(a.order, idx)
	}
	if tc.ID != "" {
		call.ID = tc.ID
	}
	if tc.Function.Name != "" {
		call.Name = tc.Function.Name
	}
	if tc.Function.Arguments != "" {
		call.Arguments = append(call.Arguments, tc.Function.Arguments...)
	}
}

func (a *toolCallAccumulator) calls() []ToolCall {
	if len(a.order) == 0 {
		return nil
	}
	result := make([]ToolCall, 0, len(a.order))
	for _, idx := range a.order {
		result = append(result, *a.byIndex[idx])
	}
	return result
}

// convertToOpenAIMessages converts our ChatMessage to openai.ChatCompletionMessage,
// carrying assistant tool calls and tool responses.
func convertToOpenAIMessages(messages []ChatMessage) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		oaiMsg := openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}

		for _, tc := range msg.ToolCalls {
			oaiMsg.ToolCalls = append(oaiMsg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(tc.Arguments),
				},
			})
		}

		if msg.ToolCallID != "" {
			oaiMsg.ToolCallID = msg.ToolCallID
		}

		result[i] = oaiMsg
	}
	return result
}

// convertToOpenAITools converts tool definitions to OpenAI format.
func convertToOpenAITools(tools []ToolDefinition) []openai.Tool {
	result := make([]openai.Tool, len(tools))
	for i, t := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		}
	}
	return result
}

// Verify OpenAIProvider implements Provider
var _ Provider = (*OpenAIProvider)(nil)
