// DeepSeek Provider implementation using go-openai library.
//
// Information Hiding:
// - Uses OpenAI-compatible API with different base URL
// - Supports deepseek-chat and deepseek-reasoner models
// - Streaming tool-call delta accumulation

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"

	openai "github.com/sashabaranov/go-openai"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekProvider implements the Provider interface for DeepSeek.
type DeepSeekProvider struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

// NewDeepSeekProvider creates a new DeepSeek provider.
func NewDeepSeekProvider(opts Options) *DeepSeekProvider {
	config := openai.DefaultConfig(opts.APIKey)
	config.BaseURL = deepseekBaseURL
	if opts.BaseURL != "" {
		config.BaseURL = opts.BaseURL
	}

	return &DeepSeekProvider{
		client:      openai.NewClientWithConfig(config),
		model:       opts.Model,
		maxTokens:   int(opts.MaxTokens),
		temperature: opts.Temperature,
	}
}

// Name returns the provider name.
func (p *DeepSeekProvider) Name() string {
	return "deepseek"
}

// Model returns the current model.
func (p *DeepSeekProvider) Model() string {
	return p.model
}

// StreamTurn runs one streaming chat completion against the DeepSeek API.
// The wire format matches OpenAI's, so delta handling is shared.
func (p *DeepSeekProvider) StreamTurn(ctx context.Context, messages []ChatMessage, tools []ToolDefinition, deltas chan<- string) (*Turn, error) {
	req := openai.ChatCompletionRequest{
		Model:               p.model,
		Messages:            convertToOpenAIMessages(messages),
		MaxCompletionTokens: p.maxTokens,
		Temperature:         p.temperature,
		Stream:              true,
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

// Verify DeepSeekProvider implements Provider
var _ Provider = (*DeepSeekProvider)(nil)
