// LLM provider factory - selects and constructs a provider from configuration.

package llm

import (
	"fmt"
	"os"
	"strings"
)

// ProviderType represents supported LLM providers.
type ProviderType int

const (
	// ProviderOpenAI is the OpenAI provider (GPT models).
	ProviderOpenAI ProviderType = iota
	// ProviderAnthropic is the Anthropic provider (Claude models).
	ProviderAnthropic
	// ProviderDeepSeek is the DeepSeek provider.
	ProviderDeepSeek
	// ProviderGemini is the Google Gemini provider.
	ProviderGemini
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	switch p {
	case ProviderOpenAI:
		return "openai"
	case ProviderAnthropic:
		return "anthropic"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderGemini:
		return "gemini"
	default:
		return "unknown"
	}
}

// EnvVar returns the environment variable name for this provider's API key.
func (p ProviderType) EnvVar() string {
	switch p {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	case ProviderDeepSeek:
		return "DEEPSEEK_API_KEY"
	case ProviderGemini:
		return "GEMINI_API_KEY"
	default:
		return ""
	}
}

// ParseProviderType parses a provider from string (case-insensitive).
func ParseProviderType(s string) (ProviderType, error) {
	switch strings.ToLower(s) {
	case "openai", "gpt":
		return ProviderOpenAI, nil
	case "anthropic", "claude":
		return ProviderAnthropic, nil
	case "deepseek":
		return ProviderDeepSeek, nil
	case "gemini", "google":
		return ProviderGemini, nil
	default:
		return 0, fmt.Errorf("unknown provider: %s", s)
	}
}

// Options holds provider construction parameters.
type Options struct {
	APIKey      string
	Model       string
	BaseURL     string // OpenAI-compatible endpoints only; empty uses the provider default
	MaxTokens   uint32
	Temperature float32
}

// New constructs a provider of the given type. An empty APIKey falls back to
// the provider's environment variable.
func New(providerType ProviderType, opts Options) (Provider, error) {
	if opts.APIKey == "" {
		opts.APIKey = os.Getenv(providerType.EnvVar())
	}
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%s: API key is empty and %s is not set",
			providerType, providerType.EnvVar())
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("%s: model name is empty", providerType)
	}
	if opts.MaxTokens == 0 {
		opts.MaxTokens = 2000
	}

	switch providerType {
	case ProviderOpenAI:
		return NewOpenAIProvider(opts), nil
	case ProviderAnthropic:
		return NewAnthropicProvider(opts), nil
	case ProviderDeepSeek:
		return NewDeepSeekProvider(opts), nil
	case ProviderGemini:
		return NewGeminiProvider(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider type: %v", providerType)
	}
}
