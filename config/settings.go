// Package config provides application settings loaded from environment variables.
//
// Settings are created via Load() which handles:
// - Environment variable parsing with validation
// - Default value application
// - Provider-specific API key lookup

package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
)

// Settings holds all application configuration.
type Settings struct {
	LLM        LLMConfig
	Agent      AgentConfig
	Server     ServerConfig
	Search     SearchConfig
	MarketData MarketDataConfig

	// PromptPath is the TOML file holding the system prompt.
	PromptPath string
	// RedisURL enables the tool result cache when set.
	RedisURL string
	// ConversationDB selects SQLite conversation storage when set;
	// empty keeps conversations in memory.
	ConversationDB string
}

// LLMConfig holds LLM provider configuration.
type LLMConfig struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   uint32
	Temperature float64
}

// AgentConfig holds agent execution configuration.
type AgentConfig struct {
	MaxIterations   int
	ToolTimeoutSecs uint64
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr        string
	CORSOrigins []string
}

// SearchConfig holds web search provider configuration.
type SearchConfig struct {
	APIKey  string
	BaseURL string
}

// MarketDataConfig holds market data provider configuration.
type MarketDataConfig struct {
	BaseURL string
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	apiKeyEnv string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_API_KEY"},
	"anthropic": {"ANTHROPIC_API_KEY"},
	"deepseek":  {"DEEPSEEK_API_KEY"},
	"gemini":    {"GEMINI_API_KEY"},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// Load reads settings from environment variables, applying defaults and
// validating required values. Every missing required variable is collected
// and reported in one error so a fresh deployment can be fixed in a single
// pass.
func Load() (Settings, error) {
	provider := normalizeProvider(getEnv("LLM_PROVIDER", "openai"))
	info, ok := providers[provider]
	if !ok {
		return Settings{}, fmt.Errorf("unknown LLM_PROVIDER %q (supported: %s)",
			provider, strings.Join(SupportedProviders(), ", "))
	}

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", 2000)
	if err != nil {
		return Settings{}, err
	}
	temperature, err := getEnvFloat64("LLM_TEMPERATURE", 0.3)
	if err != nil {
		return Settings{}, err
	}
	maxIterations, err := getEnvInt("AGENT_MAX_ITERATIONS", 10)
	if err != nil {
		return Settings{}, err
	}
	toolTimeout, err := getEnvUint64("TOOL_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Settings{}, err
	}

	settings := Settings{
		LLM: LLMConfig{
			Provider:    provider,
			Model:       os.Getenv("LLM_NAME"),
			APIKey:      os.Getenv(info.apiKeyEnv),
			BaseURL:     os.Getenv("LLM_BASE_URL"),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		},
		Agent: AgentConfig{
			MaxIterations:   maxIterations,
			ToolTimeoutSecs: toolTimeout,
		},
		Server: ServerConfig{
			Addr:        getEnv("SERVER_ADDR", ":8888"),
			CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
		},
		Search: SearchConfig{
			APIKey:  os.Getenv("TAVILY_API_KEY"),
			BaseURL: os.Getenv("SEARCH_BASE_URL"),
		},
		MarketData: MarketDataConfig{
			BaseURL: os.Getenv("MARKET_DATA_BASE_URL"),
		},
		PromptPath:     getEnv("PROMPT_PATH", "prompt.toml"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ConversationDB: os.Getenv("CONVERSATION_DB"),
	}

	var missing []string
	if settings.LLM.Model == "" {
		missing = append(missing, "LLM_NAME")
	}
	if settings.LLM.APIKey == "" {
		missing = append(missing, info.apiKeyEnv)
	}
	if len(missing) > 0 {
		return Settings{}, fmt.Errorf("missing required configuration: %s (set them in the environment or a .env file)",
			strings.Join(missing, ", "))
	}

	return settings, nil
}

// MustLoad loads settings, panicking on error.
// Use this only when configuration errors should be fatal.
func MustLoad() Settings {
	settings, err := Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// SupportedProviders returns the sorted list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// splitList splits a comma-separated value, trimming whitespace and
// dropping empty entries.
func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// Environment variable helpers with proper error handling

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvUint64(key string, defaultVal uint64) (uint64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return i, nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return f, nil
}
