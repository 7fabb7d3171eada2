// Agent assembly for CLI commands.
//
// Information Hiding:
// - Provider construction hidden
// - Tool wiring and cache decoration hidden
// - Storage selection hidden

package cli

import (
	"fmt"
	"log/slog"

	"github.com/richinex/plutus/agent"
	"github.com/richinex/plutus/cache"
	"github.com/richinex/plutus/config"
	"github.com/richinex/plutus/llm"
	"github.com/richinex/plutus/marketdata"
	"github.com/richinex/plutus/prompt"
	"github.com/richinex/plutus/search"
	"github.com/richinex/plutus/storage"
	"github.com/richinex/plutus/tools"
)

// BuildAgent assembles the process-wide agent from settings: LLM provider,
// data clients, cache-wrapped tools, conversation storage, system prompt.
func BuildAgent(settings config.Settings, logger *slog.Logger) (*agent.Agent, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider, err := buildProvider(settings.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	registry, err := buildRegistry(settings, logger)
	if err != nil {
		return nil, err
	}

	store, err := buildStorage(settings, logger)
	if err != nil {
		return nil, err
	}

	cfg := agent.NewBuilder().
		SystemPrompt(loadSystemPrompt(settings.PromptPath, logger)).
		MaxIterations(settings.Agent.MaxIterations).
		ToolTimeout(settings.Agent.ToolTimeoutSecs).
		Build()

	return agent.New(cfg, provider, registry, store).WithLogger(logger), nil
}

func buildProvider(cfg config.LLMConfig) (llm.Provider, error) {
	providerType, err := llm.ParseProviderType(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return llm.New(providerType, llm.Options{
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		BaseURL:     cfg.BaseURL,
		MaxTokens:   cfg.MaxTokens,
		Temperature: float32(cfg.Temperature),
	})
}

// buildRegistry wires the five data tools over the market-data and search
// clients. A configured Redis URL turns on TTL caching; the cache store is
// constructed unconditionally and degrades to passthrough on its own.
func buildRegistry(settings config.Settings, logger *slog.Logger) (*tools.Registry, error) {
	market := marketdata.NewClient(marketdata.Options{
		BaseURL: settings.MarketData.BaseURL,
	})
	searcher := search.NewClient(search.Options{
		APIKey:  settings.Search.APIKey,
		BaseURL: settings.Search.BaseURL,
	})
	cacheStore := cache.New(settings.RedisURL, logger)

	return tools.WithDefaults(market, searcher, cacheStore)
}

func buildStorage(settings config.Settings, logger *slog.Logger) (storage.ConversationStorage, error) {
	if settings.ConversationDB == "" {
		return storage.NewInMemoryStorage(), nil
	}
	store, err := storage.OpenSqlite(settings.ConversationDB)
	if err != nil {
		return nil, fmt.Errorf("failed to open conversation database: %w", err)
	}
	logger.Info("conversation storage enabled", "path", settings.ConversationDB)
	return store, nil
}

// loadSystemPrompt reads the prompt file. A missing or broken file is never
// fatal; the agent runs without a system prompt.
func loadSystemPrompt(path string, logger *slog.Logger) string {
	text, err := prompt.Load(path)
	if err != nil {
		logger.Warn("system prompt unavailable, continuing without one",
			"path", path,
			"error", err)
		return ""
	}
	return text
}
