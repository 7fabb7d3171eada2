// Package tools provides tool management and registration.
//
// Information Hiding:
// - Tool storage and lookup implementation hidden
// - Tool lifecycle management hidden
// - Registration and discovery mechanisms abstracted

package tools

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry manages available tools with dynamic registration.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new empty tool registry.
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register adds a new tool to the registry.
// Returns error if a tool with the same name already exists.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := tool.Metadata().Name
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool '%s' already registered", name)
	}
	r.tools[name] = tool
	return nil
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tool, exists := r.tools[name]
	return tool, exists
}

// Has checks if a tool exists in the registry.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.tools[name]
	return exists
}

// Names returns all registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns metadata for all registered tools, ordered by name.
func (r *Registry) List() []ToolMetadata {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	metadata := make([]ToolMetadata, 0, len(names))
	for _, name := range names {
		metadata = append(metadata, r.tools[name].Metadata())
	}
	return metadata
}

// Description returns a formatted description of all tools.
func (r *Registry) Description() string {
	var descriptions []string
	for _, meta := range r.List() {
		var params []string
		for _, p := range meta.Parameters {
			required := "optional"
			if p.Required {
				required = "required"
			}
			params = append(params, fmt.Sprintf("  - %s (%s): %s [%s]",
				p.Name, p.ParamType, p.Description, required))
		}

		paramStr := strings.Join(params, "\n")
		descriptions = append(descriptions, fmt.Sprintf(
			"Tool: %s\nDescription: %s\nParameters:\n%s",
			meta.Name, meta.Description, paramStr))
	}

	return strings.Join(descriptions, "\n\n")
}

// Cache TTLs per tool. Prices go stale in a minute; fiscal-year statements
// hold for a day.
const (
	TTLPrice        = 60 * time.Second
	TTLHistory      = time.Hour
	TTLBalanceSheet = 24 * time.Hour
	TTLNews         = 10 * time.Minute
	TTLSearch       = 30 * time.Minute
)

// Wrapper decorates a tool, typically with TTL memoization.
type Wrapper interface {
	Wrap(tool Tool, ttl time.Duration) Tool
}

// WithDefaults creates a registry holding the five data tools, each wrapped
// by the given cache wrapper when one is provided.
// Returns error if any tool registration fails.
func WithDefaults(market MarketData, searcher Searcher, cache Wrapper) (*Registry, error) {
	registry := NewRegistry()

	wrap := func(tool Tool, ttl time.Duration) Tool {
		if cache == nil {
			return tool
		}
		return cache.Wrap(tool, ttl)
	}

	tools := []Tool{
		wrap(NewStockPriceTool(market), TTLPrice),
		wrap(NewHistoricalPriceTool(market), TTLHistory),
		wrap(NewBalanceSheetTool(market), TTLBalanceSheet),
		wrap(NewStockNewsTool(market), TTLNews),
		wrap(NewWebSearchTool(searcher), TTLSearch),
	}

	for _, t := range tools {
		if err := registry.Register(t); err != nil {
			return nil, fmt.Errorf("failed to register default tools: %w", err)
		}
	}

	return registry, nil
}
