// Agent configuration types.
//
// Information Hiding:
// - Configuration validation logic hidden
// - Default values hidden

package agent

import (
	"github.com/richinex/plutus/tools"
)

// Config holds agent configuration.
type Config struct {
	// SystemPrompt guides the agent's behavior. Empty means no system
	// message is seeded into new threads.
	SystemPrompt string

	// MaxIterations bounds the think-act loop per request.
	MaxIterations int

	// ToolConfig controls tool execution (per-call timeout).
	ToolConfig tools.ToolConfig
}

// DefaultConfig returns a basic agent configuration.
func DefaultConfig() Config {
	return Config{
		MaxIterations: 10,
		ToolConfig:    tools.DefaultToolConfig(),
	}
}

// HasSystemPrompt returns true if a system prompt is configured.
func (c *Config) HasSystemPrompt() bool {
	return c.SystemPrompt != ""
}
