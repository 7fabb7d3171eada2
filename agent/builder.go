// Agent builder for fluent configuration.
//
// Information Hiding:
// - Builder state management hidden
// - Default value application hidden

package agent

import (
	"github.com/richinex/plutus/tools"
)

// Builder provides fluent configuration for creating agent configs.
type Builder struct {
	systemPrompt  string
	maxIterations int
	toolConfig    tools.ToolConfig
}

// NewBuilder creates a new agent builder.
func NewBuilder() *Builder {
	defaults := DefaultConfig()
	return &Builder{
		maxIterations: defaults.MaxIterations,
		toolConfig:    defaults.ToolConfig,
	}
}

// SystemPrompt sets the agent's system prompt.
func (b *Builder) SystemPrompt(prompt string) *Builder {
	b.systemPrompt = prompt
	return b
}

// MaxIterations sets the per-request iteration bound.
// Values below one are ignored.
func (b *Builder) MaxIterations(n int) *Builder {
	if n > 0 {
		b.maxIterations = n
	}
	return b
}

// ToolTimeout sets the per-call tool timeout in seconds.
// Zero is ignored.
func (b *Builder) ToolTimeout(seconds uint64) *Builder {
	if seconds > 0 {
		b.toolConfig.TimeoutSecs = seconds
	}
	return b
}

// Build creates the agent configuration.
func (b *Builder) Build() Config {
	return Config{
		SystemPrompt:  b.systemPrompt,
		MaxIterations: b.maxIterations,
		ToolConfig:    b.toolConfig,
	}
}
