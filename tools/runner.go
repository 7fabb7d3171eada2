// Tool Runner - executes model-requested tool calls at the agent boundary.
//
// Information Hiding:
// - Tool resolution and validation hidden
// - Timeout enforcement hidden
// - Panic containment hidden; no tool fault crosses this boundary

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	jsonutil "github.com/richinex/plutus/internal/json"
)

// Runner resolves and executes tool calls, converting every outcome into a
// textual observation for the model. The model always receives an observation;
// faults never propagate past the runner.
type Runner struct {
	registry *Registry
	config   ToolConfig
	logger   *slog.Logger
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, config ToolConfig, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{registry: registry, config: config, logger: logger}
}

// Run executes one tool call and returns the observation text.
func (r *Runner) Run(ctx context.Context, name string, args json.RawMessage) string {
	tool, ok := r.registry.Get(name)
	if !ok {
		r.logger.Warn("unknown tool requested", "tool", name)
		return fmt.Sprintf("Tool '%s' not found", name)
	}

	timeout := time.Duration(r.config.Timeout()) * time.Second
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	result, err := r.execute(ctx, tool, args)
	elapsed := time.Since(start)

	if err != nil {
		r.logger.Warn("tool execution failed",
			"tool", name,
			"error_type", fmt.Sprintf("%T", err),
			"elapsed", elapsed,
		)
		return fmt.Sprintf("Tool '%s' failed: %v", name, err)
	}
	if !result.Success() {
		r.logger.Warn("tool reported failure",
			"tool", name,
			"error_type", fmt.Sprintf("%T", result.Error),
			"elapsed", elapsed,
		)
		return fmt.Sprintf("Tool '%s' failed: %v", name, result.Error)
	}

	r.logger.Debug("tool executed", "tool", name, "elapsed", elapsed)
	return result.Output
}

// execute validates and runs the tool, recovering panics into errors.
func (r *Runner) execute(ctx context.Context, tool Tool, args json.RawMessage) (result ToolResult, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("tool panicked: %T", rec)
		}
	}()

	if verr := tool.Validate(args); verr != nil {
		cleaned, ok := r.recoverArgs(tool, args)
		if !ok {
			return ToolResult{}, fmt.Errorf("validation failed: %w", verr)
		}
		args = cleaned
	}

	return tool.Execute(ctx, args)
}

// recoverArgs salvages arguments the model wrapped in markdown fences or
// prose. Extraction followed by revalidation rescues the call; anything still
// invalid falls through to the original validation error.
func (r *Runner) recoverArgs(tool Tool, args json.RawMessage) (json.RawMessage, bool) {
	extracted, err := jsonutil.Extract(string(args))
	if err != nil {
		return nil, false
	}
	cleaned := json.RawMessage(extracted)
	if err := tool.Validate(cleaned); err != nil {
		return nil, false
	}
	r.logger.Debug("recovered malformed tool arguments", "tool", tool.Metadata().Name)
	return cleaned, true
}
