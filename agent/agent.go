// Streaming tool-call loop implementation.
//
// This is THE canonical implementation of the agent loop.
// All request execution goes through this module.
//
// Information Hiding:
// - Loop internals hidden
// - LLM communication hidden
// - Tool execution coordination hidden
// - Conversation persistence hidden

package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/richinex/plutus/llm"
	"github.com/richinex/plutus/storage"
	"github.com/richinex/plutus/tools"
)

// Agent runs conversations through a streaming think-act loop: stream one
// model turn, execute any requested tools, feed observations back, repeat
// until the model answers in plain text or the iteration bound is hit.
type Agent struct {
	config   Config
	provider llm.Provider
	registry *tools.Registry
	runner   *tools.Runner
	store    storage.ConversationStorage
	logger   *slog.Logger

	// locks serializes runs per thread so concurrent requests against the
	// same conversation cannot interleave history updates.
	locks sync.Map // threadID -> *sync.Mutex
}

// New creates a new agent with the given configuration and collaborators.
func New(config Config, provider llm.Provider, registry *tools.Registry, store storage.ConversationStorage) *Agent {
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultConfig().MaxIterations
	}
	logger := slog.Default()
	return &Agent{
		config:   config,
		provider: provider,
		registry: registry,
		runner:   tools.NewRunner(registry, config.ToolConfig, logger),
		store:    store,
		logger:   logger,
	}
}

// WithLogger overrides the agent's logger.
func (a *Agent) WithLogger(logger *slog.Logger) *Agent {
	if logger != nil {
		a.logger = logger
		a.runner = tools.NewRunner(a.registry, a.config.ToolConfig, logger)
	}
	return a
}

// Provider returns the underlying LLM provider.
func (a *Agent) Provider() llm.Provider {
	return a.provider
}

// Registry returns the agent's tool registry.
func (a *Agent) Registry() *tools.Registry {
	return a.registry
}

// Store returns the agent's conversation storage.
func (a *Agent) Store() storage.ConversationStorage {
	return a.store
}

// Run executes one user message against a thread and returns the event
// stream. The channel is closed after the terminal event (EventDone or
// EventError). The caller owns ctx; cancelling it stops the run.
func (a *Agent) Run(ctx context.Context, threadID, content string) <-chan Event {
	events := make(chan Event, 16)
	go func() {
		defer close(events)
		a.run(ctx, threadID, content, events)
	}()
	return events
}

func (a *Agent) run(ctx context.Context, threadID, content string, events chan<- Event) {
	start := time.Now()

	// Runs against the same thread execute one at a time; the wait is
	// bounded by the run currently holding the lock.
	mu := a.threadLock(threadID)
	mu.Lock()
	defer mu.Unlock()

	history, err := a.store.Load(ctx, threadID)
	if err != nil {
		a.logger.Error("failed to load conversation",
			"thread", threadID,
			"error_type", fmt.Sprintf("%T", err))
		emit(ctx, events, errorEvent(fmt.Errorf("loading conversation: %w", err)))
		return
	}

	conversation := history
	if len(conversation) == 0 && a.config.HasSystemPrompt() {
		conversation = append(conversation, llm.SystemMessage(a.config.SystemPrompt))
	}
	conversation = append(conversation, llm.UserMessage(content))

	definitions := a.toolDefinitions()
	var totalUsage llm.TokenUsage

	for iteration := 0; iteration < a.config.MaxIterations; iteration++ {
		if ctx.Err() != nil {
			emit(ctx, events, errorEvent(fmt.Errorf("run cancelled: %w", ctx.Err())))
			return
		}

		turn, err := a.streamTurn(ctx, conversation, definitions, events)
		if err != nil {
			a.logger.Error("provider turn failed",
				"thread", threadID,
				"provider", a.provider.Name(),
				"iteration", iteration,
				"error_type", fmt.Sprintf("%T", err))
			emit(ctx, events, errorEvent(fmt.Errorf("model turn failed: %w", err)))
			return
		}
		totalUsage.Add(turn.Usage)

		if len(turn.ToolCalls) == 0 {
			conversation = append(conversation, llm.AssistantMessage(turn.Content))
			a.save(ctx, threadID, conversation)
			emit(ctx, events, doneEvent(&totalUsage, time.Since(start)))
			return
		}

		conversation = append(conversation, llm.ChatMessage{
			Role:      "assistant",
			Content:   turn.Content,
			ToolCalls: turn.ToolCalls,
		})
		for _, call := range turn.ToolCalls {
			emit(ctx, events, toolStartEvent(call.Name))
			observation := a.runner.Run(ctx, call.Name, call.Arguments)
			emit(ctx, events, toolEndEvent(call.Name))
			conversation = append(conversation, llm.ToolMessage(call.ID, observation))
		}
	}

	a.logger.Warn("iteration budget exhausted",
		"thread", threadID,
		"max_iterations", a.config.MaxIterations)
	emit(ctx, events, errorEvent(fmt.Errorf("no final answer after %d iterations", a.config.MaxIterations)))
}

// streamTurn runs one provider turn, forwarding text deltas to the event
// stream as they arrive. All deltas are flushed before streamTurn returns,
// so tool and terminal events never overtake text.
func (a *Agent) streamTurn(ctx context.Context, conversation []llm.ChatMessage, definitions []llm.ToolDefinition, events chan<- Event) (*llm.Turn, error) {
	deltas := make(chan string, 64)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for delta := range deltas {
			emit(ctx, events, textEvent(delta))
		}
	}()

	turn, err := a.provider.StreamTurn(ctx, conversation, definitions, deltas)
	close(deltas)
	<-drained
	return turn, err
}

// save persists the conversation. Persistence faults are logged, not
// surfaced: the client already holds the streamed answer.
func (a *Agent) save(ctx context.Context, threadID string, conversation []llm.ChatMessage) {
	if err := a.store.Save(ctx, threadID, conversation); err != nil {
		a.logger.Error("failed to save conversation",
			"thread", threadID,
			"error_type", fmt.Sprintf("%T", err))
	}
}

// toolDefinitions converts registry metadata into provider tool definitions.
func (a *Agent) toolDefinitions() []llm.ToolDefinition {
	metas := a.registry.List()
	definitions := make([]llm.ToolDefinition, 0, len(metas))
	for _, meta := range metas {
		definitions = append(definitions, llm.ToolDefinition{
			Name:        meta.Name,
			Description: meta.Description,
			Parameters:  meta.Schema(),
		})
	}
	return definitions
}

// threadLock returns the mutex guarding a thread, creating it on first use.
func (a *Agent) threadLock(threadID string) *sync.Mutex {
	mu, _ := a.locks.LoadOrStore(threadID, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// emit sends an event unless the run context is already cancelled.
func emit(ctx context.Context, events chan<- Event, event Event) {
	select {
	case events <- event:
	case <-ctx.Done():
	}
}
