package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/richinex/plutus/tools"
)

// fakeBackend is an in-memory backend with a controllable clock.
type fakeBackend struct {
	values map[string]fakeEntry
	now    time.Time
	getErr error
	setErr error
	sets   int
}

type fakeEntry struct {
	value     string
	expiresAt time.Time
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		values: make(map[string]fakeEntry),
		now:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (b *fakeBackend) Get(ctx context.Context, key string) (string, error) {
	if b.getErr != nil {
		return "", b.getErr
	}
	entry, ok := b.values[key]
	if !ok || b.now.After(entry.expiresAt) {
		return "", errCacheMiss
	}
	return entry.value, nil
}

func (b *fakeBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if b.setErr != nil {
		return b.setErr
	}
	b.sets++
	b.values[key] = fakeEntry{value: value, expiresAt: b.now.Add(ttl)}
	return nil
}

// countingTool records executions and returns a scripted result.
type countingTool struct {
	tools.BaseTool
	calls  int
	result tools.ToolResult
	err    error
}

func (c *countingTool) Metadata() tools.ToolMetadata {
	return tools.ToolMetadata{Name: "probe", Description: "test probe"}
}

func (c *countingTool) Execute(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
	c.calls++
	return c.result, c.err
}

func newTestStore(backend backend) *Store {
	return &Store{
		backend: backend,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func execute(t *testing.T, tool tools.Tool, args string) tools.ToolResult {
	t.Helper()
	result, err := tool.Execute(context.Background(), json.RawMessage(args))
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	return result
}

func TestWrapCachesSuccessfulResults(t *testing.T) {
	backend := newFakeBackend()
	inner := &countingTool{result: tools.SuccessResult("42.00")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	first := execute(t, tool, `{"ticker":"NVDA"}`)
	second := execute(t, tool, `{"ticker":"NVDA"}`)

	if inner.calls != 1 {
		t.Errorf("expected 1 execution, got %d", inner.calls)
	}
	if first.Output != "42.00" || second.Output != "42.00" {
		t.Errorf("unexpected outputs %q, %q", first.Output, second.Output)
	}
}

func TestWrapExpiresEntries(t *testing.T) {
	backend := newFakeBackend()
	inner := &countingTool{result: tools.SuccessResult("ok")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	execute(t, tool, `{"ticker":"NVDA"}`)
	backend.now = backend.now.Add(2 * time.Minute)
	execute(t, tool, `{"ticker":"NVDA"}`)

	if inner.calls != 2 {
		t.Errorf("expected re-execution after expiry, got %d calls", inner.calls)
	}
}

func TestWrapDistinguishesArguments(t *testing.T) {
	backend := newFakeBackend()
	inner := &countingTool{result: tools.SuccessResult("ok")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	execute(t, tool, `{"ticker":"NVDA"}`)
	execute(t, tool, `{"ticker":"AAPL"}`)

	if inner.calls != 2 {
		t.Errorf("expected separate entries per argument set, got %d calls", inner.calls)
	}
}

func TestWrapCanonicalizesArguments(t *testing.T) {
	backend := newFakeBackend()
	inner := &countingTool{result: tools.SuccessResult("ok")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	execute(t, tool, `{"a":1,"b":2}`)
	execute(t, tool, `{ "b": 2, "a": 1 }`)

	if inner.calls != 1 {
		t.Errorf("expected key order and whitespace to share one entry, got %d calls", inner.calls)
	}
}

func TestWrapSkipsFailedResults(t *testing.T) {
	backend := newFakeBackend()
	inner := &countingTool{result: tools.FailureResultf("bad arguments")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	execute(t, tool, `{}`)
	execute(t, tool, `{}`)

	if backend.sets != 0 {
		t.Errorf("failed results must not be cached, got %d writes", backend.sets)
	}
	if inner.calls != 2 {
		t.Errorf("expected re-execution for failed results, got %d calls", inner.calls)
	}
}

func TestWrapTreatsBackendFaultsAsMisses(t *testing.T) {
	backend := newFakeBackend()
	backend.getErr = fmt.Errorf("connection reset")
	backend.setErr = fmt.Errorf("connection reset")
	inner := &countingTool{result: tools.SuccessResult("ok")}
	tool := newTestStore(backend).Wrap(inner, time.Minute)

	result := execute(t, tool, `{"ticker":"NVDA"}`)
	if result.Output != "ok" {
		t.Errorf("backend faults must not affect results, got %q", result.Output)
	}
	if inner.calls != 1 {
		t.Errorf("expected execution despite backend faults, got %d calls", inner.calls)
	}
}

func TestDisabledStorePassesThrough(t *testing.T) {
	store := &Store{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	inner := &countingTool{result: tools.SuccessResult("ok")}

	if store.Enabled() {
		t.Fatal("store without backend must report disabled")
	}
	if got := store.Wrap(inner, time.Minute); got != tools.Tool(inner) {
		t.Error("disabled store must return the tool unwrapped")
	}
}

func TestWrappedToolKeepsMetadataAndValidation(t *testing.T) {
	tool := newTestStore(newFakeBackend()).Wrap(&countingTool{}, time.Minute)

	if tool.Metadata().Name != "probe" {
		t.Errorf("unexpected metadata name %q", tool.Metadata().Name)
	}
	if err := tool.Validate(json.RawMessage(`{}`)); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestNewDisablesOnBadConfiguration(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	if store := New("", logger); store.Enabled() {
		t.Error("empty url must disable the cache")
	}
	if store := New("not-a-redis-url", logger); store.Enabled() {
		t.Error("malformed url must disable the cache")
	}
	// Nothing listens on port 1; the probe must fail fast and disable.
	if store := New("redis://127.0.0.1:1", logger); store.Enabled() {
		t.Error("unreachable server must disable the cache")
	}
}

func TestCacheKeyShape(t *testing.T) {
	key := cacheKey("get_stock_price", json.RawMessage(`{"ticker":"NVDA"}`))
	if !strings.HasPrefix(key, keyPrefix) {
		t.Errorf("expected prefix %q, got %q", keyPrefix, key)
	}
	if len(key) != len(keyPrefix)+64 {
		t.Errorf("expected 64 hex digest chars, got key %q", key)
	}

	same := cacheKey("get_stock_price", json.RawMessage(`{ "ticker" : "NVDA" }`))
	if key != same {
		t.Error("equivalent arguments must produce the same key")
	}
	other := cacheKey("get_stock_news", json.RawMessage(`{"ticker":"NVDA"}`))
	if key == other {
		t.Error("different tools must produce different keys")
	}
}
