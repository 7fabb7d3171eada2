// Package cache provides Redis-backed TTL memoization for tool results.
//
// Information Hiding:
// - Redis connection management and key construction hidden
// - Degraded-mode behavior hidden: an unreachable cache becomes a permanent
//   passthrough, never an error surfaced to tools or the agent
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/richinex/plutus/tools"
)

// keyPrefix namespaces cache entries so a shared Redis instance stays legible.
const keyPrefix = "plutus:tool:"

// pingTimeout bounds the reachability probe at construction.
const pingTimeout = 3 * time.Second

// errCacheMiss distinguishes an absent key from a backend fault.
var errCacheMiss = errors.New("cache miss")

// backend is the minimal key-value surface the store needs. Redis provides
// the production implementation; tests substitute their own.
type backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// redisBackend adapts a go-redis client to the backend interface.
type redisBackend struct {
	client *redis.Client
}

func (b redisBackend) Get(ctx context.Context, key string) (string, error) {
	value, err := b.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", errCacheMiss
	}
	return value, err
}

func (b redisBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return b.client.Set(ctx, key, value, ttl).Err()
}

// Store wraps tools with TTL memoization. A Store constructed without a
// reachable Redis stays valid and simply passes tools through unwrapped.
type Store struct {
	backend backend
	logger  *slog.Logger
}

var _ tools.Wrapper = (*Store)(nil)

// New connects to Redis and returns a store. Construction never fails: an
// empty URL, a malformed URL or an unreachable server all yield a disabled
// store, logged once here.
func New(redisURL string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if redisURL == "" {
		logger.Info("tool cache disabled: no redis url configured")
		return &Store{logger: logger}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("tool cache disabled: invalid redis url",
			"error_type", fmt.Sprintf("%T", err))
		return &Store{logger: logger}
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("tool cache disabled: redis unreachable",
			"addr", opts.Addr,
			"error_type", fmt.Sprintf("%T", err))
		_ = client.Close()
		return &Store{logger: logger}
	}

	logger.Info("tool cache enabled", "addr", opts.Addr)
	return &Store{backend: redisBackend{client: client}, logger: logger}
}

// Enabled reports whether the store has a live backend.
func (s *Store) Enabled() bool {
	return s != nil && s.backend != nil
}

// Wrap decorates a tool with TTL memoization. Disabled stores return the
// tool unchanged.
func (s *Store) Wrap(tool tools.Tool, ttl time.Duration) tools.Tool {
	if !s.Enabled() {
		return tool
	}
	return &cachedTool{inner: tool, store: s, ttl: ttl}
}

// cachedTool memoizes successful results of the wrapped tool.
type cachedTool struct {
	inner tools.Tool
	store *Store
	ttl   time.Duration
}

var _ tools.Tool = (*cachedTool)(nil)

// Metadata returns the wrapped tool's metadata.
func (c *cachedTool) Metadata() tools.ToolMetadata {
	return c.inner.Metadata()
}

// Validate delegates to the wrapped tool.
func (c *cachedTool) Validate(args json.RawMessage) error {
	return c.inner.Validate(args)
}

// Execute serves from cache when possible. Backend read faults count as
// misses and write faults are dropped; the caller never sees either.
func (c *cachedTool) Execute(ctx context.Context, args json.RawMessage) (tools.ToolResult, error) {
	name := c.inner.Metadata().Name
	key := cacheKey(name, args)

	value, err := c.store.backend.Get(ctx, key)
	if err == nil {
		c.store.logger.Debug("tool cache hit", "tool", name)
		return tools.SuccessResult(value), nil
	}
	if !errors.Is(err, errCacheMiss) {
		c.store.logger.Debug("tool cache read failed",
			"tool", name,
			"error_type", fmt.Sprintf("%T", err))
	}

	result, err := c.inner.Execute(ctx, args)
	if err == nil && result.Success() {
		if setErr := c.store.backend.Set(ctx, key, result.Output, c.ttl); setErr != nil {
			c.store.logger.Debug("tool cache write failed",
				"tool", name,
				"error_type", fmt.Sprintf("%T", setErr))
		}
	}
	return result, err
}

// cacheKey derives a stable key from the tool name and its arguments.
// Arguments are canonicalized through a decode/encode round trip so key
// order and whitespace differences hit the same entry.
func cacheKey(name string, args json.RawMessage) string {
	sum := sha256.Sum256([]byte(name + ":" + canonicalArgs(args)))
	return keyPrefix + hex.EncodeToString(sum[:])
}

func canonicalArgs(args json.RawMessage) string {
	if len(args) == 0 {
		return "{}"
	}
	var decoded interface{}
	if err := json.Unmarshal(args, &decoded); err != nil {
		return string(args)
	}
	encoded, err := json.Marshal(decoded)
	if err != nil {
		return string(args)
	}
	return string(encoded)
}
