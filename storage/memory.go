// Package storage provides in-memory conversation storage.
//
// Information Hiding:
// - Map storage structure hidden from users
// - Thread-safe access via RWMutex hidden behind interface
// - Suitable for testing and ephemeral deployments

package storage

import (
	"context"
	"sync"

	"github.com/richinex/plutus/llm"
)

// InMemoryStorage implements ConversationStorage using an in-memory map.
// Data is lost when the process terminates.
type InMemoryStorage struct {
	mu      sync.RWMutex
	threads map[string][]llm.ChatMessage
}

// NewInMemoryStorage creates a new in-memory storage.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{
		threads: make(map[string][]llm.ChatMessage),
	}
}

// Save saves conversation history for a thread.
func (s *InMemoryStorage) Save(ctx context.Context, threadID string, history []llm.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Make a copy to avoid external mutations
	copied := make([]llm.ChatMessage, len(history))
	copy(copied, history)
	s.threads[threadID] = copied

	return nil
}

// Load loads conversation history for a thread.
// Returns empty slice if the thread doesn't exist.
func (s *InMemoryStorage) Load(ctx context.Context, threadID string) ([]llm.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.threads[threadID]
	if !ok {
		return []llm.ChatMessage{}, nil
	}

	// Return a copy to avoid external mutations
	copied := make([]llm.ChatMessage, len(history))
	copy(copied, history)
	return copied, nil
}

// Delete deletes conversation history for a thread.
func (s *InMemoryStorage) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.threads, threadID)
	return nil
}

// ListThreads lists all thread IDs.
func (s *InMemoryStorage) ListThreads(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.threads))
	for threadID := range s.threads {
		threads = append(threads, threadID)
	}
	return threads, nil
}

// Exists checks if a thread exists.
func (s *InMemoryStorage) Exists(ctx context.Context, threadID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.threads[threadID]
	return ok, nil
}

// Verify InMemoryStorage implements ConversationStorage
var _ ConversationStorage = (*InMemoryStorage)(nil)
