// Package storage provides SQLite conversation storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema and message serialization details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/richinex/plutus/llm"
)

// SqliteStorage implements ConversationStorage using SQLite.
// Thread-safe: sql.DB handles connection pooling and concurrent access.
type SqliteStorage struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStorage, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteStorage, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	storage := &SqliteStorage{db: db}
	if err := storage.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database connection.
func (s *SqliteStorage) Close() error {
	return s.db.Close()
}

func (s *SqliteStorage) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS threads (
			thread_id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL DEFAULT (datetime('now')),
			updated_at TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE TABLE IF NOT EXISTS messages (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			thread_id TEXT NOT NULL,
			message_index INTEGER NOT NULL,
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			tool_calls TEXT,
			tool_call_id TEXT,
			FOREIGN KEY (thread_id) REFERENCES threads(thread_id) ON DELETE CASCADE,
			UNIQUE(thread_id, message_index)
		);

		CREATE INDEX IF NOT EXISTS idx_messages_thread
		ON messages(thread_id, message_index);
	`

	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (s *SqliteStorage) ensureThread(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO threads (thread_id) VALUES (?)",
		threadID,
	)
	if err != nil {
		return fmt.Errorf("failed to ensure thread: %w", err)
	}
	return nil
}

// Save saves conversation history for a thread.
func (s *SqliteStorage) Save(ctx context.Context, threadID string, history []llm.ChatMessage) error {
	if err := s.ensureThread(ctx, threadID); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	// defer tx.Rollback() is safe even after Commit() - it becomes a no-op
	defer func() { _ = tx.Rollback() }()

	// Clear existing messages for this thread
	_, err = tx.ExecContext(ctx, "DELETE FROM messages WHERE thread_id = ?", threadID)
	if err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO messages (thread_id, message_index, role, content, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	defer stmt.Close()

	for i, msg := range history {
		toolCalls, toolCallID, err := encodeToolFields(msg)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx, threadID, i, msg.Role, msg.Content, toolCalls, toolCallID)
		if err != nil {
			return fmt.Errorf("failed to insert message: %w", err)
		}
	}

	// Update thread timestamp
	_, err = tx.ExecContext(ctx,
		"UPDATE threads SET updated_at = datetime('now') WHERE thread_id = ?",
		threadID)
	if err != nil {
		return fmt.Errorf("failed to update thread timestamp: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// encodeToolFields serializes the optional tool-call columns, using NULL
// when a message carries neither.
func encodeToolFields(msg llm.ChatMessage) (toolCalls, toolCallID interface{}, err error) {
	if len(msg.ToolCalls) > 0 {
		encoded, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode tool calls: %w", err)
		}
		toolCalls = string(encoded)
	}
	if msg.ToolCallID != "" {
		toolCallID = msg.ToolCallID
	}
	return toolCalls, toolCallID, nil
}

// Load loads conversation history for a thread.
// Returns empty slice if the thread doesn't exist.
func (s *SqliteStorage) Load(ctx context.Context, threadID string) ([]llm.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT role, content, tool_calls, tool_call_id FROM messages WHERE thread_id = ? ORDER BY message_index ASC",
		threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []llm.ChatMessage{} // Start with empty slice, not nil
	for rows.Next() {
		var msg llm.ChatMessage
		var toolCalls, toolCallID sql.NullString
		if err := rows.Scan(&msg.Role, &msg.Content, &toolCalls, &toolCallID); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		if toolCalls.Valid && toolCalls.String != "" {
			if err := json.Unmarshal([]byte(toolCalls.String), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to decode tool calls: %w", err)
			}
		}
		if toolCallID.Valid {
			msg.ToolCallID = toolCallID.String
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating messages: %w", err)
	}

	return messages, nil
}

// Delete deletes conversation history for a thread.
func (s *SqliteStorage) Delete(ctx context.Context, threadID string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM threads WHERE thread_id = ?",
		threadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}
	// CASCADE is not enforced unless foreign_keys is on, so clear explicitly.
	_, err = s.db.ExecContext(ctx,
		"DELETE FROM messages WHERE thread_id = ?",
		threadID)
	if err != nil {
		return fmt.Errorf("failed to delete thread messages: %w", err)
	}
	return nil
}

// ListThreads lists all thread IDs, most recently updated first.
func (s *SqliteStorage) ListThreads(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT thread_id FROM threads ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	defer rows.Close()

	threads := []string{} // Start with empty slice, not nil
	for rows.Next() {
		var threadID string
		if err := rows.Scan(&threadID); err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, threadID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating threads: %w", err)
	}

	return threads, nil
}

// Exists checks if a thread exists.
func (s *SqliteStorage) Exists(ctx context.Context, threadID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM threads WHERE thread_id = ?",
		threadID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check thread existence: %w", err)
	}

	return count > 0, nil
}

// Verify SqliteStorage implements ConversationStorage
var _ ConversationStorage = (*SqliteStorage)(nil)
