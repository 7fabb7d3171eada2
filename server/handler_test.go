package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/richinex/plutus/agent"
	"github.com/richinex/plutus/llm"
)

type fakeChat struct {
	mu       sync.Mutex
	events   []agent.Event
	calls    int
	threadID string
	content  string
}

func (f *fakeChat) Run(ctx context.Context, threadID, content string) <-chan agent.Event {
	f.mu.Lock()
	f.calls++
	f.threadID = threadID
	f.content = content
	f.mu.Unlock()

	out := make(chan agent.Event, len(f.events)+1)
	for _, ev := range f.events {
		out <- ev
	}
	close(out)
	return out
}

func (f *fakeChat) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestHandler(chat ChatAgent) http.Handler {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(chat, []string{"http://localhost:5173"}, quiet).Handler()
}

func postChat(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestChatRejectsEmptyContent(t *testing.T) {
	chat := &fakeChat{}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":""},"threadId":"t1"}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	want := `{"detail":"Message content is required"}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
	if chat.callCount() != 0 {
		t.Error("agent must not run for rejected requests")
	}
}

func TestChatRejectsMalformedBody(t *testing.T) {
	chat := &fakeChat{}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if chat.callCount() != 0 {
		t.Error("agent must not run for rejected requests")
	}
}

func TestChatRejectsOverlongContent(t *testing.T) {
	chat := &fakeChat{}
	h := newTestHandler(chat)

	body := `{"prompt":{"content":"` + strings.Repeat("a", 10001) + `"},"threadId":"t1"}`
	rec := postChat(h, body)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	want := `{"detail":"Message too long. Maximum 10000 characters allowed."}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
	if chat.callCount() != 0 {
		t.Error("agent must not run for rejected requests")
	}
}

func TestChatLengthLimitCountsRunes(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventDone, Elapsed: time.Millisecond},
	}}
	h := newTestHandler(chat)

	// 10000 two-byte runes stay inside the limit.
	body := `{"prompt":{"content":"` + strings.Repeat("é", 10000) + `"},"threadId":"t1"}`
	rec := postChat(h, body)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if chat.callCount() != 1 {
		t.Errorf("agent calls = %d, want 1", chat.callCount())
	}
}

func TestChatStreamsRawChunks(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventText, Delta: "Hel"},
		{Kind: agent.EventText, Delta: "lo"},
		{Kind: agent.EventDone, Usage: &llm.TokenUsage{TotalTokens: 7}, Elapsed: time.Millisecond},
	}}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":"hi"},"threadId":"t1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.String() != "Hello" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "Hello")
	}

	wantHeaders := map[string]string{
		"Content-Type":           "text/event-stream",
		"Cache-Control":          "no-cache",
		"Connection":             "keep-alive",
		"X-Accel-Buffering":      "no",
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"X-Thread-ID":            "t1",
	}
	for key, want := range wantHeaders {
		if got := rec.Header().Get(key); got != want {
			t.Errorf("header %s = %q, want %q", key, got, want)
		}
	}

	if chat.content != "hi" || chat.threadID != "t1" {
		t.Errorf("agent invoked with (%q, %q), want (t1, hi)", chat.threadID, chat.content)
	}
}

func TestChatGeneratesThreadID(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventText, Delta: "ok"},
		{Kind: agent.EventDone},
	}}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":"hi"}}`)

	id := rec.Header().Get("X-Thread-ID")
	if id == "" {
		t.Fatal("X-Thread-ID header missing")
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("X-Thread-ID %q is not a UUID: %v", id, err)
	}
	if chat.threadID != id {
		t.Errorf("agent thread id %q, want %q", chat.threadID, id)
	}
}

func TestChatHidesToolEvents(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventToolStart, Tool: "get_stock_price"},
		{Kind: agent.EventToolEnd, Tool: "get_stock_price"},
		{Kind: agent.EventText, Delta: "42.50"},
		{Kind: agent.EventDone},
	}}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":"price?"},"threadId":"t1"}`)

	if rec.Body.String() != "42.50" {
		t.Errorf("body = %q, want %q", rec.Body.String(), "42.50")
	}
}

func TestChatErrorBeforeFirstChunk(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventError, Err: context.DeadlineExceeded},
	}}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":"hi"},"threadId":"t1"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	want := `{"detail":"An unexpected error occurred"}`
	if rec.Body.String() != want {
		t.Errorf("body = %q, want %q", rec.Body.String(), want)
	}
}

func TestChatErrorMidStreamTerminates(t *testing.T) {
	chat := &fakeChat{events: []agent.Event{
		{Kind: agent.EventText, Delta: "par"},
		{Kind: agent.EventError, Err: context.DeadlineExceeded},
	}}
	h := newTestHandler(chat)

	rec := postChat(h, `{"prompt":{"content":"hi"},"threadId":"t1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (already committed)", rec.Code)
	}
	if rec.Body.String() != "par" {
		t.Errorf("body = %q, want the chunks written before the failure", rec.Body.String())
	}
}

func TestChatPreflightAllowsConfiguredOrigin(t *testing.T) {
	h := newTestHandler(&fakeChat{})

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
	}
}
