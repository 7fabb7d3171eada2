// Streaming chat handler.
//
// Information Hiding:
// - Validation limits internal
// - Event-to-chunk translation internal
// - Usage telemetry internal
package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/richinex/plutus/agent"
)

// maxMessageChars bounds a single user message, counted in runes.
const maxMessageChars = 10000

type chatPrompt struct {
	Content string `json:"content"`
}

type chatRequest struct {
	Prompt   chatPrompt `json:"prompt"`
	ThreadID string     `json:"threadId"`
}

type chatHandler struct {
	agent  ChatAgent
	logger *slog.Logger
}

// handle validates the request, runs the agent, and relays text deltas as raw
// flushed chunks. The agent is never invoked for rejected requests.
func (h *chatHandler) handle(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Message content is required"})
		return
	}
	if req.Prompt.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Message content is required"})
		return
	}
	if utf8.RuneCountInString(req.Prompt.Content) > maxMessageChars {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "Message too long. Maximum 10000 characters allowed."})
		return
	}

	threadID := req.ThreadID
	if threadID == "" {
		threadID = uuid.NewString()
	}

	events := h.agent.Run(c.Request.Context(), threadID, req.Prompt.Content)
	h.stream(c, threadID, events)
}

// stream forwards agent events to the client. Headers are committed lazily:
// an error arriving before the first chunk still gets a clean 500 JSON body.
func (h *chatHandler) stream(c *gin.Context, threadID string, events <-chan agent.Event) {
	streaming := false
	begin := func() {
		if streaming {
			return
		}
		writeStreamHeaders(c, threadID)
		c.Writer.WriteHeaderNow()
		streaming = true
	}

	for event := range events {
		switch event.Kind {
		case agent.EventText:
			begin()
			if _, err := c.Writer.WriteString(event.Delta); err != nil {
				h.logger.Debug("client write failed",
					"thread", threadID,
					"error_type", fmt.Sprintf("%T", err))
				return
			}
			c.Writer.Flush()

		case agent.EventToolStart:
			h.logger.Debug("tool call started", "thread", threadID, "tool", event.Tool)

		case agent.EventToolEnd:
			h.logger.Debug("tool call finished", "thread", threadID, "tool", event.Tool)

		case agent.EventDone:
			h.logDone(threadID, event)
			begin()
			c.Writer.Flush()

		case agent.EventError:
			if !streaming {
				h.logger.Error("chat request failed",
					"thread", threadID,
					"error_type", fmt.Sprintf("%T", event.Err))
				c.JSON(http.StatusInternalServerError, gin.H{"detail": "An unexpected error occurred"})
				return
			}
			h.logger.Error("stream aborted",
				"thread", threadID,
				"error_type", fmt.Sprintf("%T", event.Err))
			return
		}
	}
}

func (h *chatHandler) logDone(threadID string, event agent.Event) {
	if event.Usage != nil {
		h.logger.Info("chat completed",
			"thread", threadID,
			"prompt_tokens", event.Usage.PromptTokens,
			"completion_tokens", event.Usage.CompletionTokens,
			"total_tokens", event.Usage.TotalTokens,
			"elapsed", event.Elapsed)
		return
	}
	h.logger.Info("chat completed", "thread", threadID, "elapsed", event.Elapsed)
}

func writeStreamHeaders(c *gin.Context, threadID string) {
	header := c.Writer.Header()
	header.Set("Content-Type", "text/event-stream")
	header.Set("Cache-Control", "no-cache")
	header.Set("Connection", "keep-alive")
	header.Set("X-Accel-Buffering", "no")
	header.Set("X-Content-Type-Options", "nosniff")
	header.Set("X-Frame-Options", "DENY")
	header.Set("X-XSS-Protection", "1; mode=block")
	header.Set("X-Thread-ID", threadID)
}
