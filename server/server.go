// Package server exposes the chat backend over HTTP.
//
// Information Hiding:
// - Router and middleware wiring hidden
// - Streaming transport details hidden in the handler
// - Request validation rules hidden from the composition root
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/richinex/plutus/agent"
)

// ChatAgent is the slice of the agent the server depends on.
type ChatAgent interface {
	Run(ctx context.Context, threadID, content string) <-chan agent.Event
}

// Server wires the gin engine, CORS middleware, and the chat handler.
type Server struct {
	engine *gin.Engine
	logger *slog.Logger
}

// New creates a server around the given agent. allowedOrigins feeds the CORS
// middleware; "*" opens it up, an empty list leaves the middleware out.
func New(chat ChatAgent, allowedOrigins []string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if len(allowedOrigins) > 0 {
		corsConfig := cors.Config{
			AllowMethods: []string{"POST", "OPTIONS"},
			AllowHeaders: []string{"Content-Type"},
			MaxAge:       12 * time.Hour,
		}
		if len(allowedOrigins) == 1 && allowedOrigins[0] == "*" {
			corsConfig.AllowAllOrigins = true
		} else {
			corsConfig.AllowOrigins = allowedOrigins
		}
		engine.Use(cors.New(corsConfig))
	}

	h := &chatHandler{agent: chat, logger: logger}
	engine.POST("/api/chat", h.handle)

	return &Server{engine: engine, logger: logger}
}

// Run starts the HTTP listener and blocks until it fails.
func (s *Server) Run(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	return s.engine.Run(addr)
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}
