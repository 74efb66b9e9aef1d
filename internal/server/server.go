// Package server exposes the AgentEditor REST API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/crystaldolphin/miniagents/internal/editor"
	"github.com/crystaldolphin/miniagents/internal/store"
)

const shutdownTimeout = 10 * time.Second

// ConversationStore is the persistence behind the conversation routes.
type ConversationStore interface {
	CreateConversation(ctx context.Context, title string) (store.Conversation, error)
	ListConversations(ctx context.Context) ([]store.Conversation, error)
	GetConversation(ctx context.Context, id string) (store.Conversation, error)
	UpdateTitle(ctx context.Context, id, title string) (store.Conversation, error)
	DeleteConversation(ctx context.Context, id string) error
}

// ChatService runs one chat turn.
type ChatService interface {
	Chat(ctx context.Context, conversationID, message string) (editor.Response, error)
}

// Server is the HTTP front of the editor.
type Server struct {
	echo  *echo.Echo
	store ConversationStore
	chat  ChatService
	port  int
}

// New wires routes and middleware. Nothing listens until Run.
func New(s ConversationStore, chat ChatService, port int) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				slog.Error("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency, "err", v.Error)
				return nil
			}
			slog.Info("Request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	srv := &Server{echo: e, store: s, chat: chat, port: port}

	e.GET("/health", srv.health)
	e.POST("/api/chat", srv.postChat)

	conv := e.Group("/api/conversations")
	conv.GET("", srv.listConversations)
	conv.POST("", srv.createConversation)
	conv.GET("/:id", srv.getConversation)
	conv.PATCH("/:id", srv.updateConversation)
	conv.DELETE("/:id", srv.deleteConversation)

	return srv
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.echo }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	errCh := make(chan error, 1)
	go func() {
		slog.Info("Editor API listening", "port", s.port)
		errCh <- s.echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve %s: %w", addr, err)
	case <-ctx.Done():
	}

	slog.Info("Editor API shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
