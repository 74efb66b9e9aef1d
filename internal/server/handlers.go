package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/crystaldolphin/miniagents/internal/store"
)

// conversationSummary always carries messages, even when empty.
type conversationSummary struct {
	store.Conversation
	Messages []store.Message `json:"messages"`
}

// conversationDetail always carries messages and document, which may be null.
type conversationDetail struct {
	store.Conversation
	Messages []store.Message `json:"messages"`
	Document *store.Document `json:"document"`
}

func nonNil(msgs []store.Message) []store.Message {
	if msgs == nil {
		return []store.Message{}
	}
	return msgs
}

type errorBody struct {
	Error string `json:"error"`
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, errorBody{Error: msg})
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok", "message": "AgentEditor API"})
}

type chatRequest struct {
	ConversationID string `json:"conversationId"`
	Message        string `json:"message"`
}

func (s *Server) postChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil || req.ConversationID == "" || req.Message == "" {
		return fail(c, http.StatusBadRequest, "conversationId and message are required")
	}

	resp, err := s.chat.Chat(c.Request().Context(), req.ConversationID, req.Message)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "Conversation not found")
	case err != nil:
		slog.Error("Chat failed", "conversation", req.ConversationID, "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to process message")
	}
	if resp.ToolsUsed == nil {
		resp.ToolsUsed = []string{}
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) listConversations(c echo.Context) error {
	convs, err := s.store.ListConversations(c.Request().Context())
	if err != nil {
		slog.Error("Error fetching conversations", "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to fetch conversations")
	}
	out := make([]conversationSummary, 0, len(convs))
	for _, conv := range convs {
		out = append(out, conversationSummary{Conversation: conv, Messages: nonNil(conv.Messages)})
	}
	return c.JSON(http.StatusOK, out)
}

type titleRequest struct {
	Title string `json:"title"`
}

func (s *Server) createConversation(c echo.Context) error {
	var req titleRequest
	// An empty or missing body creates an untitled conversation.
	_ = c.Bind(&req)

	conv, err := s.store.CreateConversation(c.Request().Context(), req.Title)
	if err != nil {
		slog.Error("Error creating conversation", "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to create conversation")
	}
	slog.Info("Conversation created", "id", conv.ID)
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) getConversation(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "Conversation ID is required")
	}

	conv, err := s.store.GetConversation(c.Request().Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "Conversation not found")
	case err != nil:
		slog.Error("Error fetching conversation", "id", id, "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to fetch conversation")
	}
	return c.JSON(http.StatusOK, conversationDetail{
		Conversation: conv,
		Messages:     nonNil(conv.Messages),
		Document:     conv.Document,
	})
}

func (s *Server) updateConversation(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "Conversation ID is required")
	}
	var req titleRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		return fail(c, http.StatusBadRequest, "Title is required")
	}

	conv, err := s.store.UpdateTitle(c.Request().Context(), id, req.Title)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "Conversation not found")
	case errors.Is(err, store.ErrEmptyTitle):
		return fail(c, http.StatusBadRequest, "Title is required")
	case err != nil:
		slog.Error("Error updating conversation", "id", id, "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to update conversation")
	}
	return c.JSON(http.StatusOK, conv)
}

func (s *Server) deleteConversation(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return fail(c, http.StatusBadRequest, "Conversation ID is required")
	}

	err := s.store.DeleteConversation(c.Request().Context(), id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return fail(c, http.StatusNotFound, "Conversation not found")
	case err != nil:
		slog.Error("Error deleting conversation", "id", id, "err", err)
		return fail(c, http.StatusInternalServerError, "Failed to delete conversation")
	}
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}
