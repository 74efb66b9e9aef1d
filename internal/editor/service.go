package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
	"github.com/crystaldolphin/miniagents/internal/store"
)

const titlePrompt = `Generate a very short title (3-5 words max) for a conversation that starts with: "%s"

Respond with ONLY the title, no quotes or extra text.`

const defaultHistoryWindow = 10

// Store is the persistence the chat service needs.
type Store interface {
	AddMessage(ctx context.Context, conversationID, role, content string) (store.Message, error)
	RecentMessages(ctx context.Context, conversationID string, n int) ([]store.Message, error)
	GetDocument(ctx context.Context, conversationID string) (store.Document, error)
	UpdateTitle(ctx context.Context, id, title string) (store.Conversation, error)
}

// ServiceOptions tunes the chat service.
type ServiceOptions struct {
	HistoryWindow int
	TitleOptions  schema.ChatOptions
}

// Service persists a chat turn around one pipeline run.
type Service struct {
	store    Store
	agent    *Agent
	provider schema.LLMProvider
	opts     ServiceOptions
}

// NewService creates the chat service. provider is used for titles.
func NewService(s Store, agent *Agent, provider schema.LLMProvider, opts ServiceOptions) *Service {
	if opts.HistoryWindow <= 0 {
		opts.HistoryWindow = defaultHistoryWindow
	}
	return &Service{store: s, agent: agent, provider: provider, opts: opts}
}

// Chat records message, runs the pipeline and records the reply. It returns
// store.ErrNotFound when the conversation does not exist.
func (s *Service) Chat(ctx context.Context, conversationID, message string) (Response, error) {
	if _, err := s.store.AddMessage(ctx, conversationID, store.RoleUser, message); err != nil {
		return Response{}, fmt.Errorf("save user message: %w", err)
	}

	recent, err := s.store.RecentMessages(ctx, conversationID, s.opts.HistoryWindow)
	if err != nil {
		return Response{}, fmt.Errorf("load history: %w", err)
	}
	msgs := schema.NewMessages()
	for _, m := range recent {
		msgs.Add(schema.Message{Role: m.Role, Content: m.Content})
	}

	state := &State{ConversationID: conversationID, Messages: msgs}
	doc, err := s.store.GetDocument(ctx, conversationID)
	switch {
	case err == nil:
		state.CurrentText = doc.Text
	case !errors.Is(err, store.ErrNotFound):
		return Response{}, fmt.Errorf("load document: %w", err)
	}

	slog.Info("Running editor agent", "conversation", conversationID)
	resp, err := s.agent.Run(ctx, state)
	if err != nil {
		return Response{}, err
	}
	slog.Info("Editor agent completed", "conversation", conversationID, "tools", resp.ToolsUsed)

	if _, err := s.store.AddMessage(ctx, conversationID, store.RoleAssistant, resp.Message); err != nil {
		return Response{}, fmt.Errorf("save assistant message: %w", err)
	}

	if len(recent) == 1 {
		if err := s.generateTitle(ctx, conversationID, message); err != nil {
			slog.Warn("Failed to generate title", "conversation", conversationID, "err", err)
		}
	}
	return resp, nil
}

func (s *Service) generateTitle(ctx context.Context, conversationID, message string) error {
	resp, err := s.provider.Chat(ctx,
		schema.NewMessages(schema.NewUserMessage(fmt.Sprintf(titlePrompt, message))),
		nil, s.opts.TitleOptions)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(strings.NewReplacer(`"`, "", "'", "").Replace(llmutils.StripThink(resp.Content)))
	_, err = s.store.UpdateTitle(ctx, conversationID, title)
	return err
}
