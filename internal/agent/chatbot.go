package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/crystaldolphin/miniagents/internal/history"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

// ChatMode selects how much of the conversation the chatbot remembers.
type ChatMode string

const (
	// ModeStateless sends each input on its own.
	ModeStateless ChatMode = "stateless"
	// ModeMemory keeps the conversation for the life of the process.
	ModeMemory ChatMode = "memory"
	// ModePersistent is ModeMemory backed by a history file.
	ModePersistent ChatMode = "persistent"
)

// ParseChatMode validates a mode name; empty means ModeMemory.
func ParseChatMode(s string) (ChatMode, error) {
	switch m := ChatMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeMemory, nil
	case ModeStateless, ModeMemory, ModePersistent:
		return m, nil
	default:
		return "", fmt.Errorf("unknown chat mode %q (want stateless, memory or persistent)", s)
	}
}

// IsExit reports whether input ends an interactive session.
func IsExit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "exit", "quit":
		return true
	}
	return false
}

// Chatbot is a plain conversational agent without tools.
type Chatbot struct {
	provider schema.LLMProvider
	opts     schema.ChatOptions
	mode     ChatMode
	store    *history.Store

	history schema.Messages
}

// NewChatbot creates a chatbot. store is only used in ModePersistent.
func NewChatbot(provider schema.LLMProvider, opts schema.ChatOptions, mode ChatMode, store *history.Store) *Chatbot {
	return &Chatbot{
		provider: provider,
		opts:     opts,
		mode:     mode,
		store:    store,
		history:  schema.NewMessages(),
	}
}

// Mode returns the configured memory mode.
func (c *Chatbot) Mode() ChatMode { return c.mode }

// Load restores the saved conversation in ModePersistent and returns the
// number of messages loaded. Other modes load nothing.
func (c *Chatbot) Load() (int, error) {
	if c.mode != ModePersistent || c.store == nil {
		return 0, nil
	}
	msgs, err := c.store.Load()
	if err != nil {
		return 0, fmt.Errorf("load chat history: %w", err)
	}
	c.history = msgs
	return msgs.Len(), nil
}

// History returns a copy of the remembered conversation.
func (c *Chatbot) History() schema.Messages {
	return c.history.Clone()
}

// Reply sends input to the model and returns its answer.
func (c *Chatbot) Reply(ctx context.Context, input string) (string, error) {
	if c.mode == ModeStateless {
		resp, err := c.provider.Chat(ctx, schema.NewMessages(schema.NewUserMessage(input)), nil, c.opts)
		if err != nil {
			return "", fmt.Errorf("llm call: %w", err)
		}
		return llmutils.StripThink(resp.Content), nil
	}

	c.history.AddUser(input)
	resp, err := c.provider.Chat(ctx, c.history, nil, c.opts)
	if err != nil {
		// Drop the unanswered input so a retry does not duplicate it.
		c.history.Messages = c.history.Messages[:c.history.Len()-1]
		return "", fmt.Errorf("llm call: %w", err)
	}
	content := llmutils.StripThink(resp.Content)
	c.history.AddAssistant(content, nil)

	if c.mode == ModePersistent && c.store != nil {
		if err := c.store.Save(c.history); err != nil {
			return content, fmt.Errorf("save chat history: %w", err)
		}
	}
	return content, nil
}
