package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
	"github.com/crystaldolphin/miniagents/internal/store"
)

// TextStore is the editor persistence used by the text and memory tools.
type TextStore interface {
	GetDocument(ctx context.Context, conversationID string) (store.Document, error)
	UpsertDocument(ctx context.Context, conversationID, text string) (store.Document, error)
	RecentMessages(ctx context.Context, conversationID string, n int) ([]store.Message, error)
}

var errNoConversation = errors.New("conversationId is required")

// conversationID prefers the id scoped on ctx over an explicit argument.
func conversationID(ctx context.Context, params map[string]any) (string, error) {
	if id := ConversationFrom(ctx); id != "" {
		return id, nil
	}
	if id := llmutils.StringArg(params, "conversationId"); id != "" {
		return id, nil
	}
	return "", errNoConversation
}

func wordCount(text string) int {
	n := 0
	for _, w := range strings.Split(text, " ") {
		if w != "" {
			n++
		}
	}
	return n
}

func textFailure(err error) string {
	return jsonResult(map[string]any{"success": false, "error": err.Error(), "text": nil})
}

// ---------------------------------------------------------------------------
// ReadTextTool
// ---------------------------------------------------------------------------

// ReadTextTool returns the current editor text.
type ReadTextTool struct {
	store TextStore
}

func NewReadTextTool(s TextStore) *ReadTextTool {
	return &ReadTextTool{store: s}
}

func (t *ReadTextTool) Name() string { return string(ToolReadText) }
func (t *ReadTextTool) Description() string {
	return "Read the current text content from the editor. Use this before updating text or when the user asks about the current content."
}
func (t *ReadTextTool) Parameters() json.RawMessage {
	return json.RawMessage(`{"type": "object", "properties": {}}`)
}

func (t *ReadTextTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id, err := conversationID(ctx, params)
	if err != nil {
		return textFailure(err), nil
	}

	doc, err := t.store.GetDocument(ctx, id)
	switch {
	case errors.Is(err, store.ErrNotFound) || (err == nil && doc.Text == ""):
		return jsonResult(map[string]any{"success": true, "text": nil, "hasText": false}), nil
	case err != nil:
		return textFailure(err), nil
	}
	return jsonResult(map[string]any{"success": true, "text": doc.Text, "hasText": true}), nil
}

// ---------------------------------------------------------------------------
// WriteTextTool
// ---------------------------------------------------------------------------

// WriteTextTool generates new text and stores it as the editor document.
type WriteTextTool struct {
	store    TextStore
	provider schema.LLMProvider
	opts     schema.ChatOptions
}

func NewWriteTextTool(s TextStore, provider schema.LLMProvider, opts schema.ChatOptions) *WriteTextTool {
	return &WriteTextTool{store: s, provider: provider, opts: opts}
}

func (t *WriteTextTool) Name() string { return string(ToolWriteText) }
func (t *WriteTextTool) Description() string {
	return "Generate and write new text to the editor. Use this when the user wants to create new content from scratch."
}
func (t *WriteTextTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"prompt": {"type": "string", "description": "What to write"},
			"style": {"type": "string", "description": "Writing style", "default": "professional"}
		},
		"required": ["prompt"]
	}`)
}

func (t *WriteTextTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id, err := conversationID(ctx, params)
	if err != nil {
		return textFailure(err), nil
	}
	prompt := llmutils.StringArg(params, "prompt")
	style := llmutils.StringOrDefault(llmutils.StringArg(params, "style"), "professional")

	msgs := schema.NewMessages(
		schema.NewSystemMessage(fmt.Sprintf("You are a professional writing assistant. Generate clear, well-structured text in a %s style.", style)),
		schema.NewUserMessage(prompt),
	)
	resp, err := t.provider.Chat(ctx, msgs, nil, t.opts)
	if err != nil {
		return textFailure(err), nil
	}
	text := llmutils.StripThink(resp.Content)

	if _, err := t.store.UpsertDocument(ctx, id, text); err != nil {
		return textFailure(err), nil
	}
	return jsonResult(map[string]any{
		"success":   true,
		"text":      text,
		"wordCount": wordCount(text),
	}), nil
}

// ---------------------------------------------------------------------------
// UpdateTextTool
// ---------------------------------------------------------------------------

// UpdateTextTool rewrites the editor text according to an instruction.
type UpdateTextTool struct {
	store    TextStore
	provider schema.LLMProvider
	opts     schema.ChatOptions
}

func NewUpdateTextTool(s TextStore, provider schema.LLMProvider, opts schema.ChatOptions) *UpdateTextTool {
	return &UpdateTextTool{store: s, provider: provider, opts: opts}
}

func (t *UpdateTextTool) Name() string { return string(ToolUpdateText) }
func (t *UpdateTextTool) Description() string {
	return "Modify existing text in the editor based on user instructions. Use this when the user wants to edit, refine or change existing content."
}
func (t *UpdateTextTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"instruction": {"type": "string", "description": "The requested change"},
			"currentText": {"type": "string", "description": "Text to modify; defaults to the stored document"}
		},
		"required": ["instruction"]
	}`)
}

func (t *UpdateTextTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	id, err := conversationID(ctx, params)
	if err != nil {
		return textFailure(err), nil
	}
	instruction := llmutils.StringArg(params, "instruction")
	current := llmutils.StringArg(params, "currentText")
	if current == "" {
		if doc, err := t.store.GetDocument(ctx, id); err == nil {
			current = doc.Text
		}
	}
	if current == "" {
		return textFailure(errors.New("No text to update. Use write_text instead.")), nil
	}

	msgs := schema.NewMessages(
		schema.NewSystemMessage("You are a professional text editor. Apply the requested changes to the text while maintaining quality and coherence."),
		schema.NewUserMessage(fmt.Sprintf("Current text:\n%s\n\nInstruction: %s\n\nProvide the updated text:", current, instruction)),
	)
	resp, err := t.provider.Chat(ctx, msgs, nil, t.opts)
	if err != nil {
		return textFailure(err), nil
	}
	text := llmutils.StripThink(resp.Content)

	if _, err := t.store.UpsertDocument(ctx, id, text); err != nil {
		return textFailure(err), nil
	}
	return jsonResult(map[string]any{
		"success":        true,
		"text":           text,
		"changesApplied": instruction,
		"wordCount":      wordCount(text),
	}), nil
}

// ---------------------------------------------------------------------------
// ConversationMemoryTool
// ---------------------------------------------------------------------------

// ConversationMemoryTool returns the last messages of the conversation.
type ConversationMemoryTool struct {
	store TextStore
}

func NewConversationMemoryTool(s TextStore) *ConversationMemoryTool {
	return &ConversationMemoryTool{store: s}
}

func (t *ConversationMemoryTool) Name() string { return string(ToolConversationMemory) }
func (t *ConversationMemoryTool) Description() string {
	return "Retrieve past messages from the conversation history. Use this to understand context or recall what was discussed."
}
func (t *ConversationMemoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"lastN": {"type": "integer", "minimum": 1, "default": 10}
		}
	}`)
}

type memoryEntry struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (t *ConversationMemoryTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	fail := func(err error) string {
		return jsonResult(map[string]any{"success": false, "error": err.Error(), "messages": []memoryEntry{}})
	}
	id, err := conversationID(ctx, params)
	if err != nil {
		return fail(err), nil
	}

	msgs, err := t.store.RecentMessages(ctx, id, llmutils.IntArg(params, "lastN", 10))
	if err != nil {
		return fail(err), nil
	}
	entries := make([]memoryEntry, 0, len(msgs))
	for _, m := range msgs {
		entries = append(entries, memoryEntry{
			Role:      m.Role,
			Content:   m.Content,
			Timestamp: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return jsonResult(map[string]any{
		"success":  true,
		"messages": entries,
		"count":    len(entries),
	}), nil
}
