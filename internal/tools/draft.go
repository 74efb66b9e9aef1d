package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/crystaldolphin/miniagents/internal/draft"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

// DraftSession is the drafting state the draft tools act on.
type DraftSession interface {
	Create(ctx context.Context, topic string) (string, error)
	Refine(ctx context.Context, feedback string) (string, error)
	Save(filename string) (string, error)
	Version() int
}

// ---------------------------------------------------------------------------
// CreateDraftTool
// ---------------------------------------------------------------------------

// CreateDraftTool starts a new draft.
type CreateDraftTool struct {
	session DraftSession
}

func NewCreateDraftTool(session DraftSession) *CreateDraftTool {
	return &CreateDraftTool{session: session}
}

func (t *CreateDraftTool) Name() string { return string(ToolCreateDraft) }
func (t *CreateDraftTool) Description() string {
	return "Create an initial draft based on the user's topic or request. Use this tool when the user wants to start a new draft."
}
func (t *CreateDraftTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"topic": {
				"type": "string",
				"description": "What to draft, e.g. \"formal email requesting a meeting\""
			}
		},
		"required": ["topic"]
	}`)
}

func (t *CreateDraftTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	topic := llmutils.StringArg(params, "topic")
	if topic == "" {
		return "Error: topic is required", nil
	}
	if _, err := t.session.Create(ctx, topic); err != nil {
		return "Error: " + err.Error(), nil
	}
	return "Draft created successfully!", nil
}

// ---------------------------------------------------------------------------
// RefineDraftTool
// ---------------------------------------------------------------------------

// RefineDraftTool applies user feedback to the current draft.
type RefineDraftTool struct {
	session DraftSession
}

func NewRefineDraftTool(session DraftSession) *RefineDraftTool {
	return &RefineDraftTool{session: session}
}

func (t *RefineDraftTool) Name() string { return string(ToolRefineDraft) }
func (t *RefineDraftTool) Description() string {
	return "Refine the current draft based on user feedback. Use this tool when the user provides feedback to improve the draft."
}
func (t *RefineDraftTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"feedback": {
				"type": "string",
				"description": "The user's feedback on how to improve the draft"
			}
		},
		"required": ["feedback"]
	}`)
}

func (t *RefineDraftTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	feedback := llmutils.StringArg(params, "feedback")
	if _, err := t.session.Refine(ctx, feedback); err != nil {
		if errors.Is(err, draft.ErrNoDraft) {
			return "Error: No draft exists yet.", nil
		}
		return "Error: " + err.Error(), nil
	}
	return fmt.Sprintf("Draft refined to version %d!", t.session.Version()), nil
}

// ---------------------------------------------------------------------------
// SaveDraftTool
// ---------------------------------------------------------------------------

// SaveDraftTool writes the approved draft and its history to a JSON file.
type SaveDraftTool struct {
	session DraftSession
}

func NewSaveDraftTool(session DraftSession) *SaveDraftTool {
	return &SaveDraftTool{session: session}
}

func (t *SaveDraftTool) Name() string { return string(ToolSaveDraft) }
func (t *SaveDraftTool) Description() string {
	return "Save the final approved draft with version history to a JSON file. Use this tool when the user approves the draft and wants to save it."
}
func (t *SaveDraftTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"filename": {
				"type": "string",
				"description": "Name for the JSON file (without extension)"
			}
		},
		"required": ["filename"]
	}`)
}

func (t *SaveDraftTool) Execute(_ context.Context, params map[string]any) (string, error) {
	path, err := t.session.Save(llmutils.StringArg(params, "filename"))
	if err != nil {
		if errors.Is(err, draft.ErrNoDraft) {
			return "Error: No draft exists to save. Please create a draft first.", nil
		}
		return "Error saving draft: " + err.Error(), nil
	}
	return fmt.Sprintf("Draft has been saved successfully to '%s'.", path), nil
}
