package tools

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crystaldolphin/miniagents/internal/draft"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmtest"
)

func newDraftTools(t *testing.T, responses ...schema.LLMResponse) (*draft.Session, *ToolList, string) {
	t.Helper()
	dir := t.TempDir()
	session := draft.NewSession(llmtest.NewProvider(responses...), schema.ChatOptions{}, dir)
	list := NewToolList(
		NewCreateDraftTool(session),
		NewRefineDraftTool(session),
		NewSaveDraftTool(session),
	)
	return session, list, dir
}

func TestDraftTools_Flow(t *testing.T) {
	session, list, dir := newDraftTools(t, llmtest.Text("v1 text"), llmtest.Text("v2 text"))
	ctx := context.Background()

	out, _ := list.Get("create_draft").Execute(ctx, map[string]any{"topic": "thank-you note"})
	if out != "Draft created successfully!" {
		t.Errorf("unexpected create result %q", out)
	}

	out, _ = list.Get("refine_draft").Execute(ctx, map[string]any{"feedback": "shorter"})
	if out != "Draft refined to version 2!" {
		t.Errorf("unexpected refine result %q", out)
	}
	if session.Version() != 2 {
		t.Errorf("expected version 2, got %d", session.Version())
	}

	out, _ = list.Get("save_draft").Execute(ctx, map[string]any{"filename": "note"})
	want := "Draft has been saved successfully to '" + filepath.Join(dir, "note.json") + "'."
	if out != want {
		t.Errorf("expected %q, got %q", want, out)
	}
}

func TestDraftTools_NoDraft(t *testing.T) {
	_, list, _ := newDraftTools(t)
	ctx := context.Background()

	out, _ := list.Get("refine_draft").Execute(ctx, map[string]any{"feedback": "x"})
	if out != "Error: No draft exists yet." {
		t.Errorf("unexpected refine result %q", out)
	}
	out, _ = list.Get("save_draft").Execute(ctx, map[string]any{"filename": "x"})
	if out != "Error: No draft exists to save. Please create a draft first." {
		t.Errorf("unexpected save result %q", out)
	}
}

type failingSave struct{ DraftSession }

func (failingSave) Save(string) (string, error) { return "", errors.New("disk full") }

func TestSaveDraftTool_WriteError(t *testing.T) {
	tool := NewSaveDraftTool(failingSave{})
	out, _ := tool.Execute(context.Background(), map[string]any{"filename": "x"})
	if !strings.HasPrefix(out, "Error saving draft: disk full") {
		t.Errorf("unexpected result %q", out)
	}
}
