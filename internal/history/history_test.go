package history

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

func TestLoad_MissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "none.json"))
	msgs, err := s.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msgs.Len() != 0 {
		t.Errorf("expected empty history, got %d messages", msgs.Len())
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "chat_history.json"))
	want := schema.NewMessages(
		schema.NewUserMessage("Hi, I'm Zoë"),
		schema.NewAssistantMessage("Hello Zoë! <3", nil),
		schema.NewUserMessage("What's my name?"),
		schema.NewAssistantMessage("Your name is Zoë.", nil),
	)

	if err := s.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSave_OnlyConversationMessages(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "h.json"))
	msgs := schema.NewMessages(schema.NewSystemMessage("be nice"), schema.NewUserMessage("2+2?"))
	msgs.AddAssistant("", []schema.ToolCall{{ID: "1", Name: "eval_expression"}})
	msgs.AddToolResult("1", "eval_expression", "The result is: 4")
	msgs.AddAssistant("4", nil)

	if err := s.Save(msgs); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := s.Load()
	want := schema.NewMessages(schema.NewUserMessage("2+2?"), schema.NewAssistantMessage("4", nil))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected messages (-want +got):\n%s", diff)
	}
}

func TestSave_FileFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "h.json")
	s := NewStore(path)
	if err := s.Save(schema.NewMessages(schema.NewUserMessage("café"))); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "\n  {\n    \"type\": \"human\",\n    \"content\": \"café\"") {
		t.Errorf("unexpected file contents:\n%s", text)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewStore(path).Load(); err == nil {
		t.Error("expected parse error")
	}
}

func TestNewStore_DefaultPath(t *testing.T) {
	if got := NewStore("").Path(); got != DefaultFile {
		t.Errorf("expected %q, got %q", DefaultFile, got)
	}
}
