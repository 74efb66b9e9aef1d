package providers

import (
	"testing"

	"google.golang.org/genai"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

func TestConvertMessagesToGenai(t *testing.T) {
	msgs := schema.NewMessages(schema.NewSystemMessage("sys"), schema.NewUserMessage("question"))
	msgs.AddAssistant("thinking", []schema.ToolCall{
		{ID: "a", Name: "get_fact", Arguments: map[string]any{"query": "x"}},
		{ID: "b", Name: "eval_expression", Arguments: map[string]any{"expression": "1+1"}},
	})
	msgs.AddToolResult("a", "get_fact", "fact")
	msgs.AddToolResult("b", "eval_expression", "The result is: 2")

	contents, system := convertMessagesToGenai(msgs)
	if system == nil || len(system.Parts) != 1 || system.Parts[0].Text != "sys" {
		t.Fatalf("unexpected system instruction %+v", system)
	}
	if len(contents) != 3 {
		t.Fatalf("expected 3 contents (user, model, tool results), got %d", len(contents))
	}
	if contents[1].Role != "model" || len(contents[1].Parts) != 3 {
		t.Errorf("expected model content with text and 2 calls, got %+v", contents[1])
	}
	results := contents[2]
	if results.Role != "user" || len(results.Parts) != 2 {
		t.Fatalf("expected merged tool results, got %+v", results)
	}
	if results.Parts[1].FunctionResponse.Name != "eval_expression" {
		t.Errorf("unexpected function response %+v", results.Parts[1].FunctionResponse)
	}
}

func TestParseGenaiResponse(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{
				Role: "model",
				Parts: []*genai.Part{
					{Text: "hidden", Thought: true},
					{Text: "Let me check."},
					{FunctionCall: &genai.FunctionCall{Name: "get_fact", Args: map[string]any{"query": "France"}}},
				},
			},
		}},
	}

	out, err := parseGenaiResponse(resp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "Let me check." {
		t.Errorf("expected visible text only, got %q", out.Content)
	}
	if len(out.ToolCalls) != 1 || out.ToolCalls[0].Id == "" {
		t.Fatalf("expected one tool call with a generated id, got %+v", out.ToolCalls)
	}
	if out.FinishReason != "tool_calls" {
		t.Errorf("expected tool_calls finish reason, got %q", out.FinishReason)
	}
}

func TestParseGenaiResponse_Empty(t *testing.T) {
	if _, err := parseGenaiResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Error("expected error for empty candidates")
	}
}
