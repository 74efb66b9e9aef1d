package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crystaldolphin/miniagents/internal/draft"
	"github.com/crystaldolphin/miniagents/internal/history"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmtest"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

type echoTool struct {
	name  string
	calls int
}

func (t *echoTool) Name() string                { return t.name }
func (t *echoTool) Description() string         { return "echoes its input" }
func (t *echoTool) Parameters() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *echoTool) Execute(_ context.Context, params map[string]any) (string, error) {
	t.calls++
	v, _ := params["input"].(string)
	return "echo: " + v, nil
}

type searcherFunc func(ctx context.Context, q string, k int) ([]string, error)

func (f searcherFunc) Search(ctx context.Context, q string, k int) ([]string, error) {
	return f(ctx, q, k)
}

var testSettings = schema.NewAgentSettings("test-model", 5, 0.7, 0)

func newTestAgent(p schema.LLMProvider, ts ...schema.Tool) *ReactAgent {
	return &ReactAgent{LoopRunner: newLoopRunner(p, testSettings), tools: tools.NewToolList(ts...)}
}

func TestLoopRunner_ToolThenAnswer(t *testing.T) {
	echo := &echoTool{name: "echo"}
	p := llmtest.NewProvider(
		llmtest.ToolCall("c1", "echo", map[string]any{"input": "hi"}),
		llmtest.Text("done"),
	)
	a := newTestAgent(p, echo)

	var steps []schema.Message
	a.OnStep = func(m schema.Message) { steps = append(steps, m) }

	res, err := a.Run(context.Background(), "say hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != "done" {
		t.Errorf("expected 'done', got %q", res.Content)
	}
	if echo.calls != 1 {
		t.Errorf("expected 1 tool call, got %d", echo.calls)
	}
	if len(res.ToolsUsed) != 1 || res.ToolsUsed[0] != "echo" {
		t.Errorf("unexpected tools used %v", res.ToolsUsed)
	}

	// system, user, assistant(tool call), tool result, assistant(final)
	if res.Conversation.Len() != 5 {
		t.Fatalf("expected 5 messages, got %d", res.Conversation.Len())
	}
	toolMsg := res.Conversation.Messages[3]
	if toolMsg.Role != schema.RoleTool || toolMsg.Content != "echo: hi" || toolMsg.ToolCallID != "c1" {
		t.Errorf("unexpected tool message %+v", toolMsg)
	}
	if len(steps) != 3 {
		t.Errorf("expected 3 observed steps, got %d", len(steps))
	}

	calls := p.Calls()
	if len(calls[0].Tools) != 1 {
		t.Errorf("expected 1 tool definition, got %d", len(calls[0].Tools))
	}
	if calls[1].Messages.Len() != 4 {
		t.Errorf("expected second call to carry 4 messages, got %d", calls[1].Messages.Len())
	}
}

func TestLoopRunner_MissingToolDefault(t *testing.T) {
	p := llmtest.NewProvider(llmtest.ToolCall("c1", "nope", nil), llmtest.Text("ok"))
	res, err := newTestAgent(p).Run(context.Background(), "x")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Conversation.Messages[3].Content; got != "Error: Tool 'nope' not found" {
		t.Errorf("unexpected missing-tool result %q", got)
	}
}

func TestLoopRunner_MaxIter(t *testing.T) {
	p := &llmtest.Provider{Respond: func(schema.Messages, []map[string]any) (schema.LLMResponse, error) {
		return llmtest.ToolCall("c", "echo", map[string]any{"input": "again"}), nil
	}}
	res, err := newTestAgent(p, &echoTool{name: "echo"}).Run(context.Background(), "loop")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Content != maxIterMessage {
		t.Errorf("expected max-iteration message, got %q", res.Content)
	}
	if len(p.Calls()) != testSettings.MaxIter {
		t.Errorf("expected %d LLM calls, got %d", testSettings.MaxIter, len(p.Calls()))
	}
}

func TestLoopRunner_LLMError(t *testing.T) {
	p := llmtest.NewProvider()
	p.Err = errors.New("boom")
	if _, err := newTestAgent(p).Run(context.Background(), "x"); err == nil {
		t.Fatal("expected error")
	}
}

func TestReactAgent_FactoryTools(t *testing.T) {
	registry := tools.NewRegistry(
		tools.NewEvalExpressionTool(tools.NewCalculator(0)),
		&echoTool{name: "get_fact"},
		&echoTool{name: "search_history"},
	)
	p := llmtest.NewProvider(
		llmtest.ToolCall("c1", "eval_expression", map[string]any{"expression": "(12 + 3) * 3"}),
		llmtest.Text("The answer is 45."),
	)
	a := NewFactory(p, testSettings, registry).NewReactAgent()

	res, err := a.Run(context.Background(), "add 12 + 3 then multiply by 3")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Conversation.Messages[3].Content; got != "The result is: 45" {
		t.Errorf("unexpected tool result %q", got)
	}

	first := p.Calls()[0]
	if len(first.Tools) != 2 {
		t.Errorf("expected 2 tools offered, got %d", len(first.Tools))
	}
	if !strings.Contains(first.Messages.Messages[0].Content, "DECISION PROCESS") {
		t.Error("expected ReAct system prompt")
	}
}

func TestRagAgent_InvalidToolAndSearch(t *testing.T) {
	var gotK int
	searcher := searcherFunc(func(_ context.Context, q string, k int) ([]string, error) {
		gotK = k
		return []string{"The Dartmouth workshop was held in 1956."}, nil
	})
	p := llmtest.NewProvider(
		schema.LLMResponse{ToolCalls: []schema.ToolCallRequest{
			{Id: "a", Name: "search_history", Arguments: map[string]any{"query": "Dartmouth"}},
			{Id: "b", Name: "search_web", Arguments: map[string]any{"query": "x"}},
		}},
		llmtest.Text("It was held in 1956 (Result 1)."),
	)
	settings := schema.NewAgentSettings("test-model", 5, 0, 0)
	a := NewFactory(p, testSettings, tools.NewRegistry()).NewRagAgent(settings, searcher, 3)

	res, err := a.Ask(context.Background(), "When was the Dartmouth workshop?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotK != 3 {
		t.Errorf("expected k=3, got %d", gotK)
	}
	msgs := res.Conversation.Messages
	if msgs[3].Content != "Result 1:\nThe Dartmouth workshop was held in 1956." {
		t.Errorf("unexpected search result %q", msgs[3].Content)
	}
	if msgs[4].Content != invalidToolMessage {
		t.Errorf("expected %q, got %q", invalidToolMessage, msgs[4].Content)
	}
	if opts := p.Calls()[0].Options; opts.Temperature != 0 {
		t.Errorf("expected temperature 0, got %v", opts.Temperature)
	}
}

func TestChatbot_Stateless(t *testing.T) {
	p := llmtest.NewProvider(llmtest.Text("a"), llmtest.Text("b"))
	c := NewChatbot(p, schema.NewChatOptions("m", 0, 0.7), ModeStateless, nil)
	ctx := context.Background()

	_, _ = c.Reply(ctx, "first")
	reply, err := c.Reply(ctx, "second")
	if err != nil || reply != "b" {
		t.Fatalf("unexpected reply %q, %v", reply, err)
	}
	if n := p.Calls()[1].Messages.Len(); n != 1 {
		t.Errorf("expected a single message per call, got %d", n)
	}
	if c.History().Len() != 0 {
		t.Errorf("expected no history, got %d", c.History().Len())
	}
}

func TestChatbot_MemoryGrows(t *testing.T) {
	p := llmtest.NewProvider(llmtest.Text("Hi Bob"), llmtest.Text("Your name is Bob"))
	c := NewChatbot(p, schema.NewChatOptions("m", 0, 0.7), ModeMemory, nil)
	ctx := context.Background()

	_, _ = c.Reply(ctx, "I am Bob")
	if _, err := c.Reply(ctx, "What is my name?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sent := p.Calls()[1].Messages
	if sent.Len() != 3 {
		t.Fatalf("expected 3 messages on second call, got %d", sent.Len())
	}
	if sent.Messages[1].Role != schema.RoleAssistant || sent.Messages[1].Content != "Hi Bob" {
		t.Errorf("unexpected remembered reply %+v", sent.Messages[1])
	}
	if c.History().Len() != 4 {
		t.Errorf("expected 4 remembered messages, got %d", c.History().Len())
	}
}

func TestChatbot_ErrorDropsInput(t *testing.T) {
	p := llmtest.NewProvider()
	p.Err = errors.New("down")
	c := NewChatbot(p, schema.NewChatOptions("m", 0, 0.7), ModeMemory, nil)
	if _, err := c.Reply(context.Background(), "hello"); err == nil {
		t.Fatal("expected error")
	}
	if c.History().Len() != 0 {
		t.Errorf("expected history rolled back, got %d", c.History().Len())
	}
}

func TestChatbot_PersistentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat_history.json")
	ctx := context.Background()

	first := NewChatbot(llmtest.NewProvider(llmtest.Text("Nice to meet you")), schema.NewChatOptions("m", 0, 0.7), ModePersistent, history.NewStore(path))
	if n, err := first.Load(); err != nil || n != 0 {
		t.Fatalf("expected empty history, got %d, %v", n, err)
	}
	if _, err := first.Reply(ctx, "I like tea"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := llmtest.NewProvider(llmtest.Text("You like tea"))
	second := NewChatbot(p, schema.NewChatOptions("m", 0, 0.7), ModePersistent, history.NewStore(path))
	n, err := second.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 restored messages, got %d", n)
	}
	if _, err := second.Reply(ctx, "What do I like?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := p.Calls()[0].Messages.Messages[0].Content; got != "I like tea" {
		t.Errorf("expected restored first message, got %q", got)
	}
}

func TestParseChatMode(t *testing.T) {
	for in, want := range map[string]ChatMode{"": ModeMemory, "Stateless": ModeStateless, "persistent": ModePersistent} {
		got, err := ParseChatMode(in)
		if err != nil || got != want {
			t.Errorf("ParseChatMode(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseChatMode("forever"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestIsExit(t *testing.T) {
	for _, in := range []string{"exit", "QUIT", " Exit "} {
		if !IsExit(in) {
			t.Errorf("expected %q to exit", in)
		}
	}
	if IsExit("exiting soon") {
		t.Error("expected non-exit input")
	}
}

func TestDrafter_CreateThenSave(t *testing.T) {
	dir := t.TempDir()
	p := llmtest.NewProvider(
		llmtest.Text("What would you like to draft?"),
		llmtest.ToolCall("c1", "create_draft", map[string]any{"topic": "meeting request"}),
		llmtest.Text("Dear team, let's meet."),
		llmtest.ToolCall("c2", "save_draft", map[string]any{"filename": "meeting"}),
	)
	session := draft.NewSession(p, schema.NewChatOptions("m", 0, 0.7), dir)
	d := NewFactory(p, testSettings, tools.NewRegistry()).NewDrafter("", session)
	ctx := context.Background()

	greet, err := d.Greet(ctx)
	if err != nil {
		t.Fatalf("greet: %v", err)
	}
	if greet.Reply != "What would you like to draft?" || greet.Done {
		t.Errorf("unexpected greeting turn %+v", greet)
	}
	if got := p.Calls()[0].Messages.Messages[1].Content; got != DrafterGreeting {
		t.Errorf("expected greeting as first input, got %q", got)
	}

	turn, err := d.Turn(ctx, "Create a draft for a meeting request")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if len(turn.ToolResults) != 1 || turn.ToolResults[0] != "Draft created successfully!" {
		t.Errorf("unexpected tool results %v", turn.ToolResults)
	}
	if session.Version() != 1 || turn.Done {
		t.Errorf("expected version 1 and not done, got %d, %v", session.Version(), turn.Done)
	}

	turn, err = d.Turn(ctx, "Save as meeting")
	if err != nil {
		t.Fatalf("turn: %v", err)
	}
	if !turn.Done || !d.Done() {
		t.Errorf("expected session done after save, got %+v", turn)
	}
	system := p.Calls()[3].Messages.Messages[0].Content
	if !strings.Contains(system, "Current draft version: 1") || !strings.Contains(system, "Current draft exists: Yes") {
		t.Errorf("expected prompt to report draft state, got:\n%s", system)
	}
	if _, err := os.Stat(filepath.Join(dir, "meeting.json")); err != nil {
		t.Errorf("expected saved draft file: %v", err)
	}
}

func TestDrafter_RefineWithoutDraft(t *testing.T) {
	p := llmtest.NewProvider(llmtest.ToolCall("c1", "refine_draft", map[string]any{"feedback": "shorter"}))
	session := draft.NewSession(p, schema.NewChatOptions("m", 0, 0.7), t.TempDir())
	d := NewFactory(p, testSettings, tools.NewRegistry()).NewDrafter("", session)

	turn, err := d.Turn(context.Background(), "make it shorter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if turn.ToolResults[0] != "Error: No draft exists yet." {
		t.Errorf("unexpected result %q", turn.ToolResults[0])
	}
	if turn.Done {
		t.Error("expected session to continue")
	}
}
