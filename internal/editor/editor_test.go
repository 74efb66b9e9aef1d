package editor

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmtest"
	"github.com/crystaldolphin/miniagents/internal/store"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

// scriptedLLM answers each pipeline prompt by its system message.
type scriptedLLM struct {
	mu        sync.Mutex
	intent    string
	reply     string
	responses []string // prompts sent to the response stage
	titles    int
}

func (s *scriptedLLM) respond(msgs schema.Messages, _ []map[string]any) (schema.LLMResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := msgs.Messages[0]
	switch {
	case first.Role == schema.RoleUser:
		s.titles++
		return llmtest.Text(`"Meeting 'Request' Email"`), nil
	case strings.HasPrefix(first.Content, "You are an intent analyzer"):
		return llmtest.Text(s.intent), nil
	case strings.HasPrefix(first.Content, "You are a professional writing assistant"):
		return llmtest.Text("Dear team, please join the meeting on Friday."), nil
	case strings.HasPrefix(first.Content, "You are a professional text editor"):
		return llmtest.Text("Dear team, the meeting moved to Monday."), nil
	case strings.HasPrefix(first.Content, "You are a helpful writing assistant"):
		s.responses = append(s.responses, msgs.Messages[1].Content)
		return llmtest.Text(s.reply), nil
	}
	return schema.LLMResponse{}, errors.New("unexpected prompt")
}

func (s *scriptedLLM) lastResponsePrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.responses) == 0 {
		return ""
	}
	return s.responses[len(s.responses)-1]
}

type fixture struct {
	store   *store.Store
	llm     *scriptedLLM
	service *Service
	convID  string
}

func newFixture(t *testing.T, intent string) *fixture {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "editor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	llm := &scriptedLLM{intent: intent, reply: "Done."}
	p := &llmtest.Provider{Respond: llm.respond}
	opts := schema.NewChatOptions("test-model", 0, 0.7)

	tls := tools.NewToolList(
		tools.NewReadTextTool(st),
		tools.NewWriteTextTool(st, p, opts),
		tools.NewUpdateTextTool(st, p, opts),
		tools.NewCalculatorTool(tools.NewCalculator(0)),
		tools.NewConversationMemoryTool(st),
	)
	svc := NewService(st, NewAgent(p, opts, tls), p, ServiceOptions{
		TitleOptions: schema.NewChatOptions("test-model", 0, 0.3),
	})

	conv, err := st.CreateConversation(context.Background(), "")
	require.NoError(t, err)
	return &fixture{store: st, llm: llm, service: svc, convID: conv.ID}
}

func TestChat_CreateText(t *testing.T) {
	f := newFixture(t, `{"intent":"create_text","needsText":true,"description":"email"}`)
	f.llm.reply = "I've drafted the meeting email for you."
	ctx := context.Background()

	resp, err := f.service.Chat(ctx, f.convID, "Write an email inviting the team to a meeting")
	require.NoError(t, err)

	assert.Equal(t, "I've drafted the meeting email for you.", resp.Message)
	require.NotNil(t, resp.Text)
	assert.Equal(t, "Dear team, please join the meeting on Friday.", *resp.Text)
	assert.Equal(t, []string{"conversation_memory", "write_text"}, resp.ToolsUsed)

	doc, err := f.store.GetDocument(ctx, f.convID)
	require.NoError(t, err)
	assert.Equal(t, *resp.Text, doc.Text)

	conv, err := f.store.GetConversation(ctx, f.convID)
	require.NoError(t, err)
	assert.Equal(t, "Meeting Request Email", conv.Title)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, store.RoleAssistant, conv.Messages[1].Role)
	assert.Equal(t, resp.Message, conv.Messages[1].Content)

	prompt := f.llm.lastResponsePrompt()
	assert.Contains(t, prompt, "User Intent: create_text")
	assert.Contains(t, prompt, "- write_text: {\n  \"success\": true")
}

func TestChat_TitleOnlyOnFirstMessage(t *testing.T) {
	f := newFixture(t, `{"intent":"ask_question","needsText":false}`)
	ctx := context.Background()

	_, err := f.service.Chat(ctx, f.convID, "hello")
	require.NoError(t, err)
	_, err = f.service.Chat(ctx, f.convID, "how are you?")
	require.NoError(t, err)

	assert.Equal(t, 1, f.llm.titles)
}

func TestChat_GreetingSkipsWriteText(t *testing.T) {
	f := newFixture(t, `{"intent":"create_text","needsText":true}`)

	resp, err := f.service.Chat(context.Background(), f.convID, "Hello there, write something?")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory"}, resp.ToolsUsed)
	assert.Nil(t, resp.Text)
}

func TestChat_UpdateText(t *testing.T) {
	f := newFixture(t, `{"intent":"update_text","needsText":true}`)
	ctx := context.Background()
	_, err := f.store.UpsertDocument(ctx, f.convID, "Dear team, please join the meeting on Friday.")
	require.NoError(t, err)

	resp, err := f.service.Chat(ctx, f.convID, "Move the meeting to Monday")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory", "read_text", "update_text"}, resp.ToolsUsed)
	require.NotNil(t, resp.Text)
	assert.Equal(t, "Dear team, the meeting moved to Monday.", *resp.Text)

	doc, err := f.store.GetDocument(ctx, f.convID)
	require.NoError(t, err)
	assert.Equal(t, "Dear team, the meeting moved to Monday.", doc.Text)
}

func TestChat_UpdateWithoutTextIsSkipped(t *testing.T) {
	f := newFixture(t, `{"intent":"update_text","needsText":true}`)

	resp, err := f.service.Chat(context.Background(), f.convID, "Make it shorter")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory", "read_text", "update_text"}, resp.ToolsUsed)
	assert.Nil(t, resp.Text)
	assert.NotContains(t, f.llm.lastResponsePrompt(), "update_text:")
}

func TestChat_Calculate(t *testing.T) {
	f := newFixture(t, "```json\n{\"intent\":\"calculate\",\"needsText\":false}\n```")
	f.llm.reply = "The result is 48."

	resp, err := f.service.Chat(context.Background(), f.convID, "What is 12 * 4?")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory", "calculator"}, resp.ToolsUsed)

	prompt := f.llm.lastResponsePrompt()
	assert.Contains(t, prompt, "- calculator:")
	assert.Contains(t, prompt, `"result": 48`)
}

func TestChat_CalculateWithoutExpression(t *testing.T) {
	f := newFixture(t, `{"intent":"calculate","needsText":false}`)

	resp, err := f.service.Chat(context.Background(), f.convID, "Can you do some maths?")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory", "calculator"}, resp.ToolsUsed)
	assert.NotContains(t, f.llm.lastResponsePrompt(), "- calculator:")
}

func TestChat_UnparsableIntentDefaultsToQuestion(t *testing.T) {
	f := newFixture(t, "not json at all")

	resp, err := f.service.Chat(context.Background(), f.convID, "Write me a poem")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory"}, resp.ToolsUsed)
	assert.Contains(t, f.llm.lastResponsePrompt(), "User Intent: ask_question")
}

func TestChat_MentionOfCurrentTextReads(t *testing.T) {
	f := newFixture(t, `{"intent":"ask_question","needsText":false}`)

	resp, err := f.service.Chat(context.Background(), f.convID, "What does the current draft say?")
	require.NoError(t, err)
	assert.Equal(t, []string{"conversation_memory", "read_text"}, resp.ToolsUsed)
}

func TestChat_EmptyReplyUsesFallback(t *testing.T) {
	f := newFixture(t, `{"intent":"ask_question","needsText":false}`)
	f.llm.reply = "   "

	resp, err := f.service.Chat(context.Background(), f.convID, "hi")
	require.NoError(t, err)
	assert.Equal(t, fallbackMessage, resp.Message)
}

func TestChat_UnknownConversation(t *testing.T) {
	f := newFixture(t, `{"intent":"ask_question"}`)

	_, err := f.service.Chat(context.Background(), "missing", "hello")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestExtractMathExpression(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"What is 12 * 4?", "12 * 4", true},
		{"compute 2^10 please", "2^10", true},
		{"what is sqrt(16)", "sqrt(16)", true},
		{"how many hours in 3 days", "3", true},
		{"tell me a story", "", false},
	}
	for _, tc := range cases {
		got, ok := extractMathExpression(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("extractMathExpression(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestSelectTools(t *testing.T) {
	a := &Agent{}
	cases := []struct {
		intent Intent
		msg    string
		want   []tools.ToolName
	}{
		{IntentResearch, "find facts about Rome", []tools.ToolName{tools.ToolConversationMemory, tools.ToolWikipediaSearch}},
		{IntentCreateText, "hey, write a letter", []tools.ToolName{tools.ToolConversationMemory}},
		{IntentCreateText, "write a letter", []tools.ToolName{tools.ToolConversationMemory, tools.ToolWriteText}},
		{IntentUpdateText, "fix the existing text", []tools.ToolName{tools.ToolConversationMemory, tools.ToolReadText, tools.ToolUpdateText}},
	}
	for _, tc := range cases {
		state := &State{Intent: tc.intent, Messages: schema.NewMessages(schema.NewUserMessage(tc.msg))}
		a.selectTools(state)
		assert.Equal(t, tc.want, state.ToolsToUse, "intent %s, message %q", tc.intent, tc.msg)
	}
}
