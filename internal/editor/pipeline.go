package editor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

const intentSystemPrompt = "You are an intent analyzer. Always respond with valid JSON."

const intentPrompt = `Analyze this user request and determine their intent:
User: "%s"

Current context:
- Has existing text in editor: %t
- Conversation history: %d messages

IMPORTANT RULES:
- "create_text" ONLY if user explicitly asks to write/generate/create text (e.g., "write a letter", "create an email", "draft a document")
- Simple greetings ("hello", "hi", "hey") are "ask_question" - NOT "create_text"
- Casual chat is "ask_question" - NOT "create_text"
- "update_text" ONLY if user asks to modify existing text AND there is text in editor
- Use "research" for factual questions about topics
- Use "calculate" for math problems

Respond with JSON:
{
  "intent": "create_text" | "update_text" | "ask_question" | "research" | "calculate",
  "needsText": boolean,
  "description": "brief description of what user wants"
}`

const responseSystemPrompt = "You are a helpful writing assistant. Be VERY concise. Never include generated text in your messages - that goes in the editor panel."

const responsePrompt = `Generate a helpful response to the user based on the tool results.

User Request: "%s"
User Intent: %s

%s

IMPORTANT RULES:
1. Keep your response SHORT and conversational (1-3 sentences maximum)
2. DO NOT include the generated text content in your response
3. Only describe what you did or provide information requested
4. If text was generated, just mention it was created/updated - don't show the text itself

Examples:
- "I've generated a 250-word letter for you."
- "The result is 4."
- "I found information about Python's history."
- "I've updated the text as requested."

Response:`

const (
	fallbackMessage   = "I encountered an issue processing your request."
	memoryLastN       = 5
	researchMaxResult = 2
)

var (
	reGreeting     = regexp.MustCompile(`(?i)^(hi|hello|hey|greetings|good morning|good afternoon|good evening|howdy|what's up|sup)\b`)
	reSearchFiller = regexp.MustCompile(`(?i)search|find|look up|about`)
)

// Agent is the four-stage editor pipeline.
type Agent struct {
	provider schema.LLMProvider
	opts     schema.ChatOptions
	tools    *tools.ToolList
}

// NewAgent builds the pipeline. tls must provide the editor tools.
func NewAgent(provider schema.LLMProvider, opts schema.ChatOptions, tls *tools.ToolList) *Agent {
	return &Agent{provider: provider, opts: opts, tools: tls}
}

// Run executes analyzeIntent → selectTools → executeTools → generateResponse.
func (a *Agent) Run(ctx context.Context, state *State) (Response, error) {
	ctx = tools.WithConversation(ctx, state.ConversationID)

	if err := a.analyzeIntent(ctx, state); err != nil {
		return Response{}, err
	}
	a.selectTools(state)
	a.executeTools(ctx, state)
	return a.generateResponse(ctx, state)
}

func (a *Agent) analyzeIntent(ctx context.Context, state *State) error {
	prompt := fmt.Sprintf(intentPrompt, state.lastMessage(), state.CurrentText != "", state.Messages.Len())
	resp, err := a.provider.Chat(ctx, schema.NewMessages(
		schema.NewSystemMessage(intentSystemPrompt),
		schema.NewUserMessage(prompt),
	), nil, a.opts)
	if err != nil {
		return fmt.Errorf("analyze intent: %w", err)
	}

	var parsed struct {
		Intent    Intent `json:"intent"`
		NeedsText bool   `json:"needsText"`
	}
	raw := llmutils.StripCodeFence(llmutils.StripThink(resp.Content))
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil || !parsed.Intent.valid() {
		slog.Debug("Intent not parsed, defaulting to ask_question", "content", llmutils.Truncate(resp.Content, 200))
		state.Intent, state.NeedsText = IntentAskQuestion, false
		return nil
	}
	state.Intent, state.NeedsText = parsed.Intent, parsed.NeedsText
	return nil
}

func (a *Agent) selectTools(state *State) {
	selected := []tools.ToolName{tools.ToolConversationMemory}
	has := func(name tools.ToolName) bool {
		for _, n := range selected {
			if n == name {
				return true
			}
		}
		return false
	}

	mentionsText := false
	for _, m := range state.Messages.Messages {
		lower := strings.ToLower(m.Content)
		if strings.Contains(lower, "current") || strings.Contains(lower, "existing") {
			mentionsText = true
			break
		}
	}
	if state.Intent == IntentUpdateText || mentionsText {
		selected = append(selected, tools.ToolReadText)
	}

	isGreeting := reGreeting.MatchString(strings.TrimSpace(strings.ToLower(state.lastMessage())))

	switch state.Intent {
	case IntentCreateText:
		if !isGreeting {
			selected = append(selected, tools.ToolWriteText)
		}
	case IntentUpdateText:
		if !has(tools.ToolReadText) {
			selected = append(selected, tools.ToolReadText)
		}
		selected = append(selected, tools.ToolUpdateText)
	case IntentResearch:
		selected = append(selected, tools.ToolWikipediaSearch)
	case IntentCalculate:
		selected = append(selected, tools.ToolCalculator)
	}
	state.ToolsToUse = selected
}

func (a *Agent) executeTools(ctx context.Context, state *State) {
	last := state.lastMessage()

	for _, name := range state.ToolsToUse {
		var params map[string]any
		switch name {
		case tools.ToolReadText:
			params = map[string]any{"conversationId": state.ConversationID}
		case tools.ToolWriteText:
			params = map[string]any{"conversationId": state.ConversationID, "prompt": last, "style": "professional"}
		case tools.ToolUpdateText:
			if state.CurrentText == "" {
				continue
			}
			params = map[string]any{"conversationId": state.ConversationID, "instruction": last, "currentText": state.CurrentText}
		case tools.ToolWikipediaSearch:
			query := strings.TrimSpace(reSearchFiller.ReplaceAllString(last, ""))
			params = map[string]any{"query": query, "maxResults": researchMaxResult}
		case tools.ToolCalculator:
			expr, ok := extractMathExpression(last)
			if !ok {
				continue
			}
			params = map[string]any{"expression": expr}
		case tools.ToolConversationMemory:
			params = map[string]any{"conversationId": state.ConversationID, "lastN": memoryLastN}
		default:
			continue
		}

		result := a.runTool(ctx, name, params)
		state.Results = append(state.Results, result)

		switch name {
		case tools.ToolReadText, tools.ToolWriteText, tools.ToolUpdateText:
			var out struct {
				Success bool    `json:"success"`
				Text    *string `json:"text"`
			}
			if json.Unmarshal(result.Output, &out) == nil && out.Success && out.Text != nil && *out.Text != "" {
				state.CurrentText = *out.Text
			}
		}
	}
}

func (a *Agent) runTool(ctx context.Context, name tools.ToolName, params map[string]any) ToolResult {
	failed := func(err error) ToolResult {
		out, _ := json.Marshal(map[string]any{"success": false, "error": err.Error()})
		return ToolResult{Name: name, Output: out}
	}

	t := a.tools.Get(string(name))
	if t == nil {
		return failed(fmt.Errorf("tool %s is not available", name))
	}

	argsJSON, _ := json.Marshal(params)
	slog.Info("Tool call", "name", name, "args", llmutils.Truncate(string(argsJSON), 200))

	out, err := t.Execute(ctx, params)
	if err != nil {
		return failed(err)
	}
	if !json.Valid([]byte(out)) {
		return failed(fmt.Errorf("%s", llmutils.Truncate(out, 200)))
	}
	return ToolResult{Name: name, Output: json.RawMessage(out)}
}

func (a *Agent) generateResponse(ctx context.Context, state *State) (Response, error) {
	var toolContext strings.Builder
	toolContext.WriteString("Tool Results:\n")
	for _, r := range state.Results {
		if !r.Succeeded() {
			continue
		}
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, r.Output, "", "  "); err != nil {
			pretty.Write(r.Output)
		}
		fmt.Fprintf(&toolContext, "- %s: %s\n", r.Name, pretty.String())
	}

	prompt := fmt.Sprintf(responsePrompt, state.lastMessage(), state.Intent, toolContext.String())
	resp, err := a.provider.Chat(ctx, schema.NewMessages(
		schema.NewSystemMessage(responseSystemPrompt),
		schema.NewUserMessage(prompt),
	), nil, a.opts)
	if err != nil {
		return Response{}, fmt.Errorf("generate response: %w", err)
	}

	out := Response{
		Message:   llmutils.StringOrDefault(strings.TrimSpace(llmutils.StripThink(resp.Content)), fallbackMessage),
		ToolsUsed: make([]string, 0, len(state.ToolsToUse)),
	}
	if state.CurrentText != "" {
		text := state.CurrentText
		out.Text = &text
	}
	for _, name := range state.ToolsToUse {
		out.ToolsUsed = append(out.ToolsUsed, string(name))
	}
	return out, nil
}
