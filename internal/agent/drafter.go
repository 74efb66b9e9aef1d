package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

// DrafterGreeting opens every drafting session in place of user input.
const DrafterGreeting = "Hello! I'm ready to help you create a draft. What would you like to draft today?"

const drafterSystemPrompt = `You are Drafter, a helpful writing assistant AI.
You help users create and refine drafts of emails, reports, messages, and other documents.

TOOL USAGE GUIDELINES:
- Use 'create_draft' when the user wants to start a new draft
- Use 'refine_draft' when the user wants to improve or modify the current draft
- Use 'save_draft' when the user approves and wants to save the final version

Current draft version: %d
Current draft exists: %s

Be conversational and guide the user through the drafting process.`

// DraftState is the part of the drafting session the prompt reports on.
type DraftState interface {
	Version() int
	HasDraft() bool
}

// DraftTurn is the outcome of one user turn.
type DraftTurn struct {
	Reply       string
	ToolsUsed   []string
	ToolResults []string
	// Done is set once a draft has been saved.
	Done bool
}

// Drafter runs a human-in-the-loop drafting conversation. Every user turn
// makes one model call and executes the draft tools it requests.
type Drafter struct {
	provider schema.LLMProvider
	opts     schema.ChatOptions
	state    DraftState
	tools    *tools.ToolList

	history schema.Messages
	done    bool
}

// Greet plays the opening turn.
func (d *Drafter) Greet(ctx context.Context) (DraftTurn, error) {
	return d.Turn(ctx, DrafterGreeting)
}

// Done reports whether the draft has been saved.
func (d *Drafter) Done() bool { return d.done }

// Turn sends input to the model and applies any requested draft tools.
func (d *Drafter) Turn(ctx context.Context, input string) (DraftTurn, error) {
	if d.done {
		return DraftTurn{Done: true}, nil
	}

	exists := "No"
	if d.state.HasDraft() {
		exists = "Yes"
	}
	conversation := schema.NewMessages(schema.NewSystemMessage(fmt.Sprintf(drafterSystemPrompt, d.state.Version(), exists)))
	conversation.Append(d.history)
	user := schema.NewUserMessage(input)
	conversation.Add(user)

	resp, err := d.provider.Chat(ctx, conversation, d.tools.Definitions(), d.opts)
	if err != nil {
		return DraftTurn{}, fmt.Errorf("llm call: %w", err)
	}

	content := llmutils.StripThink(resp.Content)
	d.history.Add(user, schema.NewAssistantMessage(content, resp.AssistantToolCalls()))

	turn := DraftTurn{Reply: content}
	for _, tc := range resp.ToolCalls {
		turn.ToolsUsed = append(turn.ToolsUsed, tc.Name)

		result := fmt.Sprintf("Error: Tool '%s' not found", tc.Name)
		if t := d.tools.Get(tc.Name); t != nil {
			out, err := t.Execute(ctx, tc.Arguments)
			if err != nil {
				out = "Error: " + err.Error()
			}
			result = out
		}
		turn.ToolResults = append(turn.ToolResults, result)
		d.history.AddToolResult(tc.Id, tc.Name, result)

		if isSaved(result) {
			d.done = true
		}
	}
	turn.Done = d.done
	return turn, nil
}

func isSaved(result string) bool {
	lower := strings.ToLower(result)
	return strings.Contains(lower, "saved") && strings.Contains(lower, "successfully")
}
