package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

const (
	defaultMaxIter = 20

	maxIterMessage = "I've reached the maximum number of tool iterations without a final answer."
)

// Result is the outcome of one LLM ↔ tool loop.
type Result struct {
	Content      string
	ToolsUsed    []string
	Conversation schema.Messages
}

// LoopRunner executes the LLM ↔ tool iteration loop.
// It is embedded by ReactAgent and RagAgent to share the loop body.
type LoopRunner struct {
	provider schema.LLMProvider
	settings schema.AgentSettings

	// MissingTool builds the tool result for a call naming no registered tool.
	MissingTool func(name string) string
	// OnStep observes every message appended to the conversation.
	OnStep func(msg schema.Message)
}

func newLoopRunner(provider schema.LLMProvider, settings schema.AgentSettings) LoopRunner {
	return LoopRunner{provider: provider, settings: settings}
}

// run calls the model until it answers without tool calls or MaxIter is hit.
// The returned conversation includes every assistant and tool message.
func (r *LoopRunner) run(ctx context.Context, conversation schema.Messages, tls *tools.ToolList) (Result, error) {
	maxIter := r.settings.MaxIter
	if maxIter <= 0 {
		maxIter = defaultMaxIter
	}

	var toolsUsed []string
	for i := 0; i < maxIter; i++ {
		resp, err := r.provider.Chat(ctx, conversation, tls.Definitions(), r.settings.ChatOptions())
		if err != nil {
			slog.Error("LLM error", "err", err)
			return Result{ToolsUsed: toolsUsed, Conversation: conversation}, fmt.Errorf("llm call: %w", err)
		}

		content := llmutils.StripThink(resp.Content)
		if !resp.HasToolCalls() {
			r.append(&conversation, schema.NewAssistantMessage(content, nil))
			return Result{Content: content, ToolsUsed: toolsUsed, Conversation: conversation}, nil
		}

		r.append(&conversation, schema.NewAssistantMessage(content, resp.AssistantToolCalls()))

		for _, tc := range resp.ToolCalls {
			toolsUsed = append(toolsUsed, tc.Name)
			result := r.execute(ctx, tls, tc)
			r.append(&conversation, schema.NewToolResultMessage(tc.Id, tc.Name, result))
		}
	}

	return Result{Content: maxIterMessage, ToolsUsed: toolsUsed, Conversation: conversation}, nil
}

func (r *LoopRunner) execute(ctx context.Context, tls *tools.ToolList, tc schema.ToolCallRequest) string {
	argsJSON, _ := json.Marshal(tc.Arguments)
	slog.Info("Tool call", "name", tc.Name, "args", llmutils.Truncate(string(argsJSON), 200))

	t := tls.Get(tc.Name)
	if t == nil {
		if r.MissingTool != nil {
			return r.MissingTool(tc.Name)
		}
		return fmt.Sprintf("Error: Tool '%s' not found", tc.Name)
	}

	result, err := t.Execute(ctx, tc.Arguments)
	if err != nil {
		slog.Warn("Tool failed", "name", tc.Name, "err", err)
		return "Error: " + err.Error()
	}
	return result
}

func (r *LoopRunner) append(conversation *schema.Messages, msg schema.Message) {
	conversation.Add(msg)
	if r.OnStep != nil {
		r.OnStep(msg)
	}
}
