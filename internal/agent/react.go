package agent

import (
	"context"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

const reactSystemPrompt = `You are a helpful AI assistant with access to tools.

TOOL USAGE GUIDELINES:
- Use 'get_fact' to look up factual information from Wikipedia (population, geography, historical facts, etc.)
- Use 'eval_expression' to perform mathematical calculations and arithmetic operations
- For creative tasks (poems, stories, opinions), answer directly WITHOUT using tools

DECISION PROCESS:
1. Analyze the user's query carefully
2. If it requires factual data you don't have, use 'get_fact'
3. If it requires numerical computation, use 'eval_expression'
4. If it's creative/subjective, respond directly with your own knowledge
5. You can use multiple tools in parallel if needed

Always provide clear, helpful responses based on the tool results or your own knowledge.`

// ReactAgent reasons and acts with a calculator and a Wikipedia lookup
// until the model answers without requesting a tool.
type ReactAgent struct {
	LoopRunner

	tools *tools.ToolList
}

// Run answers a single request. Each call starts a fresh conversation.
func (a *ReactAgent) Run(ctx context.Context, input string) (Result, error) {
	conversation := schema.NewMessages(
		schema.NewSystemMessage(reactSystemPrompt),
		schema.NewUserMessage(input),
	)
	return a.run(ctx, conversation, a.tools)
}
