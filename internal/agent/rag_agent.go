package agent

import (
	"context"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

const ragSystemPrompt = `You are an AI assistant specialized in answering questions.
Your knowledge comes ONLY from the PDF that was loaded into the system.

Use the tool ` + "`search_history`" + ` whenever you need to fetch factual info.
Cite the information you retrieve.`

const invalidToolMessage = "Invalid tool name."

// RagAgent answers questions from the ingested document collection.
type RagAgent struct {
	LoopRunner

	tools *tools.ToolList
}

// Ask answers one question. Questions do not share history.
func (a *RagAgent) Ask(ctx context.Context, question string) (Result, error) {
	conversation := schema.NewMessages(
		schema.NewSystemMessage(ragSystemPrompt),
		schema.NewUserMessage(question),
	)
	return a.run(ctx, conversation, a.tools)
}
