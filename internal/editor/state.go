// Package editor runs the AgentEditor pipeline: it classifies the user's
// intent, picks the tools that serve it, runs them against the conversation's
// document and summarises what happened in a short reply.
package editor

import (
	"encoding/json"

	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

// Intent is the classified purpose of the latest user message.
type Intent string

const (
	IntentCreateText  Intent = "create_text"
	IntentUpdateText  Intent = "update_text"
	IntentAskQuestion Intent = "ask_question"
	IntentResearch    Intent = "research"
	IntentCalculate   Intent = "calculate"
)

func (i Intent) valid() bool {
	switch i {
	case IntentCreateText, IntentUpdateText, IntentAskQuestion, IntentResearch, IntentCalculate:
		return true
	}
	return false
}

// ToolResult is the raw JSON output of one tool run.
type ToolResult struct {
	Name   tools.ToolName
	Output json.RawMessage
}

// Succeeded reports whether the output carries "success": true.
func (r ToolResult) Succeeded() bool {
	var probe struct {
		Success bool `json:"success"`
	}
	return json.Unmarshal(r.Output, &probe) == nil && probe.Success
}

// State flows through the pipeline stages.
type State struct {
	ConversationID string
	Messages       schema.Messages
	CurrentText    string

	Intent     Intent
	NeedsText  bool
	ToolsToUse []tools.ToolName
	Results    []ToolResult
}

func (s *State) lastMessage() string {
	if last, ok := s.Messages.Last(); ok {
		return last.Content
	}
	return ""
}

// Response is the reply returned to the client.
type Response struct {
	Message   string   `json:"message"`
	Text      *string  `json:"text"`
	ToolsUsed []string `json:"tools_used"`
}
