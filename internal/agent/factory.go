package agent

import (
	"github.com/crystaldolphin/miniagents/internal/draft"
	"github.com/crystaldolphin/miniagents/internal/history"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

// AgentFactory creates agents that share one provider.
// Created agents are lightweight and own only what they need for a session.
type AgentFactory struct {
	provider schema.LLMProvider
	settings schema.AgentSettings
	registry *tools.Registry
}

// NewFactory constructs an AgentFactory. settings are the agent defaults and
// registry holds the built-in tools.
func NewFactory(provider schema.LLMProvider, settings schema.AgentSettings, registry *tools.Registry) *AgentFactory {
	return &AgentFactory{
		provider: provider,
		settings: settings,
		registry: registry,
	}
}

// Settings returns the default agent settings.
func (f *AgentFactory) Settings() schema.AgentSettings { return f.settings }

// NewChatbot creates a tool-less chatbot using model (or the default model).
func (f *AgentFactory) NewChatbot(model string, mode ChatMode, store *history.Store) *Chatbot {
	opts := f.settings.ChatOptions()
	if model != "" {
		opts.Model = model
	}
	return NewChatbot(f.provider, opts, mode, store)
}

// NewReactAgent creates a ReAct agent with the calculator and fact tools.
func (f *AgentFactory) NewReactAgent() *ReactAgent {
	return &ReactAgent{
		LoopRunner: newLoopRunner(f.provider, f.settings),
		tools:      f.registry.Select(tools.ToolEvalExpression, tools.ToolGetFact),
	}
}

// NewDrafter creates a drafter bound to session. The draft tools operate on
// the same session the prompt reports on.
func (f *AgentFactory) NewDrafter(model string, session *draft.Session) *Drafter {
	opts := f.settings.ChatOptions()
	if model != "" {
		opts.Model = model
	}
	return &Drafter{
		provider: f.provider,
		opts:     opts,
		state:    session,
		tools: tools.NewToolList(
			tools.NewCreateDraftTool(session),
			tools.NewRefineDraftTool(session),
			tools.NewSaveDraftTool(session),
		),
		history: schema.NewMessages(),
	}
}

// NewRagAgent creates a retrieval agent over searcher, returning topK chunks
// per search. settings normally carry temperature 0.
func (f *AgentFactory) NewRagAgent(settings schema.AgentSettings, searcher tools.Searcher, topK int) *RagAgent {
	runner := newLoopRunner(f.provider, settings)
	runner.MissingTool = func(string) string { return invalidToolMessage }
	return &RagAgent{
		LoopRunner: runner,
		tools:      tools.NewToolList(tools.NewSearchHistoryTool(searcher, topK)),
	}
}

// WithProvider returns a copy of the factory that uses p.
func (f *AgentFactory) WithProvider(p schema.LLMProvider) *AgentFactory {
	clone := *f
	clone.provider = p
	return &clone
}
