package tools

import (
	"sort"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// ToolName is the canonical name of a built-in tool.
type ToolName string

const (
	ToolEvalExpression     ToolName = "eval_expression"
	ToolGetFact            ToolName = "get_fact"
	ToolCreateDraft        ToolName = "create_draft"
	ToolRefineDraft        ToolName = "refine_draft"
	ToolSaveDraft          ToolName = "save_draft"
	ToolSearchHistory      ToolName = "search_history"
	ToolReadText           ToolName = "read_text"
	ToolWriteText          ToolName = "write_text"
	ToolUpdateText         ToolName = "update_text"
	ToolWikipediaSearch    ToolName = "wikipedia_search"
	ToolCalculator         ToolName = "calculator"
	ToolConversationMemory ToolName = "conversation_memory"
)

// Registry is the immutable pool of shared tools that agents pick from.
// Session-bound tools (drafts, editor text) are built per agent instead.
type Registry struct {
	tools map[ToolName]schema.Tool
}

// NewRegistry indexes ts by name; a later duplicate wins.
func NewRegistry(ts ...schema.Tool) *Registry {
	r := &Registry{tools: make(map[ToolName]schema.Tool, len(ts))}
	for _, t := range ts {
		r.tools[ToolName(t.Name())] = t
	}
	return r
}

// GetTool returns the tool with the given name, or nil.
func (r *Registry) GetTool(name ToolName) schema.Tool {
	return r.tools[name]
}

// AllTools returns every registered tool, ordered by name.
func (r *Registry) AllTools() *ToolList {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, string(name))
	}
	sort.Strings(names)

	list := NewToolList()
	for _, name := range names {
		list.add(r.tools[ToolName(name)])
	}
	return list
}

// Select returns the named tools in the order given; unknown names are skipped.
func (r *Registry) Select(names ...ToolName) *ToolList {
	list := NewToolList()
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			list.add(t)
		}
	}
	return list
}
