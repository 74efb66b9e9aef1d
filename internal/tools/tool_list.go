package tools

import (
	"encoding/json"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// ToolList is the ordered set of tools offered to the LLM by one agent.
// Definitions keep the order the tools were given in.
type ToolList struct {
	order []schema.Tool
	index map[string]int
}

func NewToolList(ts ...schema.Tool) *ToolList {
	list := &ToolList{index: make(map[string]int, len(ts))}
	for _, t := range ts {
		list.add(t)
	}
	return list
}

// add appends t; a later tool with the same name replaces the earlier one in place.
func (l *ToolList) add(t schema.Tool) {
	if i, ok := l.index[t.Name()]; ok {
		l.order[i] = t
		return
	}
	l.index[t.Name()] = len(l.order)
	l.order = append(l.order, t)
}

// Get returns the tool with the given name, or nil.
func (l *ToolList) Get(name string) schema.Tool {
	if i, ok := l.index[name]; ok {
		return l.order[i]
	}
	return nil
}

func (l *ToolList) Names() []string {
	names := make([]string, len(l.order))
	for i, t := range l.order {
		names[i] = t.Name()
	}
	return names
}

func (l *ToolList) Len() int { return len(l.order) }

// Definitions returns the function-calling schema of every tool.
// A tool whose Parameters are not valid JSON is offered with an empty object schema.
func (l *ToolList) Definitions() []map[string]any {
	defs := make([]map[string]any, 0, len(l.order))
	for _, t := range l.order {
		var params any
		if err := json.Unmarshal(t.Parameters(), &params); err != nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs = append(defs, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name(),
				"description": t.Description(),
				"parameters":  params,
			},
		})
	}
	return defs
}
