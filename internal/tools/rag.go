package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

// Searcher returns the contents of the chunks most similar to query.
type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]string, error)
}

// SearchHistoryTool retrieves passages from the ingested document.
type SearchHistoryTool struct {
	searcher Searcher
	k        int
}

// NewSearchHistoryTool creates the retrieval tool; k defaults to 5.
func NewSearchHistoryTool(searcher Searcher, k int) *SearchHistoryTool {
	if k <= 0 {
		k = 5
	}
	return &SearchHistoryTool{searcher: searcher, k: k}
}

func (t *SearchHistoryTool) Name() string { return string(ToolSearchHistory) }
func (t *SearchHistoryTool) Description() string {
	return "Searches the ingested document and returns relevant extracted text."
}
func (t *SearchHistoryTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "What to look up in the document"}
		},
		"required": ["query"]
	}`)
}

func (t *SearchHistoryTool) Execute(ctx context.Context, params map[string]any) (string, error) {
	query := llmutils.StringArg(params, "query")
	if query == "" {
		return "Error: query is required", nil
	}

	hits, err := t.searcher.Search(ctx, query, t.k)
	if err != nil {
		return "Error: " + err.Error(), nil
	}
	if len(hits) == 0 {
		return "No relevant information found.", nil
	}

	parts := make([]string, len(hits))
	for i, content := range hits {
		parts[i] = fmt.Sprintf("Result %d:\n%s", i+1, content)
	}
	return strings.Join(parts, "\n\n"), nil
}
