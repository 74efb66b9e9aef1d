// Package schema holds the message, provider and tool contracts shared by
// every agent.
package schema

import (
	"context"
	"encoding/json"
)

// Tool is a function the model may call. Failures the model should see are
// reported in the result string, not as an error.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema (as raw JSON bytes) for this tool's parameters.
	Parameters() json.RawMessage
	Execute(ctx context.Context, params map[string]any) (string, error)
}
