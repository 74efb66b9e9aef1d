package providers

import (
	"context"
	"fmt"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// Params are the raw values needed to construct any schema.LLMProvider.
// Extracted from config.Config by the caller to avoid an import cycle.
type Params struct {
	APIKey       string
	APIBase      string
	DefaultModel string
	ProviderName string // registry name, e.g. "openai", "gemini"
}

// New creates the appropriate schema.LLMProvider for the given params.
//
//   - gemini → GeminiProvider (genai SDK)
//   - otherwise → OpenAIProvider (Responses API)
func New(ctx context.Context, p Params) (schema.LLMProvider, error) {
	if p.APIKey == "" {
		return nil, fmt.Errorf("no API key configured for model %q", p.DefaultModel)
	}
	switch p.ProviderName {
	case "gemini":
		return NewGeminiProvider(ctx, p.APIKey, p.DefaultModel)
	default:
		return NewOpenAIProvider(p.APIKey, p.APIBase, p.DefaultModel), nil
	}
}
