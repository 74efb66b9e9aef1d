package providers

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

const (
	roleUser  = "user"
	roleModel = "model"
)

// GeminiProvider talks to the Gemini API through google.golang.org/genai.
type GeminiProvider struct {
	client       *genai.Client
	defaultModel string
}

// NewGeminiProvider creates a Gemini-backed provider.
func NewGeminiProvider(ctx context.Context, apiKey, defaultModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client, defaultModel: defaultModel}, nil
}

func (g *GeminiProvider) DefaultModel() string { return g.defaultModel }

// Chat implements schema.LLMProvider.
func (g *GeminiProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = g.defaultModel
	}

	contents, system := convertMessagesToGenai(messages)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Tools:             convertToolsToGenai(tools),
		Temperature:       genai.Ptr(float32(opts.Temperature)),
	}
	if opts.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxTokens)
	}

	resp, err := g.client.Models.GenerateContent(ctx, StripProviderPrefix(model), contents, cfg)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("gemini generate: %w", err)
	}
	return parseGenaiResponse(resp)
}

// convertMessagesToGenai splits out the system instruction and maps the rest
// onto user/model contents. Consecutive tool results share one user content.
func convertMessagesToGenai(messages schema.Messages) ([]*genai.Content, *genai.Content) {
	var (
		contents []*genai.Content
		system   *genai.Content
	)

	for _, msg := range messages.Messages {
		switch msg.Role {
		case schema.RoleSystem:
			if msg.Content == "" {
				continue
			}
			if system == nil {
				system = &genai.Content{}
			}
			system.Parts = append(system.Parts, &genai.Part{Text: msg.Content})

		case schema.RoleTool:
			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       msg.ToolCallID,
					Name:     msg.ToolName,
					Response: map[string]any{"result": msg.Content},
				},
			}
			if n := len(contents); n > 0 && isFunctionResponseContent(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})

		case schema.RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, &genai.Part{Text: msg.Content})
			}
			for _, tc := range msg.ToolCalls {
				parts = append(parts, &genai.Part{
					FunctionCall: &genai.FunctionCall{ID: tc.ID, Name: tc.Name, Args: tc.Arguments},
				})
			}
			if len(parts) > 0 {
				contents = append(contents, &genai.Content{Role: roleModel, Parts: parts})
			}

		default:
			contents = append(contents, &genai.Content{
				Role:  roleUser,
				Parts: []*genai.Part{{Text: msg.Content}},
			})
		}
	}

	return contents, system
}

func isFunctionResponseContent(c *genai.Content) bool {
	if c.Role != roleUser || len(c.Parts) == 0 {
		return false
	}
	return c.Parts[0].FunctionResponse != nil
}

// convertToolsToGenai maps OpenAI function definitions onto declarations,
// passing the JSON Schema through unchanged.
func convertToolsToGenai(tools []map[string]any) []*genai.Tool {
	var fds []*genai.FunctionDeclaration
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := fn["name"].(string)
		desc, _ := fn["description"].(string)
		fds = append(fds, &genai.FunctionDeclaration{
			Name:                 name,
			Description:          desc,
			ParametersJsonSchema: fn["parameters"],
		})
	}
	if len(fds) == 0 {
		return nil
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

func parseGenaiResponse(resp *genai.GenerateContentResponse) (schema.LLMResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return schema.LLMResponse{}, fmt.Errorf("gemini: empty response")
	}

	var (
		text      strings.Builder
		toolCalls []schema.ToolCallRequest
	)
	for i, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d_%s", i, part.FunctionCall.Name)
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			toolCalls = append(toolCalls, schema.ToolCallRequest{Id: id, Name: part.FunctionCall.Name, Arguments: args})
		case part.Text != "" && !part.Thought:
			text.WriteString(part.Text)
		}
	}

	finish := "stop"
	if len(toolCalls) > 0 {
		finish = "tool_calls"
	}

	usage := map[string]int{}
	if resp.UsageMetadata != nil {
		usage["input_tokens"] = int(resp.UsageMetadata.PromptTokenCount)
		usage["output_tokens"] = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return schema.LLMResponse{
		Content:      text.String(),
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage:        usage,
	}, nil
}
