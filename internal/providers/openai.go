package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// OpenAIProvider talks to the OpenAI Responses API through the official SDK.
type OpenAIProvider struct {
	client       openai.Client
	defaultModel string
}

// NewOpenAIProvider constructs a provider from raw config values.
// The caller extracts these from config.Config to avoid an import cycle.
func NewOpenAIProvider(apiKey, apiBase, defaultModel string) *OpenAIProvider {
	return &OpenAIProvider{
		client:       openai.NewClient(clientOptions(apiKey, apiBase)...),
		defaultModel: defaultModel,
	}
}

func clientOptions(apiKey, apiBase string) []option.RequestOption {
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if apiBase != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(apiBase, "/")+"/"))
	}
	return opts
}

func (p *OpenAIProvider) DefaultModel() string { return p.defaultModel }

// Chat implements schema.LLMProvider.
func (p *OpenAIProvider) Chat(
	ctx context.Context,
	messages schema.Messages,
	tools []map[string]any,
	opts schema.ChatOptions,
) (schema.LLMResponse, error) {
	model := opts.Model
	if model == "" {
		model = p.defaultModel
	}

	params := responses.ResponseNewParams{
		Model: StripProviderPrefix(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: convertMessagesToResponses(messages),
		},
	}
	if fns := convertToolsToResponses(tools); len(fns) > 0 {
		params.Tools = fns
	}

	reqOpts := []option.RequestOption{
		option.WithJSONSet("temperature", opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		reqOpts = append(reqOpts, option.WithJSONSet("max_output_tokens", opts.MaxTokens))
	}

	resp, err := p.client.Responses.New(ctx, params, reqOpts...)
	if err != nil {
		return schema.LLMResponse{}, fmt.Errorf("openai responses: %w", err)
	}

	return parseResponsesOutput(resp), nil
}

// convertMessagesToResponses maps the conversation onto Responses API input items.
func convertMessagesToResponses(messages schema.Messages) []responses.ResponseInputItemUnionParam {
	items := make([]responses.ResponseInputItemUnionParam, 0, len(messages.Messages))

	for _, m := range messages.Messages {
		switch m.Role {
		case schema.RoleSystem:
			items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleSystem))
		case schema.RoleUser:
			items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleUser))
		case schema.RoleAssistant:
			if m.Content != "" {
				items = append(items, responses.ResponseInputItemParamOfMessage(m.Content, responses.EasyInputMessageRoleAssistant))
			}
			for _, tc := range m.ToolCalls {
				items = append(items, responses.ResponseInputItemParamOfFunctionCall(tc.ArgumentsJSON(), tc.ID, tc.Name))
			}
		case schema.RoleTool:
			items = append(items, responses.ResponseInputItemParamOfFunctionCallOutput(m.ToolCallID, m.Content))
		}
	}

	return items
}

// convertToolsToResponses maps OpenAI function definitions onto function tools.
func convertToolsToResponses(tools []map[string]any) []responses.ToolUnionParam {
	var out []responses.ToolUnionParam
	for _, t := range tools {
		fn, ok := t["function"].(map[string]any)
		if !ok {
			continue
		}
		name, _ := fn["name"].(string)
		desc, _ := fn["description"].(string)
		params, _ := fn["parameters"].(map[string]any)

		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        name,
				Description: openai.String(desc),
				Parameters:  params,
				Strict:      openai.Bool(false),
			},
		})
	}
	return out
}

func parseResponsesOutput(resp *responses.Response) schema.LLMResponse {
	var toolCalls []schema.ToolCallRequest
	for _, item := range resp.Output {
		if item.Type != "function_call" {
			continue
		}
		fc := item.AsFunctionCall()
		args, err := repairJSON(fc.Arguments)
		if err != nil {
			slog.Warn("failed to parse tool arguments", "tool", fc.Name, "err", err)
			args = map[string]any{}
		}
		toolCalls = append(toolCalls, schema.ToolCallRequest{
			Id:        fc.CallID,
			Name:      fc.Name,
			Arguments: args,
		})
	}

	finish := "stop"
	switch {
	case len(toolCalls) > 0:
		finish = "tool_calls"
	case resp.Status == "incomplete":
		finish = "length"
	}

	return schema.LLMResponse{
		Content:      resp.OutputText(),
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage: map[string]int{
			"input_tokens":  int(resp.Usage.InputTokens),
			"output_tokens": int(resp.Usage.OutputTokens),
		},
	}
}

// repairJSON attempts to unmarshal JSON, retrying after stripping trailing
// garbage characters. This handles some LLMs that emit truncated tool arguments.
func repairJSON(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err == nil {
		return out, nil
	}

	// Attempt 1: trim trailing non-JSON characters.
	stripped := strings.TrimRight(raw, " \t\n\r}]")
	if !strings.HasSuffix(stripped, "}") {
		stripped += "}"
	}
	if err := json.Unmarshal([]byte(stripped), &out); err == nil {
		return out, nil
	}

	// Attempt 2: find the last complete JSON object.
	if i := strings.LastIndex(raw, "}"); i >= 0 {
		if err := json.Unmarshal([]byte(raw[:i+1]), &out); err == nil {
			return out, nil
		}
	}

	return map[string]any{}, fmt.Errorf("cannot repair JSON: %s", raw)
}
