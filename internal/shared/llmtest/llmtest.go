// Package llmtest provides scripted LLM and embedding fakes for tests.
package llmtest

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/crystaldolphin/miniagents/internal/schema"
)

// ErrScriptExhausted is returned when a Provider receives more calls than scripted.
var ErrScriptExhausted = errors.New("llmtest: no scripted response left")

// Call records one Chat invocation.
type Call struct {
	Messages schema.Messages
	Tools    []map[string]any
	Options  schema.ChatOptions
}

// Provider replays scripted responses in order.
// When Respond is set it is used instead of the script.
type Provider struct {
	mu        sync.Mutex
	responses []schema.LLMResponse
	calls     []Call

	Respond func(messages schema.Messages, tools []map[string]any) (schema.LLMResponse, error)
	Err     error
}

// NewProvider returns a Provider replaying responses.
func NewProvider(responses ...schema.LLMResponse) *Provider {
	return &Provider{responses: responses}
}

func (p *Provider) DefaultModel() string { return "test-model" }

func (p *Provider) Chat(_ context.Context, messages schema.Messages, tools []map[string]any, opts schema.ChatOptions) (schema.LLMResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls = append(p.calls, Call{Messages: messages.Clone(), Tools: tools, Options: opts})
	if p.Err != nil {
		return schema.LLMResponse{}, p.Err
	}
	if p.Respond != nil {
		return p.Respond(messages, tools)
	}
	if len(p.responses) == 0 {
		return schema.LLMResponse{}, ErrScriptExhausted
	}
	resp := p.responses[0]
	p.responses = p.responses[1:]
	return resp, nil
}

// Calls returns a copy of every recorded invocation.
func (p *Provider) Calls() []Call {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Call, len(p.calls))
	copy(out, p.calls)
	return out
}

// Text builds a terminal text response.
func Text(content string) schema.LLMResponse {
	return schema.LLMResponse{Content: content, FinishReason: "stop"}
}

// ToolCall builds a response requesting a single tool call.
func ToolCall(id, name string, args map[string]any) schema.LLMResponse {
	return schema.LLMResponse{
		ToolCalls:    []schema.ToolCallRequest{{Id: id, Name: name, Arguments: args}},
		FinishReason: "tool_calls",
	}
}

// Embedder hashes words into a small fixed-size vector so texts sharing
// words land close together.
type Embedder struct {
	Dim int
}

func (e Embedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	dim := e.Dim
	if dim <= 0 {
		dim = 64
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec := make([]float32, dim)
		for _, word := range strings.Fields(strings.ToLower(text)) {
			h := fnv.New32a()
			_, _ = h.Write([]byte(strings.Trim(word, ".,;:!?\"'()")))
			vec[h.Sum32()%uint32(dim)]++
		}
		var norm float64
		for _, v := range vec {
			norm += float64(v * v)
		}
		if norm == 0 {
			vec[0] = 1
			norm = 1
		}
		n := float32(math.Sqrt(norm))
		for j := range vec {
			vec[j] /= n
		}
		out[i] = vec
	}
	return out, nil
}
