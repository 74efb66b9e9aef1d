// Package dependency wires miniagents services using go.uber.org/dig.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/dig"

	"github.com/crystaldolphin/miniagents/internal/agent"
	"github.com/crystaldolphin/miniagents/internal/config"
	"github.com/crystaldolphin/miniagents/internal/editor"
	"github.com/crystaldolphin/miniagents/internal/providers"
	"github.com/crystaldolphin/miniagents/internal/rag"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/server"
	"github.com/crystaldolphin/miniagents/internal/store"
	"github.com/crystaldolphin/miniagents/internal/tools"
)

// Container resolves services on first use, so a command only pays for
// (and only needs credentials for) what it touches.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg *config.Config
	d   *dig.Container

	mu      sync.Mutex
	closers []func() error
}

// LLMModel is a named string type so dig can distinguish it from plain
// strings when injecting the effective model name.
type LLMModel string

// New registers every constructor. Nothing is built until a getter runs.
func New(cfg *config.Config) (*Container, error) {
	c := &Container{cfg: cfg, d: dig.New()}

	ctors := []any{
		func() *config.Config { return cfg },
		newProviderSet,
		newDefaultProvider,
		resolveLLMModel,
		newToolRegistry,
		newAgentFactory,
		newEmbedder,
		newRagIndex,
		newRagPipeline,
		c.newEditorStore,
		newEditorService,
		newEditorServer,
	}
	for _, ctor := range ctors {
		if err := c.d.Provide(ctor); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func resolve[T any](c *Container) (T, error) {
	var out T
	err := c.d.Invoke(func(v T) { out = v })
	if err != nil {
		return out, dig.RootCause(err)
	}
	return out, nil
}

func (c *Container) Config() *config.Config { return c.cfg }

func (c *Container) Providers() (*ProviderSet, error)         { return resolve[*ProviderSet](c) }
func (c *Container) AgentFactory() (*agent.AgentFactory, error) { return resolve[*agent.AgentFactory](c) }
func (c *Container) RagIndex() (*rag.Index, error)              { return resolve[*rag.Index](c) }
func (c *Container) RagPipeline() (*rag.Pipeline, error)        { return resolve[*rag.Pipeline](c) }
func (c *Container) EditorStore() (*store.Store, error)         { return resolve[*store.Store](c) }
func (c *Container) EditorServer() (*server.Server, error)      { return resolve[*server.Server](c) }

// AgentFactoryFor returns the agent factory bound to the provider serving
// model. An empty model means the default model.
func (c *Container) AgentFactoryFor(model string) (*agent.AgentFactory, schema.LLMProvider, error) {
	f, err := c.AgentFactory()
	if err != nil {
		return nil, nil, err
	}
	set, err := c.Providers()
	if err != nil {
		return nil, nil, err
	}
	p, err := set.For(model)
	if err != nil {
		return nil, nil, err
	}
	return f.WithProvider(p), p, nil
}

// Close releases resources opened by resolved services.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Container) onClose(fn func() error) {
	c.mu.Lock()
	c.closers = append(c.closers, fn)
	c.mu.Unlock()
}

// ProviderSet builds one LLM provider per backend and reuses it for every
// model served by that backend.
type ProviderSet struct {
	cfg *config.Config

	mu     sync.Mutex
	byName map[string]schema.LLMProvider
}

func newProviderSet(cfg *config.Config) *ProviderSet {
	return &ProviderSet{cfg: cfg, byName: make(map[string]schema.LLMProvider)}
}

// For returns the provider serving model.
func (s *ProviderSet) For(model string) (schema.LLMProvider, error) {
	if model == "" {
		model = s.cfg.Agents.Defaults.Model
	}
	backend, ok := s.cfg.ResolveBackend(model)
	if !ok {
		return nil, fmt.Errorf("no API key configured for model %q: edit %s or set OPENAI_API_KEY / GEMINI_API_KEY", model, config.ConfigPath())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byName[backend.Name]; ok {
		return p, nil
	}
	p, err := providers.New(context.Background(), providers.Params{
		APIKey:       backend.APIKey,
		APIBase:      backend.APIBase,
		DefaultModel: model,
		ProviderName: backend.Name,
	})
	if err != nil {
		return nil, err
	}
	s.byName[backend.Name] = p
	return p, nil
}

func newDefaultProvider(set *ProviderSet, cfg *config.Config) (schema.LLMProvider, error) {
	return set.For(cfg.Agents.Defaults.Model)
}

func resolveLLMModel(cfg *config.Config, p schema.LLMProvider) LLMModel {
	m := cfg.Agents.Defaults.Model
	if m == "" {
		m = p.DefaultModel()
	}
	return LLMModel(m)
}

func newToolRegistry(cfg *config.Config) *tools.Registry {
	wiki := tools.NewWikipediaClient(tools.WikipediaOptions{
		APIURL:     cfg.Tools.Wikipedia.APIURL,
		SummaryURL: cfg.Tools.Wikipedia.SummaryURL,
		UserAgent:  cfg.Tools.Wikipedia.UserAgent,
		Timeout:    time.Duration(cfg.Tools.Wikipedia.TimeoutSeconds) * time.Second,
		MaxChars:   cfg.Tools.Wikipedia.MaxChars,
	})
	calc := tools.NewCalculator(time.Duration(cfg.Tools.Calculator.TimeoutMs) * time.Millisecond)

	return tools.NewRegistry(
		tools.NewEvalExpressionTool(calc),
		tools.NewGetFactTool(wiki),
		tools.NewCalculatorTool(calc),
		tools.NewWikipediaSearchTool(wiki),
	)
}

func newAgentFactory(p schema.LLMProvider, cfg *config.Config, m LLMModel, reg *tools.Registry) *agent.AgentFactory {
	settings := schema.NewAgentSettings(
		string(m),
		cfg.Agents.Defaults.MaxToolIter,
		cfg.Agents.Defaults.Temperature,
		cfg.Agents.Defaults.MaxTokens,
	)
	return agent.NewFactory(p, settings, reg)
}

func newEmbedder(cfg *config.Config) (schema.Embedder, error) {
	key := cfg.Providers.OpenAI.APIKey
	if key == "" {
		return nil, fmt.Errorf("embeddings need an OpenAI API key: edit %s or set OPENAI_API_KEY", config.ConfigPath())
	}
	return providers.NewOpenAIEmbedder(key, cfg.Providers.OpenAI.APIBase, cfg.RAG.EmbeddingModel), nil
}

func newRagIndex(cfg *config.Config, emb schema.Embedder) (*rag.Index, error) {
	return rag.OpenIndex(config.ExpandPath(cfg.RAG.PersistDir), cfg.RAG.Collection, emb, cfg.RAG.BatchSize)
}

func newRagPipeline(cfg *config.Config, ix *rag.Index) *rag.Pipeline {
	return &rag.Pipeline{
		Loader:   rag.NewLoader(time.Duration(cfg.Tools.Wikipedia.TimeoutSeconds)*time.Second, cfg.Tools.Wikipedia.UserAgent),
		Splitter: rag.NewSplitter(cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap),
		Index:    ix,
	}
}

func (c *Container) newEditorStore(cfg *config.Config) (*store.Store, error) {
	st, err := store.New(config.ExpandPath(cfg.Server.DBPath))
	if err != nil {
		return nil, err
	}
	c.onClose(st.Close)
	return st, nil
}

func newEditorService(set *ProviderSet, cfg *config.Config, st *store.Store, reg *tools.Registry) (*editor.Service, error) {
	p, err := set.For(cfg.Server.Model)
	if err != nil {
		return nil, err
	}
	opts := schema.NewChatOptions(cfg.Server.Model, cfg.Agents.Defaults.MaxTokens, cfg.Server.Temperature)

	tls := tools.NewToolList(
		tools.NewReadTextTool(st),
		tools.NewWriteTextTool(st, p, opts),
		tools.NewUpdateTextTool(st, p, opts),
		tools.NewConversationMemoryTool(st),
		reg.GetTool(tools.ToolCalculator),
		reg.GetTool(tools.ToolWikipediaSearch),
	)
	return editor.NewService(st, editor.NewAgent(p, opts, tls), p, editor.ServiceOptions{
		HistoryWindow: cfg.Server.HistoryWindow,
		TitleOptions:  schema.NewChatOptions(cfg.Server.Model, 0, cfg.Server.TitleTemperature),
	}), nil
}

func newEditorServer(cfg *config.Config, st *store.Store, svc *editor.Service) *server.Server {
	return server.New(st, svc, cfg.Server.Port)
}
