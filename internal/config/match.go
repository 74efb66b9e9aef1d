package config

import (
	"github.com/crystaldolphin/miniagents/internal/providers"
)

// Backend is the LLM backend chosen for a model, with its credentials.
type Backend struct {
	Name    string
	APIKey  string
	APIBase string
}

// ResolveBackend picks the backend serving model. An empty model means
// agents.defaults.model. A backend whose keywords (or explicit prefix)
// match the model wins when it has a key; otherwise the first backend in
// registry order with a key is used. ok is false when no key is configured.
func (c *Config) ResolveBackend(model string) (Backend, bool) {
	if model == "" {
		model = c.Agents.Defaults.Model
	}

	if spec := providers.FindByModel(model); spec != nil {
		if b, ok := c.backendFor(spec); ok {
			return b, true
		}
	}
	for i := range providers.PROVIDERS {
		if b, ok := c.backendFor(&providers.PROVIDERS[i]); ok {
			return b, true
		}
	}
	return Backend{}, false
}

func (c *Config) backendFor(spec *providers.ProviderSpec) (Backend, bool) {
	p := c.ProviderByName(spec.Name)
	if p == nil || p.APIKey == "" {
		return Backend{}, false
	}
	base := p.APIBase
	if base == "" {
		base = spec.DefaultAPIBase
	}
	return Backend{Name: spec.Name, APIKey: p.APIKey, APIBase: base}, true
}
