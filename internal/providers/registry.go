package providers

import "strings"

// ProviderSpec is the metadata record for one LLM provider.
type ProviderSpec struct {
	Name           string   // config field name, e.g. "gemini"
	Keywords       []string // model-name keywords for matching (lowercase)
	EnvKey         string   // env var read when the config key is empty
	DisplayName    string   // shown in `miniagents status`
	DefaultAPIBase string   // fallback base URL when none is configured
	Embeddings     bool     // offers the embeddings endpoint used for RAG
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// PROVIDERS is the registry. Order = match priority; the last entry is the
// fallback for models no keyword claims.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "gemini",
		Keywords:    []string{"gemini"},
		EnvKey:      "GEMINI_API_KEY",
		DisplayName: "Gemini",
	},
	{
		Name:           "openai",
		Keywords:       []string{"gpt", "o1", "o3", "o4", "text-embedding"},
		EnvKey:         "OPENAI_API_KEY",
		DisplayName:    "OpenAI",
		DefaultAPIBase: "https://api.openai.com/v1",
		Embeddings:     true,
	},
}

// FindByModel matches a provider by explicit "name/" prefix or model-name
// keyword (case-insensitive). Returns nil when nothing matches.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	modelPrefix, _, found := strings.Cut(modelLower, "/")

	if found {
		for i := range PROVIDERS {
			if PROVIDERS[i].Name == modelPrefix {
				return &PROVIDERS[i]
			}
		}
	}

	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}

// StripProviderPrefix removes a registry "name/" prefix from model.
func StripProviderPrefix(model string) string {
	if prefix, rest, ok := strings.Cut(model, "/"); ok && FindByName(strings.ToLower(prefix)) != nil {
		return rest
	}
	return model
}
