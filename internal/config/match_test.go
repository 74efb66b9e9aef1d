package config

import "testing"

func TestResolveBackend_Keyword(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk-openai"
	cfg.Providers.Gemini.APIKey = "gm-key"

	cases := map[string]string{
		"gemini-2.0-flash":   "gemini",
		"gpt-4o":             "openai",
		"openai/my-finetune": "openai",
	}
	for model, want := range cases {
		b, ok := cfg.ResolveBackend(model)
		if !ok || b.Name != want {
			t.Errorf("%s: expected %s, got %q (ok=%v)", model, want, b.Name, ok)
		}
	}
}

func TestResolveBackend_FallbackToConfiguredKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.Gemini.APIKey = "gm-key"

	b, ok := cfg.ResolveBackend("gpt-4o")
	if !ok || b.Name != "gemini" {
		t.Fatalf("expected fallback to gemini, got %+v", b)
	}
	if b.APIKey != "gm-key" {
		t.Errorf("expected gemini key, got %q", b.APIKey)
	}
}

func TestResolveBackend_NoKeys(t *testing.T) {
	cfg := DefaultConfig()
	if b, ok := cfg.ResolveBackend(""); ok {
		t.Errorf("expected no backend, got %+v", b)
	}
}

func TestResolveBackend_APIBase(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Providers.OpenAI.APIKey = "sk"
	if b, _ := cfg.ResolveBackend("gpt-4o"); b.APIBase != "https://api.openai.com/v1" {
		t.Errorf("expected default base, got %q", b.APIBase)
	}
	cfg.Providers.OpenAI.APIBase = "http://localhost:8080/v1"
	if b, _ := cfg.ResolveBackend("gpt-4o"); b.APIBase != "http://localhost:8080/v1" {
		t.Errorf("expected configured base, got %q", b.APIBase)
	}
}
