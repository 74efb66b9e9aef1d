package providers

import (
	"context"
	"testing"
)

func TestFindByModel(t *testing.T) {
	cases := map[string]string{
		"gpt-4o":                 "openai",
		"gemini-2.0-flash":       "gemini",
		"openai/custom-model":    "openai",
		"GEMINI/gemini-1.5-pro":  "gemini",
		"text-embedding-3-small": "openai",
	}
	for model, want := range cases {
		spec := FindByModel(model)
		if spec == nil {
			t.Errorf("FindByModel(%q) = nil, want %q", model, want)
			continue
		}
		if spec.Name != want {
			t.Errorf("FindByModel(%q) = %q, want %q", model, spec.Name, want)
		}
	}
	if spec := FindByModel("llama3"); spec != nil {
		t.Errorf("expected no match for llama3, got %q", spec.Name)
	}
}

func TestStripProviderPrefix(t *testing.T) {
	if got := StripProviderPrefix("openai/gpt-4o"); got != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %q", got)
	}
	if got := StripProviderPrefix("org/model"); got != "org/model" {
		t.Errorf("expected unknown prefix kept, got %q", got)
	}
}

func TestNew_RequiresKey(t *testing.T) {
	if _, err := New(context.Background(), Params{DefaultModel: "gpt-4o", ProviderName: "openai"}); err == nil {
		t.Error("expected error without API key")
	}
	p, err := New(context.Background(), Params{APIKey: "sk", DefaultModel: "gpt-4o", ProviderName: "openai"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.DefaultModel() != "gpt-4o" {
		t.Errorf("expected default model gpt-4o, got %q", p.DefaultModel())
	}
}

func TestLabel(t *testing.T) {
	if got := FindByName("openai").Label(); got != "OpenAI" {
		t.Errorf("expected OpenAI, got %q", got)
	}
	if got := (ProviderSpec{Name: "local"}).Label(); got != "Local" {
		t.Errorf("expected Local, got %q", got)
	}
}
