// Package config defines the configuration schema for miniagents.
//
// JSON keys use camelCase. YAML files use the same key names.
package config

import (
	"os"
	"path/filepath"
	"strings"
)

// ProviderConfig holds credentials for one LLM provider.
type ProviderConfig struct {
	APIKey  string `json:"apiKey" yaml:"apiKey"`
	APIBase string `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
}

// ProvidersConfig holds credentials for all supported LLM providers.
type ProvidersConfig struct {
	OpenAI ProviderConfig `json:"openai" yaml:"openai"`
	Gemini ProviderConfig `json:"gemini" yaml:"gemini"`
}

// AgentDefaults holds default values for agent behaviour.
type AgentDefaults struct {
	Model       string  `json:"model" yaml:"model"`
	MaxTokens   int     `json:"maxTokens" yaml:"maxTokens"`
	Temperature float64 `json:"temperature" yaml:"temperature"`
	MaxToolIter int     `json:"maxToolIterations" yaml:"maxToolIterations"`
}

func defaultAgentDefaults() AgentDefaults {
	return AgentDefaults{
		Model:       "gpt-4o",
		MaxTokens:   4096,
		Temperature: 0.7,
		MaxToolIter: 10,
	}
}

// AgentsConfig wraps agent defaults.
type AgentsConfig struct {
	Defaults AgentDefaults `json:"defaults" yaml:"defaults"`
}

// ChatConfig configures the plain chatbots.
type ChatConfig struct {
	Model       string `json:"model" yaml:"model"`
	Mode        string `json:"mode" yaml:"mode"` // "stateless", "memory" or "persistent"
	HistoryFile string `json:"historyFile" yaml:"historyFile"`
}

func defaultChatConfig() ChatConfig {
	return ChatConfig{
		Model:       "gpt-4o",
		Mode:        "persistent",
		HistoryFile: "chat_history.json",
	}
}

// DraftConfig configures the drafting agent.
type DraftConfig struct {
	Model     string `json:"model" yaml:"model"`
	OutputDir string `json:"outputDir" yaml:"outputDir"`
}

func defaultDraftConfig() DraftConfig {
	return DraftConfig{Model: "gpt-4o", OutputDir: "."}
}

// RAGConfig configures document ingestion and the retrieval agent.
type RAGConfig struct {
	Model          string  `json:"model" yaml:"model"`
	Temperature    float64 `json:"temperature" yaml:"temperature"`
	EmbeddingModel string  `json:"embeddingModel" yaml:"embeddingModel"`
	PersistDir     string  `json:"persistDir" yaml:"persistDir"`
	Collection     string  `json:"collection" yaml:"collection"`
	ChunkSize      int     `json:"chunkSize" yaml:"chunkSize"`
	ChunkOverlap   int     `json:"chunkOverlap" yaml:"chunkOverlap"`
	TopK           int     `json:"topK" yaml:"topK"`
	BatchSize      int     `json:"batchSize" yaml:"batchSize"`
}

func defaultRAGConfig() RAGConfig {
	return RAGConfig{
		Model:          "gpt-4o",
		Temperature:    0,
		EmbeddingModel: "text-embedding-3-small",
		PersistDir:     "./ai_history_rag_db",
		Collection:     "ai_history",
		ChunkSize:      900,
		ChunkOverlap:   200,
		TopK:           5,
		BatchSize:      64,
	}
}

// WikipediaConfig configures the Wikipedia lookup tools.
type WikipediaConfig struct {
	APIURL         string `json:"apiUrl" yaml:"apiUrl"`
	SummaryURL     string `json:"summaryUrl" yaml:"summaryUrl"`
	UserAgent      string `json:"userAgent" yaml:"userAgent"`
	TimeoutSeconds int    `json:"timeoutSeconds" yaml:"timeoutSeconds"`
	MaxChars       int    `json:"maxChars" yaml:"maxChars"`
}

// CalculatorConfig configures the expression evaluator.
type CalculatorConfig struct {
	TimeoutMs int `json:"timeoutMs" yaml:"timeoutMs"`
}

// ToolsConfig groups tool settings.
type ToolsConfig struct {
	Wikipedia  WikipediaConfig  `json:"wikipedia" yaml:"wikipedia"`
	Calculator CalculatorConfig `json:"calculator" yaml:"calculator"`
}

func defaultToolsConfig() ToolsConfig {
	return ToolsConfig{
		Wikipedia: WikipediaConfig{
			APIURL:         "https://en.wikipedia.org/w/api.php",
			SummaryURL:     "https://en.wikipedia.org/api/rest_v1/page/summary/",
			UserAgent:      "MiniAgentsEducationalBot/1.0 (Educational purposes; Go net/http)",
			TimeoutSeconds: 10,
			MaxChars:       500,
		},
		Calculator: CalculatorConfig{TimeoutMs: 1000},
	}
}

// ServerConfig configures the document editor REST API.
type ServerConfig struct {
	Port             int     `json:"port" yaml:"port"`
	DBPath           string  `json:"dbPath" yaml:"dbPath"`
	Model            string  `json:"model" yaml:"model"`
	Temperature      float64 `json:"temperature" yaml:"temperature"`
	TitleTemperature float64 `json:"titleTemperature" yaml:"titleTemperature"`
	HistoryWindow    int     `json:"historyWindow" yaml:"historyWindow"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:             3001,
		DBPath:           "~/.miniagents/editor.db",
		Model:            "gpt-4o",
		Temperature:      0.7,
		TitleTemperature: 0.3,
		HistoryWindow:    10,
	}
}

// Config is the root configuration.
type Config struct {
	Providers ProvidersConfig `json:"providers" yaml:"providers"`
	Agents    AgentsConfig    `json:"agents" yaml:"agents"`
	Chat      ChatConfig      `json:"chat" yaml:"chat"`
	Draft     DraftConfig     `json:"draft" yaml:"draft"`
	RAG       RAGConfig       `json:"rag" yaml:"rag"`
	Tools     ToolsConfig     `json:"tools" yaml:"tools"`
	Server    ServerConfig    `json:"server" yaml:"server"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Providers: ProvidersConfig{},
		Agents:    AgentsConfig{Defaults: defaultAgentDefaults()},
		Chat:      defaultChatConfig(),
		Draft:     defaultDraftConfig(),
		RAG:       defaultRAGConfig(),
		Tools:     defaultToolsConfig(),
		Server:    defaultServerConfig(),
	}
}

// ProviderByName returns a pointer to the ProviderConfig field matching the
// given registry name. Returns nil if unknown.
func (c *Config) ProviderByName(name string) *ProviderConfig {
	switch name {
	case "openai":
		return &c.Providers.OpenAI
	case "gemini":
		return &c.Providers.Gemini
	}
	return nil
}

// ExpandPath resolves a leading "~/" against the user's home directory.
func ExpandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
