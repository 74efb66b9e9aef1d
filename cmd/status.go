package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/config"
	"github.com/crystaldolphin/miniagents/internal/providers"
	"github.com/crystaldolphin/miniagents/internal/rag"
	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show miniagents status",
	RunE:  runStatus,
}

func mark(ok bool) string {
	if ok {
		return "✓"
	}
	return "✗"
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s miniagents Status\n\n", cmdutils.Logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:    %s %s\n", cfgPath, mark(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}
	fmt.Printf("Model:     %s\n\n", cfg.Agents.Defaults.Model)

	fmt.Println("Providers:")
	for _, spec := range providers.PROVIDERS {
		p := cfg.ProviderByName(spec.Name)
		if p == nil {
			continue
		}
		if p.APIKey != "" {
			fmt.Printf("  %-20s ✓\n", spec.Label())
		} else {
			fmt.Printf("  %-20s (not set)\n", spec.Label())
		}
	}

	histPath := config.ExpandPath(cfg.Chat.HistoryFile)
	_, histErr := os.Stat(histPath)
	fmt.Printf("\nChat history: %s %s\n", histPath, mark(histErr == nil))

	dbPath := config.ExpandPath(cfg.Server.DBPath)
	_, dbErr := os.Stat(dbPath)
	fmt.Printf("Editor DB:    %s %s\n", dbPath, mark(dbErr == nil))

	persist := config.ExpandPath(cfg.RAG.PersistDir)
	if _, err := os.Stat(persist); err != nil {
		fmt.Printf("RAG index:    %s ✗\n", persist)
		return nil
	}
	// Counting needs no embedding calls, so no API key is required here.
	ix, err := rag.OpenIndex(persist, cfg.RAG.Collection, nil, 0)
	if err != nil {
		fmt.Printf("RAG index:    %s (could not open: %v)\n", persist, err)
		return nil
	}
	fmt.Printf("RAG index:    %s ✓ (%d chunks in %q)\n", persist, ix.Count(), cfg.RAG.Collection)
	return nil
}
