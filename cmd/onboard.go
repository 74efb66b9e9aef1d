package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/config"
	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
)

var onboardReset bool

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Write the config file, keeping any values already set",
	RunE:  runOnboard,
}

func init() {
	onboardCmd.Flags().BoolVar(&onboardReset, "reset", false, "Overwrite the existing config with defaults")
}

func runOnboard(_ *cobra.Command, _ []string) error {
	path := resolvedConfigPath()

	cfg, verb, err := onboardConfig(path)
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Printf("✓ %s %s\n", verb, path)

	fmt.Printf("\n%s miniagents is ready!\n\n", cmdutils.Logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add an API key to %s (or export OPENAI_API_KEY / GEMINI_API_KEY)\n", path)
	fmt.Println("  2. Chat:    miniagents chat --mode persistent")
	fmt.Println("  3. Agent:   miniagents agent -m \"What is 15% of 240?\"")
	fmt.Println("  4. RAG:     miniagents rag ingest ./paper.pdf && miniagents rag ask")
	fmt.Printf("  5. Editor:  miniagents serve --port %d\n", cfg.Server.Port)
	return nil
}

// onboardConfig merges the file at path with defaults, unless --reset is set
// or the file does not exist yet.
func onboardConfig(path string) (*config.Config, string, error) {
	_, statErr := os.Stat(path)
	switch {
	case errors.Is(statErr, fs.ErrNotExist):
		def := config.DefaultConfig()
		return &def, "Created", nil
	case statErr != nil:
		return nil, "", statErr
	case onboardReset:
		def := config.DefaultConfig()
		return &def, "Reset", nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("existing config is unreadable (use --reset to overwrite): %w", err)
	}
	return cfg, "Refreshed", nil
}
