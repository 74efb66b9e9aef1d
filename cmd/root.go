// Package cmd implements the miniagents CLI using cobra.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
)

const version = "0.1.0"

var (
	configPath string
	verbose    bool
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "miniagents",
	Short: cmdutils.Logo + " miniagents: small LLM agents for the terminal and the web",
	Long: cmdutils.Logo + ` miniagents: a set of small LLM agents

  chat    plain chatbot (stateless, in-memory or persistent history)
  agent   ReAct agent with a calculator and Wikipedia lookups
  draft   human-in-the-loop drafting assistant
  rag     question answering over ingested documents
  serve   AgentEditor REST API`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.miniagents/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(agentCmd)
	rootCmd.AddCommand(draftCmd)
	rootCmd.AddCommand(ragCmd)
	rootCmd.AddCommand(serveCmd)
}
