package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/agent"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

var (
	ragReset    bool
	ragQuestion string
)

var ragCmd = &cobra.Command{
	Use:   "rag",
	Short: "Question answering over ingested documents",
}

var ragIngestCmd = &cobra.Command{
	Use:   "ingest SOURCE...",
	Short: "Load, split and embed PDFs, text files or URLs into the index",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRagIngest,
}

var ragAskCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask questions answered from the indexed documents",
	RunE:  runRagAsk,
}

func init() {
	ragIngestCmd.Flags().BoolVar(&ragReset, "reset", false, "Drop the existing collection before ingesting")
	ragAskCmd.Flags().StringVarP(&ragQuestion, "message", "m", "", "Ask a single question and exit")

	ragCmd.AddCommand(ragIngestCmd)
	ragCmd.AddCommand(ragAskCmd)
}

func runRagIngest(_ *cobra.Command, args []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	pipeline, err := c.RagPipeline()
	if err != nil {
		return err
	}
	if ragReset {
		if err := pipeline.Index.Reset(); err != nil {
			return fmt.Errorf("reset index: %w", err)
		}
		fmt.Println("Index cleared.")
	}

	ctx, cancel := signalContext()
	defer cancel()

	stats, err := pipeline.Ingest(ctx, args...)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %d source(s): %d document(s), %d chunk(s). Index now holds %d chunk(s).\n",
		stats.Sources, stats.Documents, stats.Chunks, pipeline.Index.Count())
	return nil
}

func runRagAsk(_ *cobra.Command, _ []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	cfg := c.Config()

	index, err := c.RagIndex()
	if err != nil {
		return err
	}
	if index.Count() == 0 {
		fmt.Println("The index is empty. Run 'miniagents rag ingest <source>' first.")
		return nil
	}

	model := llmutils.StringOrDefault(cfg.RAG.Model, cfg.Agents.Defaults.Model)
	factory, _, err := c.AgentFactoryFor(model)
	if err != nil {
		return err
	}
	settings := schema.NewAgentSettings(model, cfg.Agents.Defaults.MaxToolIter, cfg.RAG.Temperature, cfg.Agents.Defaults.MaxTokens)
	a := factory.NewRagAgent(settings, index, cfg.RAG.TopK)
	a.OnStep = func(m schema.Message) {
		for _, tc := range m.ToolCalls {
			fmt.Printf("Using tool: %s | Query: %s\n", tc.Name, llmutils.StringArg(tc.Arguments, "query"))
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if ragQuestion != "" {
		return askRag(ctx, a, ragQuestion)
	}

	fmt.Println("\n=== AI HISTORY RAG AGENT ===")
	p := newPrompter()
	for {
		q, ok := p.ask("\nYour question: ")
		if !ok || agent.IsExit(q) {
			fmt.Println("Goodbye!")
			return nil
		}
		if q == "" {
			continue
		}
		if err := askRag(ctx, a, q); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func askRag(ctx context.Context, a *agent.RagAgent, question string) error {
	res, err := a.Ask(ctx, question)
	if err != nil {
		return err
	}
	fmt.Println("\n=== ANSWER ===")
	fmt.Println(strings.TrimSpace(res.Content))
	return nil
}
