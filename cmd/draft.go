package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/agent"
	"github.com/crystaldolphin/miniagents/internal/config"
	"github.com/crystaldolphin/miniagents/internal/draft"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

var (
	draftModel     string
	draftOutputDir string
)

var draftCmd = &cobra.Command{
	Use:   "draft",
	Short: "Create and refine a draft together with the assistant",
	RunE:  runDraft,
}

func init() {
	draftCmd.Flags().StringVar(&draftModel, "model", "", "Model override")
	draftCmd.Flags().StringVarP(&draftOutputDir, "out", "o", "", "Directory for saved drafts (default from config)")
}

func runDraft(_ *cobra.Command, _ []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	cfg := c.Config()

	model := llmutils.StringOrDefault(draftModel, cfg.Draft.Model)
	factory, provider, err := c.AgentFactoryFor(model)
	if err != nil {
		return err
	}

	opts := schema.NewChatOptions(model, cfg.Agents.Defaults.MaxTokens, cfg.Agents.Defaults.Temperature)
	session := draft.NewSession(provider, opts, config.ExpandPath(llmutils.StringOrDefault(draftOutputDir, cfg.Draft.OutputDir)))
	session.OnUpdate = func(version int, text string) {
		cmdutils.PrintBanner(fmt.Sprintf("📄 DRAFT VERSION %d", version))
		fmt.Println(text)
		fmt.Println(strings.Repeat("=", 60))
	}
	drafter := factory.NewDrafter(model, session)

	cmdutils.PrintBanner("📝 HUMAN-AI COLLABORATION DRAFTING AGENT")
	fmt.Println("\nWelcome! I'll help you create and refine drafts.")
	fmt.Println("Commands you can use:")
	fmt.Println("  - 'Create a draft for [topic]'")
	fmt.Println("  - 'Make it [feedback]' (e.g., 'make it shorter')")
	fmt.Println("  - 'Save as [filename]' when you're happy with the draft")
	fmt.Println(strings.Repeat("=", 60))

	ctx, cancel := signalContext()
	defer cancel()

	turn, err := drafter.Greet(ctx)
	if err != nil {
		return err
	}
	printDraftTurn(turn)

	p := newPrompter()
	for !drafter.Done() {
		input, ok := p.ask("\n👤 You: ")
		if !ok || agent.IsExit(input) {
			break
		}
		fmt.Println()
		if input == "" {
			continue
		}

		turn, err := drafter.Turn(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printDraftTurn(turn)

		if turn.Done {
			fmt.Printf("\n💾 Draft saved to: %s\n", session.LastSaved())
			fmt.Printf("📊 Total versions created: %d\n", session.Version())
			fmt.Printf("🔄 Feedback rounds: %d\n", len(session.FeedbackHistory()))
			fmt.Println("\n✨ Session complete! Your draft is ready to use.")
		}
	}

	cmdutils.PrintBanner("✨ DRAFTING SESSION COMPLETE")
	return nil
}

func printDraftTurn(turn agent.DraftTurn) {
	if turn.Reply != "" {
		fmt.Printf("🤖 Draft AI: %s\n", turn.Reply)
	}
	if len(turn.ToolsUsed) > 0 {
		fmt.Printf("🔧 USING TOOLS: %v\n", turn.ToolsUsed)
	}
}
