package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/agent"
	"github.com/crystaldolphin/miniagents/internal/config"
	"github.com/crystaldolphin/miniagents/internal/history"
	"github.com/crystaldolphin/miniagents/internal/shared/llmutils"
)

var (
	chatMode    string
	chatHistory string
	chatModel   string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a plain LLM chatbot",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatMode, "mode", "", "Memory mode: stateless, memory or persistent (default from config)")
	chatCmd.Flags().StringVar(&chatHistory, "history", "", "History file for persistent mode (default from config)")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model override")
}

func runChat(_ *cobra.Command, _ []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()
	cfg := c.Config()

	mode, err := agent.ParseChatMode(llmutils.StringOrDefault(chatMode, cfg.Chat.Mode))
	if err != nil {
		return err
	}
	model := llmutils.StringOrDefault(chatModel, cfg.Chat.Model)

	factory, _, err := c.AgentFactoryFor(model)
	if err != nil {
		return err
	}
	store := history.NewStore(config.ExpandPath(llmutils.StringOrDefault(chatHistory, cfg.Chat.HistoryFile)))
	bot := factory.NewChatbot(model, mode, store)

	if n, err := bot.Load(); err != nil {
		return err
	} else if n > 0 {
		fmt.Printf("Loaded %d messages from %s\n", n, store.Path())
	}

	ctx, cancel := signalContext()
	defer cancel()

	p := newPrompter()
	for {
		input, ok := p.ask("You: ")
		if !ok || agent.IsExit(input) {
			break
		}
		if input == "" {
			continue
		}

		reply, err := bot.Reply(ctx, input)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			fmt.Printf("\nError: %v\n", err)
			continue
		}
		fmt.Printf("\nAI: %s\n", reply)
	}

	if mode == agent.ModePersistent {
		fmt.Println("Goodbye! Conversation saved.")
	} else {
		fmt.Println("Goodbye!")
	}
	return nil
}
