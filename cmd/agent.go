package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/agent"
	"github.com/crystaldolphin/miniagents/internal/schema"
	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
)

var agentMessage string

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Ask the ReAct agent (calculator + Wikipedia)",
	RunE:  runAgent,
}

func init() {
	agentCmd.Flags().StringVarP(&agentMessage, "message", "m", "", "Send a single message and exit")
}

func runAgent(_ *cobra.Command, _ []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	factory, _, err := c.AgentFactoryFor("")
	if err != nil {
		return err
	}
	a := factory.NewReactAgent()
	step := 0
	a.OnStep = func(m schema.Message) {
		if m.Role == schema.RoleTool || m.HasToolCalls() {
			step++
			printStep(step, m)
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	if agentMessage != "" {
		return askReact(ctx, a, agentMessage)
	}

	fmt.Printf("%s Interactive mode (type 'exit' or Ctrl+C to quit)\n\n", cmdutils.Logo)
	p := newPrompter()
	for {
		input, ok := p.ask("You: ")
		if !ok || agent.IsExit(input) {
			fmt.Println("Goodbye!")
			return nil
		}
		if input == "" {
			continue
		}
		step = 0
		if err := askReact(ctx, a, input); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("Error: %v\n", err)
		}
	}
}

func askReact(ctx context.Context, a *agent.ReactAgent, input string) error {
	res, err := a.Run(ctx, input)
	if err != nil {
		return err
	}
	cmdutils.PrintResponse("miniagents", res.Content)
	return nil
}

func printStep(n int, m schema.Message) {
	fmt.Printf("\n--- Stream update #%d ---\n", n)
	if m.Role == schema.RoleTool {
		fmt.Printf("TOOL (%s): %s\n", m.ToolName, m.Content)
		return
	}
	if content := strings.TrimSpace(m.Content); content != "" {
		fmt.Printf("AI: %s\n", content)
	}
	fmt.Println("Tool calls:")
	for _, tc := range m.ToolCalls {
		fmt.Printf(" - %s(%s)\n", tc.Name, tc.ArgumentsJSON())
	}
}
