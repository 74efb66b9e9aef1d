package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/miniagents/internal/shared/cmdutils"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the AgentEditor REST API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	c, err := loadContainer()
	if err != nil {
		return err
	}
	defer c.Close()

	cfg := c.Config()
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	srv, err := c.EditorServer()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("%s AgentEditor API listening on port %d\n", cmdutils.Logo, cfg.Server.Port)

	return srv.Run(ctx)
}
