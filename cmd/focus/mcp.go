package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/focus-md/focus/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server",
		Long:  "Start the Model Context Protocol server exposing read-only store tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := storeConfig()
			if err != nil {
				return err
			}

			server, err := mcp.NewServer(cfg)
			if err != nil {
				return err
			}

			return server.Run(context.Background())
		},
	}

	return cmd
}
