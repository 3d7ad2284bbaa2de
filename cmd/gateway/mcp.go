package main

import (
	"log/slog"
	"os"

	"github.com/bibliotheca/gateway/internal/log"
	"github.com/bibliotheca/gateway/internal/mcp"
	"github.com/spf13/cobra"
)

func mcpCmd() *cobra.Command {
	var envFile string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

This lets AI assistants browse projects, tables of contents and documents.
Configuration is loaded from environment variables and .env file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			logger := log.New(os.Stderr, cfg.LogFormat(), cfg.LogLevel())
			logger.Info("starting MCP server", slog.String("version", version))

			client, err := newReadClient(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			return mcp.NewServer(client.Catalog, version, logger).ServeStdio()
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")

	return cmd
}
