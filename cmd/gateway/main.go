// Package main is the entry point for the bibliotheca gateway CLI.
package main

import (
	"fmt"
	"os"

	"github.com/bibliotheca/gateway/internal/config"
	"github.com/spf13/cobra"
)

// Version information set via ldflags during build.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gateway",
		Short: "Documentation site gateway",
		Long: `The gateway fronts the documentation backends: it serves projects, tables
of contents and documents, exports a branch as one PDF or markup file, and
publishes uploaded documentation archives.`,
		SilenceUsage: true,
	}

	cmd.AddCommand(serveCmd())
	cmd.AddCommand(exportCmd())
	cmd.AddCommand(tocCmd())
	cmd.AddCommand(mcpCmd())
	cmd.AddCommand(versionCmd())

	return cmd
}

// loadConfig loads configuration from .env file and environment variables.
func loadConfig(envFile string) (config.AppConfig, error) {
	cfg, err := config.LoadConfig(envFile)
	if err != nil {
		return config.AppConfig{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
