package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/bibliotheca/gateway"
	"github.com/bibliotheca/gateway/domain/export"
	"github.com/bibliotheca/gateway/internal/config"
	"github.com/bibliotheca/gateway/internal/log"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	var (
		envFile   string
		projectID string
		branch    string
		out       string
		markdown  bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a project branch as one PDF",
		Long: `Export a project branch as one PDF, or as the assembled markup with --markdown.

The backends are configured through the same environment as serve.
Output goes to stdout unless --out is given.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			logger := log.New(os.Stderr, cfg.LogFormat(), cfg.LogLevel())

			client, err := newReadClient(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			request := export.NewRequest(projectID, branch)
			var payload []byte
			if markdown {
				text, err := client.Exports.Markup(cmd.Context(), request)
				if err != nil {
					return err
				}
				payload = []byte(text)
			} else {
				payload, err = client.Exports.Export(cmd.Context(), request)
				if err != nil {
					return err
				}
			}

			return writeOutput(cmd.OutOrStdout(), out, payload)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&projectID, "project", "", "Project identifier")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch to export")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Write the assembled markup instead of the PDF")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("branch")

	return cmd
}

// newReadClient builds a client without uploads for one-shot commands.
func newReadClient(ctx context.Context, cfg config.AppConfig, logger *slog.Logger) (*gateway.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := clientOptions(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	client, err := gateway.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create gateway client: %w", err)
	}
	return client, nil
}

func writeOutput(stdout io.Writer, path string, payload []byte) error {
	if path == "" {
		_, err := stdout.Write(payload)
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
