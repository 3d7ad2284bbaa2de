package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/toc"
	"github.com/bibliotheca/gateway/internal/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// tocEntry is the printable form of a chapter.
type tocEntry struct {
	Title    string     `json:"title" yaml:"title"`
	URL      string     `json:"url,omitempty" yaml:"url,omitempty"`
	Key      string     `json:"key,omitempty" yaml:"key,omitempty"`
	Children []tocEntry `json:"children,omitempty" yaml:"children,omitempty"`
}

func tocEntries(chapters []toc.Chapter) []tocEntry {
	out := make([]tocEntry, len(chapters))
	for i, c := range chapters {
		out[i] = tocEntry{
			Title:    c.Title(),
			Children: tocEntries(c.Children()),
		}
		if c.HasDocument() {
			out[i].URL = c.URL()
			out[i].Key = document.StorageKey(c.URL())
		}
	}
	return out
}

func writeTableOfContents(w io.Writer, format string, chapters []toc.Chapter) error {
	entries := tocEntries(chapters)
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q: use yaml or json", format)
	}
}

func tocCmd() *cobra.Command {
	var (
		envFile   string
		projectID string
		branch    string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "toc",
		Short: "Print the table of contents of a project branch",
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

			chapters, err := client.Catalog.TableOfContents(cmd.Context(), projectID, branch)
			if err != nil {
				return err
			}
			return writeTableOfContents(cmd.OutOrStdout(), format, chapters)
		},
	}

	cmd.Flags().StringVar(&envFile, "env-file", "", "Path to .env file")
	cmd.Flags().StringVar(&projectID, "project", "", "Project identifier")
	cmd.Flags().StringVar(&branch, "branch", "", "Branch name")
	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or json")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("branch")

	return cmd
}
