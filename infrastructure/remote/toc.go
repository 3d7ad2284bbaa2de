package remote

import (
	"context"
	"net/http"

	"github.com/bibliotheca/gateway/domain/toc"
)

type chapterDTO struct {
	Name     string       `json:"name"`
	URL      string       `json:"url"`
	Children []chapterDTO `json:"children"`
}

func toChapters(dtos []chapterDTO) []toc.Chapter {
	chapters := make([]toc.Chapter, len(dtos))
	for i, d := range dtos {
		chapters[i] = toc.NewChapter(d.Name, d.URL, toChapters(d.Children))
	}
	return chapters
}

// TocClient reads chapter trees from the table-of-contents service.
type TocClient struct {
	client
}

// NewTocClient creates a new TocClient.
func NewTocClient(cfg Config) *TocClient {
	return &TocClient{client: newClient("toc", cfg)}
}

// Tree returns the chapter tree of a project branch.
func (c *TocClient) Tree(ctx context.Context, projectID, branch string) ([]toc.Chapter, error) {
	var dtos []chapterDTO
	target := c.endpoint("api", "projects", projectID, "branches", branch, "toc")
	if err := c.doJSON(ctx, "get table of contents", http.MethodGet, target, nil, "", &dtos); err != nil {
		return nil, err
	}
	return toChapters(dtos), nil
}
