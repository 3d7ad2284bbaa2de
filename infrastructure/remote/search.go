package remote

import (
	"context"
	"net/http"
)

// SearchClient orders index refreshes from the search service.
type SearchClient struct {
	client
}

// NewSearchClient creates a new SearchClient.
func NewSearchClient(cfg Config) *SearchClient {
	return &SearchClient{client: newClient("search", cfg)}
}

// Refresh asks the search service to reindex a project branch.
func (c *SearchClient) Refresh(ctx context.Context, projectID, branch string) error {
	target := c.endpoint("api", "search", "projects", projectID, "branches", branch)
	return c.doJSON(ctx, "refresh index", http.MethodPost, target, nil, "", nil)
}
