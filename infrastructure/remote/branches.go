package remote

import (
	"context"
	"net/http"

	"github.com/bibliotheca/gateway/domain/branch"
)

type branchDTO struct {
	Name string `json:"name"`
}

// BranchesClient lists and deletes branches in the branches service.
type BranchesClient struct {
	client
}

// NewBranchesClient creates a new BranchesClient.
func NewBranchesClient(cfg Config) *BranchesClient {
	return &BranchesClient{client: newClient("branches", cfg)}
}

// List returns the published branches of a project.
func (c *BranchesClient) List(ctx context.Context, projectID string) ([]branch.Branch, error) {
	var dtos []branchDTO
	if err := c.doJSON(ctx, "list branches", http.MethodGet, c.endpoint("api", "projects", projectID, "branches"), nil, "", &dtos); err != nil {
		return nil, err
	}
	branches := make([]branch.Branch, len(dtos))
	for i, d := range dtos {
		branches[i] = branch.New(d.Name)
	}
	return branches, nil
}

// Delete removes a branch.
func (c *BranchesClient) Delete(ctx context.Context, projectID, name string) error {
	return c.doJSON(ctx, "delete branch", http.MethodDelete, c.endpoint("api", "projects", projectID, "branches", name), nil, "", nil)
}
