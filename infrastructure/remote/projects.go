package remote

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bibliotheca/gateway/domain/project"
)

type projectDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Description     string `json:"description"`
	IsAccessLimited bool   `json:"isAccessLimited"`
}

// ProjectsClient reads project metadata from the projects service.
type ProjectsClient struct {
	client
}

// NewProjectsClient creates a new ProjectsClient.
func NewProjectsClient(cfg Config) *ProjectsClient {
	return &ProjectsClient{client: newClient("projects", cfg)}
}

// Get returns a project, or project.ErrNotFound.
func (c *ProjectsClient) Get(ctx context.Context, projectID string) (project.Project, error) {
	var dto projectDTO
	err := c.doJSON(ctx, "get project", http.MethodGet, c.endpoint("api", "projects", projectID), nil, "", &dto)
	if err != nil {
		if statusOf(err) == http.StatusNotFound {
			return project.Project{}, fmt.Errorf("%w: %s", project.ErrNotFound, projectID)
		}
		return project.Project{}, err
	}
	id := dto.ID
	if id == "" {
		id = projectID
	}
	return project.New(id, dto.Name, dto.Description, dto.IsAccessLimited), nil
}
