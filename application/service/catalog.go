package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/project"
	"github.com/bibliotheca/gateway/domain/toc"
)

// Catalog reads project metadata, chapter trees and documents on behalf of
// API and tool callers.
type Catalog struct {
	projects  project.Directory
	chapters  toc.Provider
	documents document.Reader
}

// NewCatalog creates a new Catalog service.
func NewCatalog(projects project.Directory, chapters toc.Provider, documents document.Reader) *Catalog {
	return &Catalog{
		projects:  projects,
		chapters:  chapters,
		documents: documents,
	}
}

// Project returns the metadata of a project.
func (s *Catalog) Project(ctx context.Context, projectID string) (project.Project, error) {
	p, err := s.projects.Get(ctx, projectID)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			return project.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return project.Project{}, fmt.Errorf("get project %s: %w", projectID, err)
	}
	return p, nil
}

// TableOfContents returns the chapter tree of a project branch.
func (s *Catalog) TableOfContents(ctx context.Context, projectID, branch string) ([]toc.Chapter, error) {
	chapters, err := s.chapters.Tree(ctx, projectID, branch)
	if err != nil {
		return nil, &TocFetchError{ProjectID: projectID, Branch: branch, Err: err}
	}
	return chapters, nil
}

// Document returns the raw content of the document a chapter URL points at.
func (s *Catalog) Document(ctx context.Context, projectID, branch, url string) ([]byte, error) {
	key := document.StorageKey(url)
	content, err := s.documents.Get(ctx, projectID, branch, key)
	if err != nil {
		return nil, &DocumentFetchError{URL: url, Key: key, Err: err}
	}
	return content, nil
}
