// Package project holds documentation project metadata.
package project

import (
	"context"
	"errors"
)

// ErrNotFound indicates the project directory has no such project.
var ErrNotFound = errors.New("project not found")

// Project describes a documentation project.
type Project struct {
	id            string
	name          string
	description   string
	accessLimited bool
}

// New creates a new Project.
func New(id, name, description string, accessLimited bool) Project {
	return Project{
		id:            id,
		name:          name,
		description:   description,
		accessLimited: accessLimited,
	}
}

// ID returns the project identifier.
func (p Project) ID() string { return p.id }

// Name returns the display name.
func (p Project) Name() string { return p.name }

// Description returns the free-text description.
func (p Project) Description() string { return p.description }

// AccessLimited reports whether the project is hidden from the search index.
func (p Project) AccessLimited() bool { return p.accessLimited }

// Directory resolves project metadata.
// Get returns ErrNotFound when the project does not exist.
type Directory interface {
	Get(ctx context.Context, projectID string) (Project, error)
}
