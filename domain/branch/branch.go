// Package branch models the published branches of a project.
package branch

import "context"

// Branch is a published version of a project's documentation.
type Branch struct {
	name string
}

// New creates a new Branch.
func New(name string) Branch {
	return Branch{name: name}
}

// Name returns the branch name.
func (b Branch) Name() string { return b.name }

// Registry lists and removes project branches.
type Registry interface {
	List(ctx context.Context, projectID string) ([]Branch, error)
	Delete(ctx context.Context, projectID, branch string) error
}

// Contains reports whether a branch with the given name is present.
func Contains(branches []Branch, name string) bool {
	for _, b := range branches {
		if b.name == name {
			return true
		}
	}
	return false
}
