// Package search covers the full-text index of published documentation.
package search

import "context"

// Index refreshes the searchable content of a project branch.
type Index interface {
	Refresh(ctx context.Context, projectID, branch string) error
}
