// Package export describes a request to export a project branch.
package export

import (
	"errors"
	"strings"
)

// ErrInvalidRequest indicates a request is missing a project or branch.
var ErrInvalidRequest = errors.New("invalid export request")

// Request identifies the project branch to export.
type Request struct {
	projectID string
	branch    string
}

// NewRequest creates a new Request.
func NewRequest(projectID, branch string) Request {
	return Request{projectID: projectID, branch: branch}
}

// ProjectID returns the project identifier.
func (r Request) ProjectID() string { return r.projectID }

// Branch returns the branch name.
func (r Request) Branch() string { return r.branch }

// Validate checks both identifiers are present.
func (r Request) Validate() error {
	if strings.TrimSpace(r.projectID) == "" {
		return errors.Join(ErrInvalidRequest, errors.New("project id is required"))
	}
	if strings.TrimSpace(r.branch) == "" {
		return errors.Join(ErrInvalidRequest, errors.New("branch is required"))
	}
	return nil
}

// State is a stage of the export pipeline.
type State string

// State values, in pipeline order.
const (
	StateIdle            State = "idle"
	StateFetchingProject State = "fetching_project"
	StateFetchingToc     State = "fetching_toc"
	StateAssembling      State = "assembling"
	StateRendering       State = "rendering"
	StateDone            State = "done"
	StateFailed          State = "failed"
)

// String returns the state name.
func (s State) String() string { return string(s) }

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
