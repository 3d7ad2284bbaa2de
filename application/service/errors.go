package service

import (
	"errors"
	"fmt"
)

// ErrClientClosed indicates the client has been closed.
var ErrClientClosed = errors.New("gateway: client is closed")

// ErrProjectNotFound indicates the exported project does not exist.
var ErrProjectNotFound = errors.New("project not found")

// TocFetchError indicates the chapter tree could not be retrieved.
type TocFetchError struct {
	ProjectID string
	Branch    string
	Err       error
}

func (e *TocFetchError) Error() string {
	return fmt.Sprintf("fetch table of contents for %s/%s: %v", e.ProjectID, e.Branch, e.Err)
}

func (e *TocFetchError) Unwrap() error { return e.Err }

// DocumentFetchError indicates a chapter document could not be retrieved
// or decoded.
type DocumentFetchError struct {
	URL string
	Key string
	Err error
}

func (e *DocumentFetchError) Error() string {
	return fmt.Sprintf("fetch document %q (key %q): %v", e.URL, e.Key, e.Err)
}

func (e *DocumentFetchError) Unwrap() error { return e.Err }

// RenderFailure carries a non-success answer from the renderer verbatim.
type RenderFailure struct {
	StatusCode int
	Message    string
}

func (e *RenderFailure) Error() string {
	return fmt.Sprintf("render pdf: status code %d: %s", e.StatusCode, e.Message)
}
