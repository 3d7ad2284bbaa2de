package mcp

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const documentScheme = "doc://"

// ErrInvalidDocumentURI indicates a URI that is not a doc:// document URI.
var ErrInvalidDocumentURI = errors.New("invalid document uri")

// DocumentURI addresses a documentation page as
// doc://{project}/{branch}/{chapter url}. Project and branch are
// path-escaped; the chapter URL keeps its slashes.
type DocumentURI struct {
	projectID string
	branch    string
	url       string
}

// NewDocumentURI creates a DocumentURI.
func NewDocumentURI(projectID, branch, url string) DocumentURI {
	return DocumentURI{projectID: projectID, branch: branch, url: url}
}

// ParseDocumentURI parses a doc:// URI.
func ParseDocumentURI(raw string) (DocumentURI, error) {
	rest, ok := strings.CutPrefix(raw, documentScheme)
	if !ok {
		return DocumentURI{}, fmt.Errorf("%w: %s", ErrInvalidDocumentURI, raw)
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return DocumentURI{}, fmt.Errorf("%w: %s", ErrInvalidDocumentURI, raw)
	}

	projectID, err := url.PathUnescape(parts[0])
	if err != nil {
		return DocumentURI{}, fmt.Errorf("%w: %v", ErrInvalidDocumentURI, err)
	}
	branch, err := url.PathUnescape(parts[1])
	if err != nil {
		return DocumentURI{}, fmt.Errorf("%w: %v", ErrInvalidDocumentURI, err)
	}
	return DocumentURI{projectID: projectID, branch: branch, url: parts[2]}, nil
}

// ProjectID returns the project identifier.
func (u DocumentURI) ProjectID() string { return u.projectID }

// Branch returns the branch name.
func (u DocumentURI) Branch() string { return u.branch }

// URL returns the chapter URL.
func (u DocumentURI) URL() string { return u.url }

// String builds the doc:// URI string.
func (u DocumentURI) String() string {
	return documentScheme + url.PathEscape(u.projectID) + "/" + url.PathEscape(u.branch) + "/" + u.url
}
