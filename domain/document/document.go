// Package document defines access to stored documentation files.
package document

import (
	"context"
	"errors"
	"io"
	"strings"
)

// ErrNotFound indicates the store holds no document under the key.
var ErrNotFound = errors.New("document not found")

// Store resolves raw document bytes and accepts branch uploads.
type Store interface {
	Get(ctx context.Context, projectID, branch, key string) ([]byte, error)
	Upload(ctx context.Context, projectID, branch string, archive io.Reader) error
}

// Reader is the read-only half of Store.
type Reader interface {
	Get(ctx context.Context, projectID, branch, key string) ([]byte, error)
}

// StorageKey converts a chapter URL into a store key by replacing
// every "/" with ":".
func StorageKey(url string) string {
	return strings.ReplaceAll(url, "/", ":")
}
