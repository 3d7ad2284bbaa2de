// Package render describes conversion of assembled markup into a final artifact.
package render

import (
	"context"
	"fmt"
)

// Result is the outcome of one rendering call.
// It is either a success carrying the payload, or a failure carrying the
// status code and message reported by the renderer.
type Result struct {
	ok         bool
	payload    []byte
	statusCode int
	message    string
}

// Success creates a successful Result.
func Success(payload []byte) Result {
	return Result{ok: true, payload: payload}
}

// Failure creates a failed Result.
func Failure(statusCode int, message string) Result {
	return Result{statusCode: statusCode, message: message}
}

// OK reports whether rendering succeeded.
func (r Result) OK() bool { return r.ok }

// Payload returns the rendered bytes of a successful result.
func (r Result) Payload() []byte { return r.payload }

// StatusCode returns the renderer status code of a failed result.
func (r Result) StatusCode() int { return r.statusCode }

// Message returns the renderer message of a failed result.
func (r Result) Message() string { return r.message }

// String returns a readable representation.
func (r Result) String() string {
	if r.ok {
		return fmt.Sprintf("success (%d bytes)", len(r.payload))
	}
	return fmt.Sprintf("failure (status %d): %s", r.statusCode, r.message)
}

// Client converts markup text into rendered bytes.
// Renderer-level rejections are reported through Result; the error return
// is reserved for transport failures.
type Client interface {
	Render(ctx context.Context, text string) (Result, error)
}
