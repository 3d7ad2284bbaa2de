package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/domain/document"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) JSONAPIError {
	t.Helper()
	var resp JSONAPIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Errors) != 1 {
		t.Fatalf("errors = %d, want 1", len(resp.Errors))
	}
	return resp.Errors[0]
}

func TestAPIError_ArchiveTooLarge(t *testing.T) {
	cause := errors.New("http: request body too large")
	err := NewAPIError(http.StatusRequestEntityTooLarge, "archive exceeds the upload size limit", cause)

	if err.Code() != http.StatusRequestEntityTooLarge {
		t.Errorf("Code() = %v, want 413", err.Code())
	}
	expected := "api error 413: archive exceeds the upload size limit: http: request body too large"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
	if !errors.Is(err, cause) {
		t.Error("APIError should unwrap to its cause")
	}
}

func TestAuthenticationError_MissingKey(t *testing.T) {
	err := fmt.Errorf("upload branch: %w", NewAuthenticationError("X-API-KEY header is required"))

	if !errors.Is(err, ErrAuthentication) {
		t.Error("wrapped AuthenticationError should match ErrAuthentication")
	}

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodPost, "/api/v1/projects/Docs/branches/v1/upload", nil), err, nil)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if got := decodeError(t, w).Title; got != "Authentication Failed" {
		t.Errorf("title = %q, want Authentication Failed", got)
	}
}

func TestServerError_UploadsUnavailable(t *testing.T) {
	err := NewServerError(http.StatusServiceUnavailable, "uploads are not configured")

	if !errors.Is(err, ErrServer) {
		t.Error("ServerError should match ErrServer")
	}

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), err, nil)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
	if got := decodeError(t, w).Detail; got != "uploads are not configured" {
		t.Errorf("detail = %q", got)
	}
}

func TestWriteError_WrappedRenderFailure(t *testing.T) {
	err := fmt.Errorf("export Docs/v1: %w", &service.RenderFailure{StatusCode: 500, Message: "bad markup"})

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/Docs/branches/v1/pdf", nil), err, nil)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	got := decodeError(t, w)
	if got.Title != "Render Failed" {
		t.Errorf("title = %q, want Render Failed", got.Title)
	}
	if got.Detail != "bad markup" {
		t.Errorf("detail = %q, want renderer message", got.Detail)
	}
	if got.Meta["renderer_status"] != float64(500) {
		t.Errorf("meta renderer_status = %v, want 500", got.Meta["renderer_status"])
	}
}

func TestWriteError_TocFetchErrorIsBadGateway(t *testing.T) {
	// A not-found cause from the backend is still an upstream failure.
	err := &service.TocFetchError{ProjectID: "Docs", Branch: "v1", Err: document.ErrNotFound}

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/api/v1/projects/Docs/branches/v1/toc", nil), err, nil)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	got := decodeError(t, w)
	if got.Title != "Table Of Contents Fetch Failed" {
		t.Errorf("title = %q, want Table Of Contents Fetch Failed", got.Title)
	}
	if got.Meta != nil {
		t.Errorf("meta = %v, want none", got.Meta)
	}
}

func TestWriteError_DocumentFetchErrorCarriesURL(t *testing.T) {
	err := &service.DocumentFetchError{URL: "guide/setup.md", Key: "guide:setup", Err: errors.New("connection reset")}

	w := httptest.NewRecorder()
	WriteError(w, httptest.NewRequest(http.MethodGet, "/", nil), err, nil)

	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	if got := decodeError(t, w).Meta["url"]; got != "guide/setup.md" {
		t.Errorf("meta url = %v, want guide/setup.md", got)
	}
}
