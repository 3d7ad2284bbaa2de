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
	"github.com/bibliotheca/gateway/domain/export"
	"github.com/bibliotheca/gateway/internal/database"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		want  int
		title string
	}{
		{"project not found", fmt.Errorf("%w: Docs", service.ErrProjectNotFound), http.StatusNotFound, "Not Found"},
		{"record not found", fmt.Errorf("job 3: %w", database.ErrNotFound), http.StatusNotFound, "Not Found"},
		{"toc fetch", &service.TocFetchError{ProjectID: "Docs", Branch: "v1", Err: errors.New("timeout")}, http.StatusBadGateway, "Table Of Contents Fetch Failed"},
		{"document fetch", &service.DocumentFetchError{URL: "a/b", Key: "a:b", Err: errors.New("boom")}, http.StatusBadGateway, "Document Fetch Failed"},
		{"document missing", &service.DocumentFetchError{URL: "a/b", Key: "a:b", Err: document.ErrNotFound}, http.StatusNotFound, "Not Found"},
		{"render failure", &service.RenderFailure{StatusCode: 500, Message: "bad markup"}, http.StatusBadGateway, "Render Failed"},
		{"invalid request", export.NewRequest("", "v1").Validate(), http.StatusBadRequest, "Validation Error"},
		{"api error", NewAPIError(http.StatusRequestEntityTooLarge, "too big", nil), http.StatusRequestEntityTooLarge, "API Error"},
		{"unknown", errors.New("kaput"), http.StatusInternalServerError, "Internal Server Error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/x", nil)
			w := httptest.NewRecorder()

			WriteError(w, req, tt.err, nil)

			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/vnd.api+json" {
				t.Errorf("Content-Type = %q", ct)
			}

			var resp JSONAPIErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(resp.Errors) != 1 {
				t.Fatalf("errors = %d, want 1", len(resp.Errors))
			}
			if resp.Errors[0].Title != tt.title {
				t.Errorf("title = %q, want %q", resp.Errors[0].Title, tt.title)
			}
			if resp.Errors[0].Status != fmt.Sprint(tt.want) {
				t.Errorf("status field = %q, want %d", resp.Errors[0].Status, tt.want)
			}
		})
	}
}

func TestWriteError_RenderFailureCarriesRendererStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	WriteError(w, req, &service.RenderFailure{StatusCode: 422, Message: "unsupported"}, nil)

	var resp JSONAPIErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Errors[0].Detail != "unsupported" {
		t.Errorf("detail = %q, want renderer message", resp.Errors[0].Detail)
	}
	if got := resp.Errors[0].Meta["renderer_status"]; got != float64(422) {
		t.Errorf("meta renderer_status = %v, want 422", got)
	}
}

func TestCorrelationID_HeaderWins(t *testing.T) {
	var seen string
	handler := CorrelationID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		seen = w.Header().Get("X-Correlation-ID")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Correlation-ID", "abc-123")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if seen != "abc-123" {
		t.Errorf("correlation id = %q, want abc-123", seen)
	}
}
