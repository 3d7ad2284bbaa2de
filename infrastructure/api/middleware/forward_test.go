package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bibliotheca/gateway/infrastructure/remote"
)

func TestForwardAuthorization(t *testing.T) {
	var got string
	handler := ForwardAuthorization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = remote.Authorization(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got != "Bearer user-token" {
		t.Errorf("forwarded authorization = %q, want %q", got, "Bearer user-token")
	}
}

func TestForwardAuthorization_Absent(t *testing.T) {
	var got string
	handler := ForwardAuthorization(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = remote.Authorization(r.Context())
	}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got != "" {
		t.Errorf("forwarded authorization = %q, want empty", got)
	}
}
