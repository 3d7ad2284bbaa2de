package middleware

import (
	"net/http"

	"github.com/bibliotheca/gateway/infrastructure/remote"
	"github.com/bibliotheca/gateway/internal/log"
	"github.com/go-chi/chi/v5/middleware"
)

// CorrelationID adds a correlation ID to the request context and response.
// The X-Correlation-ID header wins over chi's request ID.
func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())
		correlationID := r.Header.Get("X-Correlation-ID")
		if correlationID == "" {
			correlationID = requestID
		}

		w.Header().Set("X-Correlation-ID", correlationID)

		ctx := log.WithRequestID(r.Context(), requestID)
		ctx = log.WithCorrelationID(ctx, correlationID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ForwardAuthorization passes the caller's Authorization header on to
// backend service calls made while serving the request.
func ForwardAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if value := r.Header.Get("Authorization"); value != "" {
			r = r.WithContext(remote.WithAuthorization(r.Context(), value))
		}
		next.ServeHTTP(w, r)
	})
}
