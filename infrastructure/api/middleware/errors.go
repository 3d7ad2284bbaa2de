package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bibliotheca/gateway/application/service"
	"github.com/bibliotheca/gateway/domain/document"
	"github.com/bibliotheca/gateway/domain/export"
	"github.com/bibliotheca/gateway/internal/database"
	"github.com/bibliotheca/gateway/internal/log"
)

// Sentinel errors for errors.Is matching.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrServer         = errors.New("server error")
	ErrValidation     = errors.New("validation error")
)

// APIError is an error carrying an explicit HTTP status.
type APIError struct {
	code    int
	message string
	cause   error
}

// NewAPIError creates a new APIError.
func NewAPIError(code int, message string, cause error) *APIError {
	return &APIError{code: code, message: message, cause: cause}
}

// Code returns the HTTP status code.
func (e *APIError) Code() int { return e.code }

// Message returns the client-facing message.
func (e *APIError) Message() string { return e.message }

func (e *APIError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("api error %d: %s: %v", e.code, e.message, e.cause)
	}
	return fmt.Sprintf("api error %d: %s", e.code, e.message)
}

// Unwrap returns the cause.
func (e *APIError) Unwrap() error { return e.cause }

// AuthenticationError indicates a rejected API key.
type AuthenticationError struct {
	reason string
}

// NewAuthenticationError creates a new AuthenticationError.
func NewAuthenticationError(reason string) *AuthenticationError {
	return &AuthenticationError{reason: reason}
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.reason
}

// Is matches ErrAuthentication.
func (e *AuthenticationError) Is(target error) bool { return target == ErrAuthentication }

// ServerError is an upstream failure passed through with its status.
type ServerError struct {
	statusCode int
	message    string
}

// NewServerError creates a new ServerError.
func NewServerError(statusCode int, message string) *ServerError {
	return &ServerError{statusCode: statusCode, message: message}
}

// StatusCode returns the HTTP status code.
func (e *ServerError) StatusCode() int { return e.statusCode }

// Message returns the error message.
func (e *ServerError) Message() string { return e.message }

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.statusCode, e.message)
}

// Is matches ErrServer.
func (e *ServerError) Is(target error) bool { return target == ErrServer }

// JSONAPIError represents a JSON:API error object.
type JSONAPIError struct {
	Status string         `json:"status"`
	Title  string         `json:"title"`
	Detail string         `json:"detail,omitempty"`
	ID     string         `json:"id,omitempty"`
	Meta   map[string]any `json:"meta,omitempty"`
}

// JSONAPIErrorResponse represents a JSON:API error response wrapper.
type JSONAPIErrorResponse struct {
	Errors []JSONAPIError `json:"errors"`
}

// WriteError writes a JSON:API formatted error response.
//
// Export failures map to 404 (unknown project or document), 502 (backend
// or renderer failure) and 400 (invalid request); anything else is a 500.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger *slog.Logger) {
	status := http.StatusInternalServerError
	title := "Internal Server Error"
	detail := err.Error()
	var meta map[string]any

	var (
		apiErr    *APIError
		serverErr *ServerError
		authErr   *AuthenticationError
		renderErr *service.RenderFailure
		tocErr    *service.TocFetchError
		docErr    *service.DocumentFetchError
	)

	switch {
	case errors.As(err, &apiErr):
		status = apiErr.Code()
		title = "API Error"
		detail = apiErr.Message()
	case errors.As(err, &serverErr):
		status = serverErr.StatusCode()
		title = "Server Error"
		detail = serverErr.Message()
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
		title = "Authentication Failed"
	case errors.Is(err, service.ErrProjectNotFound), errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
	case errors.As(err, &renderErr):
		status = http.StatusBadGateway
		title = "Render Failed"
		detail = renderErr.Message
		meta = map[string]any{"renderer_status": renderErr.StatusCode}
	case errors.As(err, &docErr):
		status = http.StatusBadGateway
		title = "Document Fetch Failed"
		if errors.Is(err, document.ErrNotFound) {
			status = http.StatusNotFound
			title = "Not Found"
		}
		meta = map[string]any{"url": docErr.URL}
	case errors.As(err, &tocErr):
		status = http.StatusBadGateway
		title = "Table Of Contents Fetch Failed"
	case errors.Is(err, document.ErrNotFound):
		status = http.StatusNotFound
		title = "Not Found"
	case errors.Is(err, export.ErrInvalidRequest), errors.Is(err, ErrValidation):
		status = http.StatusBadRequest
		title = "Validation Error"
	}

	correlationID := log.CorrelationID(r.Context())

	if logger != nil {
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(r.Context(), level, "request error",
			slog.Int("status", status),
			slog.String("error", err.Error()),
			slog.String("path", r.URL.Path),
		)
	}

	resp := JSONAPIErrorResponse{
		Errors: []JSONAPIError{
			{
				Status: strconv.Itoa(status),
				Title:  title,
				Detail: detail,
				ID:     correlationID,
				Meta:   meta,
			},
		},
	}

	w.Header().Set("Content-Type", "application/vnd.api+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteJSON writes a JSON response.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
