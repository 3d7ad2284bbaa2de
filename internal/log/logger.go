// Package log configures structured logging and carries request-scoped
// identifiers through context.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/bibliotheca/gateway/internal/config"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	requestIDKey     contextKey = "request_id"
)

// New creates a logger writing to w in the given format.
func New(w io.Writer, format config.LogFormat, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	switch format {
	case config.LogFormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = NewPrettyHandler(w, opts)
	}
	return slog.New(contextHandler{Handler: handler})
}

// Configure builds the logger described by cfg and installs it as the
// slog default.
func Configure(cfg config.AppConfig) *slog.Logger {
	logger := New(os.Stdout, cfg.LogFormat(), cfg.LogLevel())
	slog.SetDefault(logger)
	return logger
}

// ParseLevel maps a level name to a slog level. Unknown names mean INFO.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithCorrelationID adds a correlation ID to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationID extracts the correlation ID from context.
func CorrelationID(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey).(string); ok {
		return id
	}
	return ""
}

// WithRequestID adds a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID extracts the request ID from context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// contextHandler appends the identifiers found in the record's context.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := CorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String(string(correlationIDKey), id))
	}
	if id := RequestID(ctx); id != "" {
		r.AddAttrs(slog.String(string(requestIDKey), id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
