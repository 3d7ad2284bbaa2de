package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestPrettyHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})

	ts := time.Date(2026, 1, 15, 10, 30, 45, 123000000, time.UTC)
	r := slog.NewRecord(ts, slog.LevelInfo, "server started", 0)
	r.AddAttrs(slog.Int("port", 8080))

	if err := h.Handle(context.Background(), r); err != nil {
		t.Fatalf("Handle() error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{"10:30:45.123", "INF", "server started", "port=", "8080"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output, got: %s", want, output)
		}
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("expected trailing newline, got: %q", output)
	}
}

func TestPrettyHandler_Levels(t *testing.T) {
	tests := []struct {
		level slog.Level
		label string
		color string
	}{
		{slog.LevelDebug, "DBG", ansiCyan},
		{slog.LevelInfo, "INF", ansiGreen},
		{slog.LevelWarn, "WRN", ansiYellow},
		{slog.LevelError, "ERR", ansiRed},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		h := NewPrettyHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
		r := slog.NewRecord(time.Now(), tt.level, "msg", 0)
		if err := h.Handle(context.Background(), r); err != nil {
			t.Fatalf("Handle() error: %v", err)
		}
		if !strings.Contains(buf.String(), tt.color+tt.label) {
			t.Errorf("level %v: expected %q, got: %q", tt.level, tt.label, buf.String())
		}
	}
}

func TestPrettyHandler_DefaultLevel(t *testing.T) {
	h := NewPrettyHandler(&bytes.Buffer{}, nil)

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled by default")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be enabled by default")
	}
}

func TestPrettyHandler_ErrorAttrIsRed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	logger.Error("export failed", slog.Any("error", errors.New("boom")))

	if !strings.Contains(buf.String(), ansiRed+"boom"+ansiReset) {
		t.Errorf("expected red error value, got: %q", buf.String())
	}
}

func TestPrettyHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil)).With("component", "worker")

	logger.Info("first")
	logger.Info("second", "job_id", 7)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.Contains(line, "component=") || !strings.Contains(line, "worker") {
			t.Errorf("expected bound attribute, got: %s", line)
		}
	}
	if !strings.Contains(lines[1], "job_id=") {
		t.Errorf("expected record attribute, got: %s", lines[1])
	}
}

func TestPrettyHandler_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil)).WithGroup("http").WithGroup("")

	logger.Info("request", "status", 200, slog.Group("remote", "ip", "10.0.0.1"))

	output := buf.String()
	if !strings.Contains(output, "http.status=") {
		t.Errorf("expected grouped key, got: %s", output)
	}
	if !strings.Contains(output, "http.remote.ip=") {
		t.Errorf("expected nested group key, got: %s", output)
	}
}

func TestPrettyHandler_QuotesStrings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	logger.Info("msg", "title", "Getting started", "empty", "")

	output := buf.String()
	if !strings.Contains(output, `"Getting started"`) {
		t.Errorf("expected quoted value, got: %s", output)
	}
	if !strings.Contains(output, `""`) {
		t.Errorf("expected quoted empty value, got: %s", output)
	}
}
