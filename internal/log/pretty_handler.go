package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiDim    = "\033[2m"
	ansiBold   = "\033[1m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
)

// PrettyHandler writes one coloured line per record:
//
//	15:04:05.000 INF export finished project_id=docs branch=v1
//
// Attributes named "error" are printed in red.
type PrettyHandler struct {
	w      io.Writer
	level  slog.Leveler
	prefix string
	groups []string
	mu     *sync.Mutex
}

// NewPrettyHandler creates a PrettyHandler. A nil opts logs at INFO.
func NewPrettyHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyHandler {
	var level slog.Leveler = slog.LevelInfo
	if opts != nil && opts.Level != nil {
		level = opts.Level
	}
	return &PrettyHandler{w: w, level: level, mu: &sync.Mutex{}}
}

// Enabled reports whether the handler handles records at the given level.
func (h *PrettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle writes the record.
func (h *PrettyHandler) Handle(_ context.Context, r slog.Record) error {
	var buf bytes.Buffer

	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	buf.WriteString(ansiDim + ts.Format("15:04:05.000") + ansiReset + " ")

	colour, label := levelLabel(r.Level)
	buf.WriteString(colour + label + ansiReset + " ")
	buf.WriteString(ansiBold + r.Message + ansiReset)

	// Attributes bound through WithAttrs are pre-rendered.
	buf.WriteString(h.prefix)
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&buf, h.groups, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a handler that prints attrs on every record.
func (h *PrettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.WriteString(h.prefix)
	for _, a := range attrs {
		writeAttr(&buf, h.groups, a)
	}
	next := *h
	next.prefix = buf.String()
	return &next
}

// WithGroup returns a handler that qualifies later keys with name.
func (h *PrettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func levelLabel(level slog.Level) (string, string) {
	switch {
	case level < slog.LevelInfo:
		return ansiCyan, "DBG"
	case level < slog.LevelWarn:
		return ansiGreen, "INF"
	case level < slog.LevelError:
		return ansiYellow, "WRN"
	default:
		return ansiRed, "ERR"
	}
}

func writeAttr(buf *bytes.Buffer, groups []string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		nested := groups
		if a.Key != "" {
			nested = append(append([]string{}, groups...), a.Key)
		}
		for _, ga := range a.Value.Group() {
			writeAttr(buf, nested, ga)
		}
		return
	}

	key := a.Key
	if len(groups) > 0 {
		key = strings.Join(groups, ".") + "." + key
	}
	buf.WriteString(" " + ansiDim + key + "=" + ansiReset)

	value := formatValue(a.Value)
	if a.Key == "error" {
		value = ansiRed + value + ansiReset
	}
	buf.WriteString(value)
}

func formatValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"\\=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindDuration:
		return v.Duration().Round(time.Microsecond).String()
	default:
		return v.String()
	}
}
