package slogobs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// Handler is a slog.Handler that renders records in one of the Formats.
type Handler struct {
	format Format
	level  slog.Level
	colors bool

	mu  *sync.Mutex
	out io.Writer

	attrs  []slog.Attr
	prefix string
}

// HandlerOptions configures a Handler.
type HandlerOptions struct {
	Format Format
	Level  slog.Level
	// Output defaults to os.Stderr.
	Output io.Writer
	// Colors is honored for compact and pretty output. It is switched on
	// automatically when Output is a terminal.
	Colors bool
}

// NewHandler creates a Handler. A nil opts uses compact format at INFO on stderr.
func NewHandler(opts *HandlerOptions) *Handler {
	if opts == nil {
		opts = &HandlerOptions{}
	}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	format := opts.Format
	if format == "" {
		format = FormatCompact
	}

	colors := opts.Colors
	if !colors && format != FormatJSON {
		if f, ok := out.(*os.File); ok {
			colors = isatty.IsTerminal(f.Fd())
		}
	}

	return &Handler{
		format: format,
		level:  opts.Level,
		colors: colors,
		mu:     &sync.Mutex{},
		out:    out,
	}
}

// Enabled reports whether level is at or above the configured minimum.
func (h *Handler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle renders r and writes it as a single line (or block, for pretty).
func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	fields := h.fields(r)

	var line []byte
	var err error
	switch h.format {
	case FormatJSON:
		line, err = h.renderJSON(r, fields)
	case FormatPretty:
		line = h.renderPretty(r, fields)
	default:
		line = h.renderCompact(r, fields)
	}
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err = h.out.Write(line)
	return err
}

// WithAttrs returns a Handler that adds attrs to every record.
func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	clone.attrs = append(clone.attrs, h.attrs...)
	for _, a := range attrs {
		clone.attrs = append(clone.attrs, slog.Attr{Key: h.prefix + a.Key, Value: a.Value})
	}
	return &clone
}

// WithGroup returns a Handler that qualifies subsequent keys with name.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = h.prefix + name + "."
	return &clone
}

func (h *Handler) fields(r slog.Record) map[string]any {
	fields := make(map[string]any, len(h.attrs)+r.NumAttrs())
	for _, a := range h.attrs {
		fields[a.Key] = a.Value.Resolve().Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		fields[h.prefix+a.Key] = a.Value.Resolve().Any()
		return true
	})
	for k, v := range fields {
		if err, ok := v.(error); ok {
			fields[k] = err.Error()
		}
	}
	return fields
}

func (h *Handler) renderCompact(r slog.Record, fields map[string]any) []byte {
	var b strings.Builder
	b.WriteString(r.Time.Format("2006-01-02 15:04:05"))
	b.WriteByte(' ')
	b.WriteString(h.paint(r.Level, fmt.Sprintf("%5s", LogLevelString(r.Level))))
	b.WriteByte(' ')
	b.WriteString(r.Message)
	if len(fields) > 0 {
		b.WriteString(" → ")
		data, err := json.Marshal(fields)
		if err != nil {
			b.WriteString("[json-error]")
		} else {
			b.Write(data)
		}
	}
	b.WriteByte('\n')
	return []byte(b.String())
}

func (h *Handler) renderPretty(r slog.Record, fields map[string]any) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s | %s\n",
		r.Time.Format("2006-01-02 15:04:05"),
		h.paint(r.Level, LogLevelString(r.Level)),
		r.Message)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  • %s = %v\n", k, fields[k])
	}
	return []byte(b.String())
}

func (h *Handler) renderJSON(r slog.Record, fields map[string]any) ([]byte, error) {
	fields["time"] = r.Time.Format("2006-01-02T15:04:05.000Z07:00")
	fields["level"] = LogLevelString(r.Level)
	fields["msg"] = r.Message
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorGray   = "\033[90m"
)

func (h *Handler) paint(level slog.Level, s string) string {
	if !h.colors {
		return s
	}
	var color string
	switch {
	case level < slog.LevelDebug:
		color = colorGray
	case level < slog.LevelInfo:
		color = colorBlue
	case level < slog.LevelWarn:
		color = colorGreen
	case level < slog.LevelError:
		color = colorYellow
	default:
		color = colorRed
	}
	return color + s + colorReset
}
