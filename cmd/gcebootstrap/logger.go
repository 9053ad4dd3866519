package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

const (
	clrReset  = "\033[0m"
	clrBold   = "\033[1m"
	clrRed    = "\033[31m"
	clrYellow = "\033[33m"
	clrGreen  = "\033[32m"
	clrCyan   = "\033[36m"
	clrGray   = "\033[90m"
	clrWhite  = "\033[97m"
)

// levelStyle is the glyph and message color of one log level.
type levelStyle struct {
	glyph string
	color string
}

var levelStyles = map[slog.Level]levelStyle{
	slog.LevelDebug: {"·", clrGray},
	slog.LevelInfo:  {"→", clrWhite},
	slog.LevelWarn:  {"⚠", clrYellow},
	slog.LevelError: {"✗", clrRed},
}

// addressKeys hold IP addresses; they are the values a user copies out of
// the progress output.
var addressKeys = map[string]bool{"external": true, "internal": true, "ip": true}

// progressHandler prints provisioning progress one line per record:
// level glyph, bold message, then key=value pairs. Colors are dropped when the
// output is not a terminal.
type progressHandler struct {
	mu     *sync.Mutex
	out    io.Writer
	level  slog.Level
	color  bool
	group  string
	preset []slog.Attr
}

func newPrettyLogger(w io.Writer) *slog.Logger {
	return slog.New(&progressHandler{
		mu:    &sync.Mutex{},
		out:   w,
		level: slog.LevelInfo,
		color: isTerminalWriter(w),
	})
}

func isTerminalWriter(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (h *progressHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *progressHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = make([]slog.Attr, 0, len(h.preset)+len(attrs))
	clone.preset = append(clone.preset, h.preset...)
	for _, a := range attrs {
		clone.preset = append(clone.preset, slog.Attr{Key: h.qualify(a.Key), Value: a.Value})
	}
	return &clone
}

func (h *progressHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.qualify(name)
	return &clone
}

func (h *progressHandler) qualify(key string) string {
	if h.group == "" {
		return key
	}
	return h.group + "." + key
}

func (h *progressHandler) paint(color, s string) string {
	if !h.color || color == "" {
		return s
	}
	return color + s + clrReset
}

func (h *progressHandler) Handle(_ context.Context, r slog.Record) error {
	style, ok := levelStyles[r.Level]
	if !ok {
		style = levelStyles[slog.LevelDebug]
	}

	var sb strings.Builder
	sb.WriteString("  ")
	sb.WriteString(h.paint(style.color, style.glyph))
	sb.WriteString(" ")
	sb.WriteString(h.paint(style.color+clrBold, r.Message))

	for _, a := range h.preset {
		h.writeAttr(&sb, a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&sb, h.qualify(a.Key), a.Value)
		return true
	})
	sb.WriteString("\n")

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.out, sb.String())
	return err
}

// writeAttr flattens groups into dotted keys.
func (h *progressHandler) writeAttr(sb *strings.Builder, key string, v slog.Value) {
	v = v.Resolve()
	if v.Kind() == slog.KindGroup {
		for _, a := range v.Group() {
			h.writeAttr(sb, key+"."+a.Key, a.Value)
		}
		return
	}
	text := formatValue(v)
	sb.WriteString("  ")
	sb.WriteString(h.paint(clrGray, key+"="))
	sb.WriteString(h.paint(valueColor(key, v, text), text))
}

// formatValue renders string slices (e.g. the resources left after a failed
// step) as a comma-separated list.
func formatValue(v slog.Value) string {
	if v.Kind() == slog.KindAny {
		if list, ok := v.Any().([]string); ok {
			return strings.Join(list, ", ")
		}
	}
	return v.String()
}

func valueColor(key string, v slog.Value, text string) string {
	switch {
	case key == "error" || key == "failed":
		return clrRed
	case addressKeys[key] || net.ParseIP(text) != nil:
		return clrGreen
	case v.Kind() == slog.KindDuration, v.Kind() == slog.KindInt64, v.Kind() == slog.KindUint64,
		v.Kind() == slog.KindFloat64:
		return clrYellow
	}
	if _, err := strconv.ParseFloat(text, 64); err == nil {
		return clrYellow
	}
	return clrCyan
}
