package main

import (
	"bytes"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer, color bool) *progressHandler {
	return &progressHandler{mu: &sync.Mutex{}, out: buf, level: slog.LevelInfo, color: color}
}

func TestProgressHandler_PlainOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newPrettyLogger(&buf).With("project", "demo")

	logger.Info("network created", "name", "web-vpc")
	logger.Debug("hidden")
	logger.Warn("Provisioning halted", "created", []string{"network/web-vpc", "subnet/web-subnet"})

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "→ network created  project=demo  name=web-vpc", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "⚠ Provisioning halted")
	assert.Contains(t, lines[1], "created=network/web-vpc, subnet/web-subnet")
	assert.NotContains(t, out, "hidden")
	assert.NotContains(t, out, "\033[", "a bytes.Buffer is not a terminal")
}

func TestProgressHandler_Colored(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, true))

	logger.Info("Instance addresses", "external", "34.1.2.3")
	assert.Contains(t, buf.String(), clrGreen+"34.1.2.3"+clrReset)
}

func TestProgressHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(newTestHandler(&buf, false)).WithGroup("op").With("zone", "us-central1-a")

	logger.Info("waiting", slog.Group("status", "state", "RUNNING"))
	assert.Contains(t, buf.String(), "op.zone=us-central1-a")
	assert.Contains(t, buf.String(), "op.status.state=RUNNING")
}

func TestValueColor(t *testing.T) {
	tests := []struct {
		key  string
		v    slog.Value
		want string
	}{
		{"error", slog.StringValue("boom"), clrRed},
		{"failed", slog.StringValue("web-server"), clrRed},
		{"external", slog.StringValue(""), clrGreen},
		{"host", slog.StringValue("34.1.2.3"), clrGreen},
		{"count", slog.IntValue(3), clrYellow},
		{"duration", slog.DurationValue(2 * time.Second), clrYellow},
		{"name", slog.StringValue("web-vpc"), clrCyan},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, valueColor(tt.key, tt.v, formatValue(tt.v)))
		})
	}
}
