package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg carries a slog record into the model's status line.
type logRecordMsg struct {
	Summary string
	Level   slog.Level
}

// logFadeMsg clears a status line message.  seq ties it to the message it
// was scheduled for so a newer message is not cleared early.
type logFadeMsg struct{ seq int }

// logFadeDelay is how long a log message stays in the status line.
const logFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that routes records into the running
// program as messages instead of writing to the terminal the TUI owns.
// Records arriving before SetProgram are dropped.  Derived handlers share
// the program pointer.
type LogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	group   string
}

func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{level: level, program: &atomic.Pointer[tea.Program]{}}
}

// SetProgram enables delivery.  Safe from any goroutine.
func (h *LogHandler) SetProgram(p *tea.Program) { h.program.Store(p) }

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogHandler) Handle(_ context.Context, r slog.Record) error {
	p := h.program.Load()
	if p == nil {
		return nil
	}
	p.Send(logRecordMsg{Summary: h.summary(r), Level: r.Level})
	return nil
}

// summary renders "message (key=value, ...)".
func (h *LogHandler) summary(r slog.Record) string {
	var parts []string
	add := func(a slog.Attr) {
		k := a.Key
		if h.group != "" {
			k = h.group + "." + k
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, a.Value))
	}
	for _, a := range h.attrs {
		add(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		add(a)
		return true
	})
	if len(parts) == 0 {
		return r.Message
	}
	return r.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &next
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.attrs = append([]slog.Attr(nil), h.attrs...)
	if next.group != "" {
		name = next.group + "." + name
	}
	next.group = name
	return &next
}
