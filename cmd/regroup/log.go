package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
}

// setupFileLogger redirects slog to a file at debug level. It is used when
// stdout and stderr belong to someone else, as with the MCP server.
func setupFileLogger(path string) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		slog.Warn("failed to create log directory, keeping stderr", "path", path, "error", err)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		slog.Warn("failed to open log file, keeping stderr", "path", path, "error", err)
		return
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)
}

// ringBuffer stores the last N lines of log output.
type ringBuffer struct {
	mu    sync.RWMutex
	lines []string
	cap   int
	count int // total lines ever written
}

func newRingBuffer(cap int) *ringBuffer {
	return &ringBuffer{
		lines: make([]string, 0, cap),
		cap:   cap,
	}
}

func (b *ringBuffer) Write(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) < b.cap {
		b.lines = append(b.lines, line)
	} else {
		b.lines = append(b.lines[1:], line)
	}
	b.count++
}

func (b *ringBuffer) Lines() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}

// Dropped returns how many lines fell off the front of the buffer.
func (b *ringBuffer) Dropped() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count - len(b.lines)
}

// slogRingHandler is a slog.Handler writing one line per record to a ring
// buffer, and forwarding the record to next when set.
type slogRingHandler struct {
	buf   *ringBuffer
	level slog.Level
	attrs []slog.Attr
	next  slog.Handler
}

func newSlogRingHandler(buf *ringBuffer, level slog.Level, next slog.Handler) *slogRingHandler {
	return &slogRingHandler{buf: buf, level: level, next: next}
}

func (h *slogRingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level || (h.next != nil && h.next.Enabled(ctx, level))
}

func (h *slogRingHandler) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= h.level {
		line := fmt.Sprintf("%s %s %s", r.Time.Format(time.TimeOnly), r.Level.String(), r.Message)
		for _, a := range h.attrs {
			line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		}
		r.Attrs(func(a slog.Attr) bool {
			line += fmt.Sprintf(" %s=%v", a.Key, a.Value)
			return true
		})
		h.buf.Write(line)
	}
	if h.next != nil && h.next.Enabled(ctx, r.Level) {
		return h.next.Handle(ctx, r)
	}
	return nil
}

func (h *slogRingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	if h.next != nil {
		c.next = h.next.WithAttrs(attrs)
	}
	return &c
}

func (h *slogRingHandler) WithGroup(name string) slog.Handler {
	return h
}
