package main

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRingBufferKeepsLastLines(t *testing.T) {
	b := newRingBuffer(3)
	for _, l := range []string{"a", "b", "c", "d", "e"} {
		b.Write(l)
	}
	if diff := cmp.Diff([]string{"c", "d", "e"}, b.Lines()); diff != "" {
		t.Errorf("lines (-want +got):\n%s", diff)
	}
	if got := b.Dropped(); got != 2 {
		t.Errorf("dropped = %d, want 2", got)
	}
}

func TestSlogRingHandler(t *testing.T) {
	buf := newRingBuffer(10)
	logger := slog.New(newSlogRingHandler(buf, slog.LevelInfo, nil)).With("scene", "house")

	logger.Debug("hidden")
	logger.Info("regroup: merged", "target", "walls")

	lines := buf.Lines()
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d: %v", len(lines), lines)
	}
	for _, want := range []string{"INFO", "regroup: merged", "scene=house", "target=walls"} {
		if !strings.Contains(lines[0], want) {
			t.Errorf("line %q missing %q", lines[0], want)
		}
	}
}

func TestSlogRingHandlerForwards(t *testing.T) {
	inner := newRingBuffer(10)
	outer := newRingBuffer(10)
	next := newSlogRingHandler(inner, slog.LevelWarn, nil)
	logger := slog.New(newSlogRingHandler(outer, slog.LevelDebug, next))

	logger.Debug("debug line")
	logger.Warn("warn line")

	if got := len(outer.Lines()); got != 2 {
		t.Errorf("outer lines = %d, want 2", got)
	}
	if got := inner.Lines(); len(got) != 1 || !strings.Contains(got[0], "warn line") {
		t.Errorf("inner lines = %v, want only the warning", got)
	}
}
