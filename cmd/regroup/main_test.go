package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/goleak"

	"github.com/lthms/regroup/internal/scene"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// looseYAML holds two connected bricks that no group owns.
const looseYAML = `
nodes:
  - id: a
    kind: brick
    position: [0, 0.5, 0]
    size: [1, 1, 1]
    parts: [true]
  - id: b
    kind: brick
    position: [1, 0.5, 0]
    size: [1, 1, 1]
    parts: [true]
connections:
  - [a, b]
`

// tableYAML holds a group with one connected pair and one stray brick.
const tableYAML = `
nodes:
  - id: furniture
    kind: model
  - id: table
    kind: group
    parent: furniture
  - id: a
    kind: brick
    parent: table
    position: [0, 0.5, 0]
    size: [1, 1, 1]
    parts: [true]
  - id: b
    kind: brick
    parent: table
    position: [1, 0.5, 0]
    size: [1, 1, 1]
    parts: [true]
  - id: c
    kind: brick
    parent: table
    position: [5, 0.5, 0]
    size: [1, 1, 1]
    parts: [true]
connections:
  - [a, b]
`

func writeScene(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readScene(t *testing.T, path string) *scene.Scene {
	t.Helper()
	s, err := scene.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return s
}

func lookup(t *testing.T, s *scene.Scene, key string) scene.Handle {
	t.Helper()
	h, ok := s.Lookup(key)
	if !ok {
		t.Fatalf("node %q missing", key)
	}
	return h
}

// testApp returns an app writing to a buffer, with its database under a
// temporary directory.
func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	cfg := defaultConfig()
	cfg.StorePath = filepath.Join(t.TempDir(), "db", "scenes.db")
	var out bytes.Buffer
	return &app{cfg: cfg, stdout: &out}, &out
}

func TestSceneName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"house.yaml", "house"},
		{"/tmp/scenes/garage.scene.yml", "garage.scene"},
		{"barn", "barn"},
	}
	for _, tt := range tests {
		if got := sceneName(tt.in); got != tt.want {
			t.Errorf("sceneName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
