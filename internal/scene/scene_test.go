package scene

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func mustAdd(t *testing.T, s *Scene, n Node, parent Handle) Handle {
	t.Helper()
	h, err := s.Add(n)
	if err != nil {
		t.Fatalf("add %q: %v", n.Key, err)
	}
	if parent != None {
		if err := s.SetParent(h, parent); err != nil {
			t.Fatalf("set parent of %q: %v", n.Key, err)
		}
	}
	return h
}

func brick(key string, pos Vec3) Node {
	return Node{Key: key, Name: key, Kind: KindBrick, Position: pos, Size: Vec3{1, 1, 1}, Parts: []Part{{Connectivity: true}}}
}

func TestAddGeneratesKeysAndRejectsDuplicates(t *testing.T) {
	s := New()
	h := mustAdd(t, s, Node{Kind: KindGroup}, None)
	if got, want := s.Key(h), "group-1"; got != want {
		t.Errorf("generated key: got %q, want %q", got, want)
	}
	if s.Node(h).Group == nil {
		t.Error("group data should default")
	}

	if _, err := s.Add(Node{Key: "group-1", Kind: KindBrick}); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("duplicate key: got %v, want ErrDuplicateKey", err)
	}
	if _, err := s.Add(Node{Key: "x", Kind: Kind(9)}); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("bad kind: got %v, want ErrUnknownKind", err)
	}

	root := mustAdd(t, s, Node{Key: "root", PrefabRoot: true}, None)
	if got := s.Node(root).Prefab; got != root {
		t.Errorf("prefab root should point at itself, got %d", got)
	}
}

func TestSetParent(t *testing.T) {
	s := New()
	a := mustAdd(t, s, Node{Key: "a"}, None)
	b := mustAdd(t, s, Node{Key: "b"}, a)
	c := mustAdd(t, s, Node{Key: "c"}, b)

	if err := s.SetParent(a, c); !errors.Is(err, ErrCycle) {
		t.Errorf("cycle: got %v, want ErrCycle", err)
	}
	if err := s.SetParent(a, a); !errors.Is(err, ErrCycle) {
		t.Errorf("self parent: got %v, want ErrCycle", err)
	}
	if err := s.SetParent(a, 42); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("missing parent: got %v, want ErrNodeNotFound", err)
	}

	if err := s.SetParent(c, a); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Handle{b, c}, s.Children(a)); diff != "" {
		t.Errorf("children of a (-want +got):\n%s", diff)
	}
	if got := s.Children(b); len(got) != 0 {
		t.Errorf("children of b: got %v, want none", got)
	}
	if diff := cmp.Diff([]Handle{a}, s.Ancestors(c)); diff != "" {
		t.Errorf("ancestors of c (-want +got):\n%s", diff)
	}

	if err := s.SetParent(c, None); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Handle{a, c}, s.Roots()); diff != "" {
		t.Errorf("roots (-want +got):\n%s", diff)
	}
}

func TestTreeQueries(t *testing.T) {
	s := New()
	m := mustAdd(t, s, Node{Key: "m", Kind: KindModel}, None)
	g := mustAdd(t, s, Node{Key: "g", Kind: KindGroup}, m)
	x := mustAdd(t, s, brick("x", Vec3{}), g)
	y := mustAdd(t, s, brick("y", Vec3{}), x)
	empty := mustAdd(t, s, Node{Key: "empty", Kind: KindGroup}, m)

	if got := s.NearestAncestor(y, KindGroup); got != g {
		t.Errorf("nearest group of y: got %d, want %d", got, g)
	}
	if got := s.NearestAncestor(g, KindGroup); got != None {
		t.Errorf("nearest group excludes self, got %d", got)
	}
	if !s.IsDescendant(y, m) || s.IsDescendant(m, m) {
		t.Error("IsDescendant should be strict")
	}
	if diff := cmp.Diff([]Handle{x, y}, s.BrickDescendants(m)); diff != "" {
		t.Errorf("bricks of m (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Handle{g, empty}, s.Descendants(m, KindGroup)); diff != "" {
		t.Errorf("groups of m (-want +got):\n%s", diff)
	}
	if !s.HasBrickDescendant(m) || s.HasBrickDescendant(empty) {
		t.Error("HasBrickDescendant mismatch")
	}
	if diff := cmp.Diff([]Handle{g, empty}, s.Nodes(KindGroup)); diff != "" {
		t.Errorf("groups (-want +got):\n%s", diff)
	}
}

func TestDestroyRemovesSubtree(t *testing.T) {
	s := New()
	m := mustAdd(t, s, Node{Key: "m", Kind: KindModel}, None)
	g := mustAdd(t, s, Node{Key: "g", Kind: KindGroup}, m)
	a := mustAdd(t, s, brick("a", Vec3{}), g)
	b := mustAdd(t, s, brick("b", Vec3{}), None)
	if err := s.Connect(a, b); err != nil {
		t.Fatal(err)
	}

	j := NewJournal(s)
	s.SetListener(j)
	if err := s.Destroy(m); err != nil {
		t.Fatal(err)
	}

	for _, h := range []Handle{m, g, a} {
		if s.Exists(h) {
			t.Errorf("%d should be destroyed", h)
		}
	}
	if _, ok := s.Lookup("a"); ok {
		t.Error("key of destroyed node still resolves")
	}
	if got := s.Neighbors(b); len(got) != 0 {
		t.Errorf("neighbors of b: got %v, want none", got)
	}
	if got := s.Len(); got != 1 {
		t.Errorf("len: got %d, want 1", got)
	}
	if err := s.Destroy(m); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("double destroy: got %v, want ErrNodeNotFound", err)
	}

	entries := j.Entries()
	if len(entries) != 1 || entries[0].Op != OpDestroy || entries[0].Key != "m" {
		t.Errorf("journal: got %v, want a single destroy of m", entries)
	}
}

func TestMoveToCarriesSubtree(t *testing.T) {
	s := New()
	g := mustAdd(t, s, Node{Key: "g", Kind: KindGroup, Position: Vec3{1, 0, 0}}, None)
	a := mustAdd(t, s, brick("a", Vec3{2, 0, 0}), g)

	s.MoveTo(g, Vec3{1, 5, 0})
	if got, want := s.Position(a), (Vec3{2, 5, 0}); got != want {
		t.Errorf("after MoveTo: got %v, want %v", got, want)
	}

	s.SetPosition(g, Vec3{})
	if got, want := s.Position(a), (Vec3{2, 5, 0}); got != want {
		t.Errorf("SetPosition moved a child: got %v, want %v", got, want)
	}
}

func TestCreateDefaults(t *testing.T) {
	s := New()
	j := NewJournal(s)
	s.SetListener(j)

	m := s.CreateDefaultModel("car")
	g := s.CreateDefaultGroup("wheels")

	if got := *s.Node(m).Model; got != (ModelData{Pivot: PivotBottomCenter, AutoGenerated: true}) {
		t.Errorf("model data: got %+v", got)
	}
	gd, _ := s.GroupData(g)
	if gd.GroupName != "wheels" || !gd.AutoGenerated {
		t.Errorf("group data: got %+v", gd)
	}
	if got := j.Count(OpCreate); got != 2 {
		t.Errorf("create entries: got %d, want 2", got)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindObject, false},
		{"brick", KindBrick, false},
		{" Group ", KindGroup, false},
		{"model", KindModel, false},
		{"widget", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJournal(t *testing.T) {
	s := New()
	j := NewJournal(s)
	s.SetListener(j)

	g := s.CreateDefaultGroup("g")
	a := mustAdd(t, s, brick("a", Vec3{}), None)
	if err := s.SetParent(a, g); err != nil {
		t.Fatal(err)
	}
	if err := s.SetParent(a, g); err != nil {
		t.Fatal(err)
	}
	s.SetPosition(g, Vec3{1, 2, 3})
	if err := s.Destroy(g); err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, e := range j.Entries() {
		got = append(got, e.String())
	}
	want := []string{
		"create group-1",
		"reparent a: <root> -> group-1",
		"move group-1: (0, 0, 0) -> (1, 2, 3)",
		"destroy group-1",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}
	if got := j.Structural(); got != 3 {
		t.Errorf("structural: got %d, want 3", got)
	}

	j.Reset()
	if j.Len() != 0 {
		t.Errorf("len after reset: got %d", j.Len())
	}
}
