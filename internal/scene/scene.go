// Package scene holds the brick hierarchy: an arena of nodes indexed by
// handle, with parent/child edges kept in sync on every mutation.
//
// A Scene is not safe for concurrent use. Callers serialize access.
package scene

import (
	"fmt"
	"sort"
	"strings"
)

// Handle identifies a node in a Scene. Handles are never reused.
type Handle uint32

// None is the zero handle: no node.
const None Handle = 0

// Kind is the discriminant of a node.
type Kind uint8

const (
	KindObject Kind = iota // plain transform (scene-graph parent, prefab root)
	KindBrick              // physical part instance
	KindGroup              // owns one connected cluster of bricks
	KindModel              // owns the groups of one assembly
)

var kindNames = [...]string{"object", "brick", "group", "model"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseKind parses the textual form produced by Kind.String.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindObject, nil
	}
	for i, name := range kindNames {
		if name == s {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Part is one constituent part of a brick. The first part is the primary
// part and decides whether the brick takes part in connectivity.
type Part struct {
	Connectivity bool
}

// View is a culling camera configuration carried by a group.
type View struct {
	Name        string
	Perspective bool
	Position    Vec3
	Rotation    Vec3
	FOV         float64
	Size        float64
	MinRange    float64
	MaxRange    float64
	Aspect      float64
}

// GroupData is the grouping metadata of a group node. It is opaque to the
// reconciler and copied verbatim when a group is split.
type GroupData struct {
	GroupName        string
	ParentName       string
	Optimizations    int
	RandomizeNormals bool
	Views            []View
	AutoGenerated    bool
}

// Clone returns a deep copy of g.
func (g GroupData) Clone() GroupData {
	out := g
	if g.Views != nil {
		out.Views = make([]View, len(g.Views))
		copy(out.Views, g.Views)
	}
	return out
}

// PivotPolicy controls where RecomputePivot places a model.
type PivotPolicy uint8

const (
	PivotOriginal PivotPolicy = iota
	PivotCenter
	PivotBottomCenter
)

var pivotNames = [...]string{"original", "center", "bottom-center"}

func (p PivotPolicy) String() string {
	if int(p) < len(pivotNames) {
		return pivotNames[p]
	}
	return "unknown"
}

// ParsePivotPolicy parses the textual form produced by PivotPolicy.String.
func ParsePivotPolicy(s string) (PivotPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PivotBottomCenter, nil
	}
	for i, name := range pivotNames {
		if name == s {
			return PivotPolicy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pivot policy %q", s)
}

// ModelData is the metadata of a model node.
type ModelData struct {
	Pivot         PivotPolicy
	AutoGenerated bool
}

// Node is a single entry of the arena. Structural fields (parent, children)
// are only changed through Scene methods.
type Node struct {
	Key      string
	Kind     Kind
	Name     string
	Position Vec3 // world space; the box center for bricks

	// Brick fields.
	Size     Vec3
	Parts    []Part
	Override bool // explicit local addition inside a prefab instance

	// Prefab membership: Prefab is the instance root this node belongs to
	// (a root points at itself), PrefabRoot marks instance roots.
	Prefab     Handle
	PrefabRoot bool

	Group *GroupData
	Model *ModelData

	parent   Handle
	children []Handle
	alive    bool
}

// Scene is the hierarchy store for one document.
type Scene struct {
	nodes    []Node // index 0 is the None sentinel
	byKey    map[string]Handle
	byKind   [4]map[Handle]struct{}
	edges    map[Handle]map[Handle]struct{}
	ctx      Context
	listener Listener
	epsilon  float64
}

// New returns an empty scene.
func New() *Scene {
	s := &Scene{
		nodes:   make([]Node, 1, 64),
		byKey:   make(map[string]Handle),
		edges:   make(map[Handle]map[Handle]struct{}),
		epsilon: DefaultEpsilon,
	}
	for i := range s.byKind {
		s.byKind[i] = make(map[Handle]struct{})
	}
	return s
}

// SetListener installs l as the mutation listener. Pass nil to detach.
func (s *Scene) SetListener(l Listener) {
	s.listener = l
}

// SetEpsilon sets the distance under which a pivot move is skipped.
func (s *Scene) SetEpsilon(eps float64) {
	if eps > 0 {
		s.epsilon = eps
	}
}

// Add inserts n as a root node and returns its handle. An empty key is
// replaced by a generated one. Add does not notify the listener: it builds
// scenes, it does not edit them.
func (s *Scene) Add(n Node) (Handle, error) {
	if int(n.Kind) >= len(s.byKind) {
		return None, fmt.Errorf("%w: %d", ErrUnknownKind, n.Kind)
	}
	h := Handle(len(s.nodes))
	if n.Key == "" {
		n.Key = s.freshKey(n.Kind, h)
	}
	if _, dup := s.byKey[n.Key]; dup {
		return None, fmt.Errorf("%w: %q", ErrDuplicateKey, n.Key)
	}
	if n.Kind == KindGroup && n.Group == nil {
		n.Group = &GroupData{}
	}
	if n.Kind == KindModel && n.Model == nil {
		n.Model = &ModelData{}
	}
	if n.PrefabRoot && n.Prefab == None {
		n.Prefab = h
	}
	n.parent = None
	n.children = nil
	n.alive = true
	s.nodes = append(s.nodes, n)
	s.byKey[n.Key] = h
	s.byKind[n.Kind][h] = struct{}{}
	return h, nil
}

func (s *Scene) freshKey(k Kind, h Handle) string {
	key := fmt.Sprintf("%s-%d", k, h)
	for i := 2; ; i++ {
		if _, taken := s.byKey[key]; !taken {
			return key
		}
		key = fmt.Sprintf("%s-%d-%d", k, h, i)
	}
}

// Node returns the node for h, or nil if h does not exist. Callers may
// edit non-structural fields through the pointer.
func (s *Scene) Node(h Handle) *Node {
	if !s.Exists(h) {
		return nil
	}
	return &s.nodes[h]
}

// Exists reports whether h names a live node.
func (s *Scene) Exists(h Handle) bool {
	return h != None && int(h) < len(s.nodes) && s.nodes[h].alive
}

// Lookup returns the handle of the node with the given key.
func (s *Scene) Lookup(key string) (Handle, bool) {
	h, ok := s.byKey[key]
	return h, ok && s.Exists(h)
}

// Key returns the document key of h.
func (s *Scene) Key(h Handle) string {
	if !s.Exists(h) {
		return ""
	}
	return s.nodes[h].Key
}

// Kind returns the kind of h. Missing nodes report KindObject.
func (s *Scene) Kind(h Handle) Kind {
	if !s.Exists(h) {
		return KindObject
	}
	return s.nodes[h].Kind
}

// Is reports whether h exists and has kind k.
func (s *Scene) Is(h Handle, k Kind) bool {
	return s.Exists(h) && s.nodes[h].Kind == k
}

// Name returns the display name of h.
func (s *Scene) Name(h Handle) string {
	if !s.Exists(h) {
		return ""
	}
	return s.nodes[h].Name
}

// Parent returns the parent of h, or None.
func (s *Scene) Parent(h Handle) Handle {
	if !s.Exists(h) {
		return None
	}
	return s.nodes[h].parent
}

// Children returns a snapshot of the children of h, in insertion order.
func (s *Scene) Children(h Handle) []Handle {
	if !s.Exists(h) {
		return nil
	}
	return append([]Handle(nil), s.nodes[h].children...)
}

// Roots returns a snapshot of every parentless node, by handle.
func (s *Scene) Roots() []Handle {
	var roots []Handle
	for h := Handle(1); int(h) < len(s.nodes); h++ {
		if s.nodes[h].alive && s.nodes[h].parent == None {
			roots = append(roots, h)
		}
	}
	return roots
}

// Nodes returns a snapshot of every live node of kind k, by handle.
func (s *Scene) Nodes(k Kind) []Handle {
	if int(k) >= len(s.byKind) {
		return nil
	}
	out := make([]Handle, 0, len(s.byKind[k]))
	for h := range s.byKind[k] {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len returns the number of live nodes.
func (s *Scene) Len() int {
	n := 0
	for _, m := range s.byKind {
		n += len(m)
	}
	return n
}

// Ancestors returns the ancestors of h, nearest first.
func (s *Scene) Ancestors(h Handle) []Handle {
	var out []Handle
	for p := s.Parent(h); p != None; p = s.nodes[p].parent {
		out = append(out, p)
	}
	return out
}

// NearestAncestor returns the closest ancestor of h with kind k, or None.
// h itself is not considered.
func (s *Scene) NearestAncestor(h Handle, k Kind) Handle {
	for p := s.Parent(h); p != None; p = s.nodes[p].parent {
		if s.nodes[p].Kind == k {
			return p
		}
	}
	return None
}

// IsDescendant reports whether h sits strictly below root.
func (s *Scene) IsDescendant(h, root Handle) bool {
	for p := s.Parent(h); p != None; p = s.nodes[p].parent {
		if p == root {
			return true
		}
	}
	return false
}

// Descendants returns every node of kind k below h in pre-order. h itself
// is not included.
func (s *Scene) Descendants(h Handle, k Kind) []Handle {
	if !s.Exists(h) {
		return nil
	}
	var out []Handle
	s.walk(h, func(n Handle) {
		if n != h && s.nodes[n].Kind == k {
			out = append(out, n)
		}
	})
	return out
}

// BrickDescendants returns every brick below h in pre-order.
func (s *Scene) BrickDescendants(h Handle) []Handle {
	return s.Descendants(h, KindBrick)
}

// HasBrickDescendant reports whether any brick sits below h.
func (s *Scene) HasBrickDescendant(h Handle) bool {
	if !s.Exists(h) {
		return false
	}
	stack := append([]Handle(nil), s.nodes[h].children...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if s.nodes[n].Kind == KindBrick {
			return true
		}
		stack = append(stack, s.nodes[n].children...)
	}
	return false
}

// walk visits h and its subtree in pre-order.
func (s *Scene) walk(h Handle, fn func(Handle)) {
	fn(h)
	for _, c := range s.nodes[h].children {
		s.walk(c, fn)
	}
}

// GroupData returns a copy of the grouping metadata of group h.
func (s *Scene) GroupData(h Handle) (GroupData, bool) {
	n := s.Node(h)
	if n == nil || n.Group == nil {
		return GroupData{}, false
	}
	return n.Group.Clone(), true
}
