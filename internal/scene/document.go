package scene

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is the on-disk form of a scene.
type Document struct {
	Context     *DocContext `yaml:"context,omitempty"`
	Nodes       []DocNode   `yaml:"nodes"`
	Connections [][]string  `yaml:"connections,omitempty,flow"`
}

// DocContext is the editing context of a document.
type DocContext struct {
	Isolated bool   `yaml:"isolated"`
	Root     string `yaml:"root,omitempty"`
}

// DocNode is one node of a document. Parent and Prefab refer to node IDs.
type DocNode struct {
	ID         string    `yaml:"id"`
	Kind       string    `yaml:"kind"`
	Name       string    `yaml:"name,omitempty"`
	Parent     string    `yaml:"parent,omitempty"`
	Position   []float64 `yaml:"position,omitempty,flow"`
	Size       []float64 `yaml:"size,omitempty,flow"`
	Parts      []bool    `yaml:"parts,omitempty,flow"` // connectivity per part
	Override   bool      `yaml:"override,omitempty"`
	Prefab     string    `yaml:"prefab,omitempty"`
	PrefabRoot bool      `yaml:"prefab_root,omitempty"`
	Group      *DocGroup `yaml:"group,omitempty"`
	Model      *DocModel `yaml:"model,omitempty"`
}

// DocGroup is the grouping metadata of a group node.
type DocGroup struct {
	GroupName        string    `yaml:"group_name,omitempty"`
	ParentName       string    `yaml:"parent_name,omitempty"`
	Optimizations    int       `yaml:"optimizations,omitempty"`
	RandomizeNormals bool      `yaml:"randomize_normals,omitempty"`
	AutoGenerated    bool      `yaml:"auto_generated,omitempty"`
	Views            []DocView `yaml:"views,omitempty"`
}

// DocView is a culling camera configuration.
type DocView struct {
	Name        string    `yaml:"name"`
	Perspective bool      `yaml:"perspective,omitempty"`
	Position    []float64 `yaml:"position,omitempty,flow"`
	Rotation    []float64 `yaml:"rotation,omitempty,flow"`
	FOV         float64   `yaml:"fov,omitempty"`
	Size        float64   `yaml:"size,omitempty"`
	MinRange    float64   `yaml:"min_range,omitempty"`
	MaxRange    float64   `yaml:"max_range,omitempty"`
	Aspect      float64   `yaml:"aspect,omitempty"`
}

// DocModel is the metadata of a model node.
type DocModel struct {
	Pivot         string `yaml:"pivot,omitempty"`
	AutoGenerated bool   `yaml:"auto_generated,omitempty"`
}

// ReadFile loads a scene from a YAML document on disk.
func ReadFile(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Parse decodes a YAML document into a scene.
func Parse(data []byte) (*Scene, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	return FromDocument(&doc)
}

// FromDocument builds a scene from doc. Nodes may appear in any order;
// parents and prefab roots are resolved after every node is added.
func FromDocument(doc *Document) (*Scene, error) {
	s := New()
	handles := make([]Handle, len(doc.Nodes))
	for i, dn := range doc.Nodes {
		n, err := dn.node()
		if err != nil {
			return nil, err
		}
		h, err := s.Add(n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", dn.ID, err)
		}
		handles[i] = h
	}

	resolve := func(id, field, owner string) (Handle, error) {
		if id == "" {
			return None, nil
		}
		h, ok := s.Lookup(id)
		if !ok {
			return None, fmt.Errorf("node %q: %s %q: %w", owner, field, id, ErrNodeNotFound)
		}
		return h, nil
	}

	for i, dn := range doc.Nodes {
		h := handles[i]
		parent, err := resolve(dn.Parent, "parent", dn.ID)
		if err != nil {
			return nil, err
		}
		if parent != None {
			if err := s.SetParent(h, parent); err != nil {
				return nil, fmt.Errorf("node %q: %w", dn.ID, err)
			}
		}
		if dn.Prefab != "" {
			root, err := resolve(dn.Prefab, "prefab", dn.ID)
			if err != nil {
				return nil, err
			}
			s.nodes[h].Prefab = root
		}
	}

	for _, pair := range doc.Connections {
		if len(pair) != 2 {
			return nil, fmt.Errorf("connection %v: want 2 bricks, got %d", pair, len(pair))
		}
		a, err := resolve(pair[0], "connection", pair[0])
		if err != nil {
			return nil, err
		}
		b, err := resolve(pair[1], "connection", pair[1])
		if err != nil {
			return nil, err
		}
		if err := s.Connect(a, b); err != nil {
			return nil, err
		}
	}

	if doc.Context != nil {
		ctx := Context{Isolated: doc.Context.Isolated}
		if doc.Context.Root != "" {
			root, err := resolve(doc.Context.Root, "context root", "context")
			if err != nil {
				return nil, err
			}
			ctx.Root = root
		}
		s.SetContext(ctx)
	}
	return s, nil
}

func (dn DocNode) node() (Node, error) {
	if dn.ID == "" {
		return Node{}, fmt.Errorf("node without id")
	}
	kind, err := ParseKind(dn.Kind)
	if err != nil {
		return Node{}, fmt.Errorf("node %q: %w", dn.ID, err)
	}
	pos, err := vecOf(dn.Position)
	if err != nil {
		return Node{}, fmt.Errorf("node %q: position: %w", dn.ID, err)
	}
	size, err := vecOf(dn.Size)
	if err != nil {
		return Node{}, fmt.Errorf("node %q: size: %w", dn.ID, err)
	}

	n := Node{
		Key:        dn.ID,
		Kind:       kind,
		Name:       dn.Name,
		Position:   pos,
		Size:       size,
		Override:   dn.Override,
		PrefabRoot: dn.PrefabRoot,
	}
	if n.Name == "" {
		n.Name = dn.ID
	}
	for _, c := range dn.Parts {
		n.Parts = append(n.Parts, Part{Connectivity: c})
	}

	switch kind {
	case KindGroup:
		g := GroupData{}
		if dn.Group != nil {
			g = GroupData{
				GroupName:        dn.Group.GroupName,
				ParentName:       dn.Group.ParentName,
				Optimizations:    dn.Group.Optimizations,
				RandomizeNormals: dn.Group.RandomizeNormals,
				AutoGenerated:    dn.Group.AutoGenerated,
			}
			for _, v := range dn.Group.Views {
				view, err := v.view()
				if err != nil {
					return Node{}, fmt.Errorf("node %q: view %q: %w", dn.ID, v.Name, err)
				}
				g.Views = append(g.Views, view)
			}
		}
		n.Group = &g
	case KindModel:
		m := ModelData{Pivot: PivotBottomCenter}
		if dn.Model != nil {
			p, err := ParsePivotPolicy(dn.Model.Pivot)
			if err != nil {
				return Node{}, fmt.Errorf("node %q: %w", dn.ID, err)
			}
			m = ModelData{Pivot: p, AutoGenerated: dn.Model.AutoGenerated}
		}
		n.Model = &m
	}
	return n, nil
}

func (v DocView) view() (View, error) {
	pos, err := vecOf(v.Position)
	if err != nil {
		return View{}, err
	}
	rot, err := vecOf(v.Rotation)
	if err != nil {
		return View{}, err
	}
	return View{
		Name:        v.Name,
		Perspective: v.Perspective,
		Position:    pos,
		Rotation:    rot,
		FOV:         v.FOV,
		Size:        v.Size,
		MinRange:    v.MinRange,
		MaxRange:    v.MaxRange,
		Aspect:      v.Aspect,
	}, nil
}

func vecOf(xs []float64) (Vec3, error) {
	switch len(xs) {
	case 0:
		return Vec3{}, nil
	case 3:
		return Vec3{xs[0], xs[1], xs[2]}, nil
	default:
		return Vec3{}, fmt.Errorf("want 3 coordinates, got %d", len(xs))
	}
}

func floatsOf(v Vec3) []float64 {
	if v == (Vec3{}) {
		return nil
	}
	return []float64{v.X, v.Y, v.Z}
}

// Document converts s back to its on-disk form. Nodes are listed in
// hierarchy pre-order so parents precede their children.
func (s *Scene) Document() *Document {
	doc := &Document{}
	for _, root := range s.Roots() {
		s.walk(root, func(h Handle) {
			doc.Nodes = append(doc.Nodes, s.docNode(h))
		})
	}
	for _, e := range s.Edges() {
		doc.Connections = append(doc.Connections, []string{s.Key(e[0]), s.Key(e[1])})
	}
	if s.ctx.Isolated || s.ctx.Root != None {
		doc.Context = &DocContext{Isolated: s.ctx.Isolated, Root: s.Key(s.ctx.Root)}
	}
	return doc
}

func (s *Scene) docNode(h Handle) DocNode {
	n := &s.nodes[h]
	dn := DocNode{
		ID:         n.Key,
		Kind:       n.Kind.String(),
		Name:       n.Name,
		Parent:     s.Key(n.parent),
		Position:   floatsOf(n.Position),
		Size:       floatsOf(n.Size),
		Override:   n.Override,
		PrefabRoot: n.PrefabRoot,
	}
	if dn.Name == dn.ID {
		dn.Name = ""
	}
	if n.Prefab != None && n.Prefab != h {
		dn.Prefab = s.Key(n.Prefab)
	}
	for _, p := range n.Parts {
		dn.Parts = append(dn.Parts, p.Connectivity)
	}
	if n.Group != nil {
		g := &DocGroup{
			GroupName:        n.Group.GroupName,
			ParentName:       n.Group.ParentName,
			Optimizations:    n.Group.Optimizations,
			RandomizeNormals: n.Group.RandomizeNormals,
			AutoGenerated:    n.Group.AutoGenerated,
		}
		for _, v := range n.Group.Views {
			g.Views = append(g.Views, DocView{
				Name:        v.Name,
				Perspective: v.Perspective,
				Position:    floatsOf(v.Position),
				Rotation:    floatsOf(v.Rotation),
				FOV:         v.FOV,
				Size:        v.Size,
				MinRange:    v.MinRange,
				MaxRange:    v.MaxRange,
				Aspect:      v.Aspect,
			})
		}
		dn.Group = g
	}
	if n.Model != nil {
		dn.Model = &DocModel{Pivot: n.Model.Pivot.String(), AutoGenerated: n.Model.AutoGenerated}
	}
	return dn
}

// Encode writes s as a YAML document.
func (s *Scene) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Document()); err != nil {
		return fmt.Errorf("encode scene: %w", err)
	}
	return enc.Close()
}

// Marshal returns s as a YAML document.
func (s *Scene) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes s as a YAML document to path.
func (s *Scene) WriteFile(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
