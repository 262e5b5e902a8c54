package scene

import "fmt"

// SetParent moves h under parent (None detaches it). World positions are
// kept. Setting the current parent again is a no-op and is not reported to
// the listener.
func (s *Scene) SetParent(h, parent Handle) error {
	if !s.Exists(h) {
		return fmt.Errorf("set parent of %d: %w", h, ErrNodeNotFound)
	}
	if parent != None && !s.Exists(parent) {
		return fmt.Errorf("set parent of %s to %d: %w", s.nodes[h].Key, parent, ErrNodeNotFound)
	}
	old := s.nodes[h].parent
	if old == parent {
		return nil
	}
	if parent == h || s.IsDescendant(parent, h) {
		return fmt.Errorf("set parent of %s to %s: %w", s.nodes[h].Key, s.nodes[parent].Key, ErrCycle)
	}

	s.detach(h)
	s.nodes[h].parent = parent
	if parent != None {
		s.nodes[parent].children = append(s.nodes[parent].children, h)
	}
	if s.listener != nil {
		s.listener.Reparented(h, old, parent)
	}
	return nil
}

func (s *Scene) detach(h Handle) {
	p := s.nodes[h].parent
	if p == None {
		return
	}
	siblings := s.nodes[p].children
	for i, c := range siblings {
		if c == h {
			s.nodes[p].children = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	s.nodes[h].parent = None
}

// CreateGroup creates a root group node.
func (s *Scene) CreateGroup(name string, data GroupData) Handle {
	d := data.Clone()
	return s.create(Node{Kind: KindGroup, Name: name, Group: &d})
}

// CreateModel creates a root model node.
func (s *Scene) CreateModel(name string, data ModelData) Handle {
	d := data
	return s.create(Node{Kind: KindModel, Name: name, Model: &d})
}

// CreateDefaultModel creates an auto-generated model with a bottom-center
// pivot.
func (s *Scene) CreateDefaultModel(name string) Handle {
	return s.CreateModel(name, ModelData{Pivot: PivotBottomCenter, AutoGenerated: true})
}

// CreateDefaultGroup creates an auto-generated group whose group name
// matches its display name.
func (s *Scene) CreateDefaultGroup(name string) Handle {
	return s.CreateGroup(name, GroupData{GroupName: name, AutoGenerated: true})
}

func (s *Scene) create(n Node) Handle {
	h, err := s.Add(n)
	if err != nil {
		// Add only fails on caller-supplied keys and kinds; both are ours here.
		panic(fmt.Sprintf("scene: create %s: %v", n.Kind, err))
	}
	if s.listener != nil {
		s.listener.Created(h)
	}
	return h
}

// Destroy removes h and its whole subtree, including the connections of
// every removed brick.
func (s *Scene) Destroy(h Handle) error {
	if !s.Exists(h) {
		return fmt.Errorf("destroy %d: %w", h, ErrNodeNotFound)
	}
	key := s.nodes[h].Key
	s.detach(h)

	var doomed []Handle
	s.walk(h, func(n Handle) { doomed = append(doomed, n) })
	for _, n := range doomed {
		node := &s.nodes[n]
		for other := range s.edges[n] {
			delete(s.edges[other], n)
		}
		delete(s.edges, n)
		delete(s.byKey, node.Key)
		delete(s.byKind[node.Kind], n)
		node.alive = false
		node.children = nil
		node.parent = None
	}

	if s.listener != nil {
		s.listener.Destroyed(h, key)
	}
	return nil
}

// Position returns the world position of h.
func (s *Scene) Position(h Handle) Vec3 {
	if !s.Exists(h) {
		return Vec3{}
	}
	return s.nodes[h].Position
}

// SetPosition moves h alone; its descendants keep their world positions.
func (s *Scene) SetPosition(h Handle, pos Vec3) {
	if !s.Exists(h) {
		return
	}
	old := s.nodes[h].Position
	if old == pos {
		return
	}
	s.nodes[h].Position = pos
	if s.listener != nil {
		s.listener.Moved(h, old, pos)
	}
}

// MoveTo moves h to pos and carries its subtree along.
func (s *Scene) MoveTo(h Handle, pos Vec3) {
	if !s.Exists(h) {
		return
	}
	old := s.nodes[h].Position
	delta := pos.Sub(old)
	if delta == (Vec3{}) {
		return
	}
	s.walk(h, func(n Handle) {
		s.nodes[n].Position = s.nodes[n].Position.Add(delta)
	})
	if s.listener != nil {
		s.listener.Moved(h, old, pos)
	}
}
