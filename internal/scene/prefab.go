package scene

import "fmt"

// IsOverride reports whether b is an explicit local addition inside a
// prefab instance.
func (s *Scene) IsOverride(b Handle) bool {
	n := s.Node(b)
	return n != nil && n.Override
}

// IsProtectedNonOverride reports whether b sits inside a prefab instance
// without being an explicit override, in which case it cannot be
// reparented before the instance is unpacked.
func (s *Scene) IsProtectedNonOverride(b Handle) bool {
	n := s.Node(b)
	if n == nil || n.parent == None || n.Override {
		return false
	}
	return s.nodes[n.parent].Prefab != None
}

// OutermostPrefabRoot resolves the outermost prefab instance root that h
// belongs to, following nested instances upwards.
func (s *Scene) OutermostPrefabRoot(h Handle) (Handle, error) {
	n := s.Node(h)
	if n == nil {
		return None, fmt.Errorf("%d: %w", h, ErrNodeNotFound)
	}
	r := n.Prefab
	if r == None && n.parent != None {
		r = s.nodes[n.parent].Prefab
	}
	if !s.Exists(r) || !s.nodes[r].PrefabRoot {
		return None, fmt.Errorf("%s: %w", n.Key, ErrPrefabRootNotFound)
	}

	seen := map[Handle]bool{r: true}
	for {
		p := s.nodes[r].parent
		if p == None {
			return r, nil
		}
		outer := s.nodes[p].Prefab
		if outer == None || seen[outer] || !s.Exists(outer) || !s.nodes[outer].PrefabRoot {
			return r, nil
		}
		seen[outer] = true
		r = outer
	}
}

// LiftProtection completely unpacks the outermost prefab instance that b
// belongs to. Every node of the instance becomes a plain scene node.
func (s *Scene) LiftProtection(b Handle) error {
	root, err := s.OutermostPrefabRoot(b)
	if err != nil {
		return fmt.Errorf("lift protection: %w", err)
	}

	cleared := make(map[Handle]bool)
	s.walk(root, func(n Handle) {
		node := &s.nodes[n]
		if node.PrefabRoot {
			cleared[n] = true
		}
		node.Prefab = None
		node.PrefabRoot = false
	})
	// b may have been moved out of the instance subtree already.
	if n := s.Node(b); n != nil && cleared[n.Prefab] {
		n.Prefab = None
	}

	if s.listener != nil {
		s.listener.Unpacked(root)
	}
	return nil
}
