package scene

import (
	"fmt"
	"sort"
)

// ConnectivityEnabled reports whether b takes part in the connectivity
// graph: it must be a brick whose primary part supports connectivity.
func (s *Scene) ConnectivityEnabled(b Handle) bool {
	n := s.Node(b)
	if n == nil || n.Kind != KindBrick || len(n.Parts) == 0 {
		return false
	}
	return n.Parts[0].Connectivity
}

// Connect records a physical connection between bricks a and b.
func (s *Scene) Connect(a, b Handle) error {
	if err := s.checkBrick(a); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := s.checkBrick(b); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if a == b {
		return nil
	}
	s.link(a, b)
	s.link(b, a)
	return nil
}

// Disconnect removes the connection between a and b, if any.
func (s *Scene) Disconnect(a, b Handle) error {
	if err := s.checkBrick(a); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	if err := s.checkBrick(b); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	delete(s.edges[a], b)
	delete(s.edges[b], a)
	return nil
}

// Connected reports whether a and b are directly connected.
func (s *Scene) Connected(a, b Handle) bool {
	_, ok := s.edges[a][b]
	return ok
}

// Neighbors returns the bricks directly connected to b, by handle.
func (s *Scene) Neighbors(b Handle) []Handle {
	out := make([]Handle, 0, len(s.edges[b]))
	for o := range s.edges[b] {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Edges returns every connection once, lower handle first, sorted.
func (s *Scene) Edges() [][2]Handle {
	var out [][2]Handle
	for a, set := range s.edges {
		for b := range set {
			if a < b {
				out = append(out, [2]Handle{a, b})
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// ConnectedBricks returns every brick transitively reachable from b through
// physical connections, excluding b itself, in breadth-first order. Bricks
// with connectivity disabled are neither returned nor traversed.
func (s *Scene) ConnectedBricks(b Handle) []Handle {
	if !s.ConnectivityEnabled(b) {
		return nil
	}
	visited := map[Handle]bool{b: true}
	queue := []Handle{b}
	var out []Handle
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range s.Neighbors(cur) {
			if visited[next] || !s.ConnectivityEnabled(next) {
				continue
			}
			visited[next] = true
			out = append(out, next)
			queue = append(queue, next)
		}
	}
	return out
}

func (s *Scene) checkBrick(b Handle) error {
	if !s.Exists(b) {
		return fmt.Errorf("%d: %w", b, ErrNodeNotFound)
	}
	if s.nodes[b].Kind != KindBrick {
		return fmt.Errorf("%s: %w", s.nodes[b].Key, ErrNotBrick)
	}
	return nil
}

func (s *Scene) link(a, b Handle) {
	if s.edges[a] == nil {
		s.edges[a] = make(map[Handle]struct{})
	}
	s.edges[a][b] = struct{}{}
}
