package regroup

import (
	"sort"

	"github.com/lthms/regroup/internal/scene"
)

// flatten collapses nested models, nested groups and nested bricks found on
// the ancestor chains of bricks, so that groups sit directly under models
// and bricks directly under groups.
func (p *pass) flatten(bricks []scene.Handle) error {
	h := p.Hierarchy
	var models, groups, nested orderedSet

	for _, b := range bricks {
		var ms, gs []scene.Handle
		underBrick := false
		for _, a := range h.Ancestors(b) {
			switch h.Kind(a) {
			case scene.KindModel:
				ms = append(ms, a)
			case scene.KindGroup:
				gs = append(gs, a)
			case scene.KindBrick:
				underBrick = true
			}
		}
		if underBrick {
			nested.add(b)
		}
		if len(ms) > 1 {
			models.add(ms...)
		}
		if len(gs) > 1 {
			groups.add(gs...)
		}
	}

	moved := 0
	for _, m := range p.outermostFirst(models.items) {
		for _, inner := range h.Descendants(m, scene.KindModel) {
			// Groups nested in another group of the inner model travel
			// with it and are folded into it below.
			var tops []scene.Handle
			for _, g := range h.Descendants(inner, scene.KindGroup) {
				if outer := h.NearestAncestor(g, scene.KindGroup); outer != scene.None && h.IsDescendant(outer, inner) {
					continue
				}
				tops = append(tops, g)
			}
			for _, g := range tops {
				if h.Parent(g) == m {
					continue
				}
				if err := p.setParent(g, m); err != nil {
					return err
				}
				moved++
			}
		}
	}

	for _, g := range p.outermostFirst(groups.items) {
		if !h.Exists(g) {
			continue
		}
		for _, inner := range h.Descendants(g, scene.KindGroup) {
			for _, b := range h.BrickDescendants(inner) {
				if err := p.moveBrick(b, g); err != nil {
					return err
				}
				moved++
			}
		}
	}

	for _, b := range nested.items {
		g := h.NearestAncestor(b, scene.KindGroup)
		if g == scene.None {
			continue
		}
		if err := p.moveBrick(b, g); err != nil {
			return err
		}
		moved++
	}

	if moved > 0 {
		p.log.Debug("regroup: flattened", "models", len(models.items), "groups", len(groups.items), "bricks", len(nested.items))
	}
	return nil
}

// outermostFirst orders nodes by depth so outer containers absorb their
// nested content before the nested containers are visited.
func (p *pass) outermostFirst(nodes []scene.Handle) []scene.Handle {
	out := append([]scene.Handle(nil), nodes...)
	depth := make(map[scene.Handle]int, len(out))
	for _, n := range out {
		depth[n] = len(p.Hierarchy.Ancestors(n))
	}
	sort.SliceStable(out, func(i, j int) bool { return depth[out[i]] < depth[out[j]] })
	return out
}

// orderedSet is a set of handles remembering insertion order.
type orderedSet struct {
	seen  map[scene.Handle]bool
	items []scene.Handle
}

func (s *orderedSet) add(hs ...scene.Handle) {
	if s.seen == nil {
		s.seen = make(map[scene.Handle]bool)
	}
	for _, h := range hs {
		if s.seen[h] {
			continue
		}
		s.seen[h] = true
		s.items = append(s.items, h)
	}
}

func (s *orderedSet) has(h scene.Handle) bool {
	return s.seen[h]
}
