package regroup

import "github.com/lthms/regroup/internal/scene"

// reconcile applies one of merge, split, adopt, confirm or synthesize to
// it. Ownership is re-read first: earlier items of the same pass may have
// moved some of its members.
func (p *pass) reconcile(it item) error {
	it = p.classifyOne(it.members)

	switch len(it.owners) {
	case 0:
		return p.synthesize(it)
	case 1:
		return p.inspect(it)
	default:
		return p.merge(it)
	}
}

// merge moves every member of a cluster spanning several groups under the
// group already holding most of them. Ties keep the first-seen group.
func (p *pass) merge(it item) error {
	h := p.Hierarchy
	target, best := scene.None, 0
	for _, g := range it.owners {
		n := 0
		for _, b := range it.members {
			if h.NearestAncestor(b, scene.KindGroup) == g {
				n++
			}
		}
		if n > best {
			target, best = g, n
		}
	}

	for _, b := range it.members {
		if err := p.moveBrick(b, target); err != nil {
			return err
		}
	}

	p.Pivot.RecomputePivot(target)
	model, err := p.ensureModel(target)
	if err != nil {
		return err
	}
	if model != scene.None {
		p.Pivot.RecomputePivot(model)
	}
	p.res.Merged++
	p.log.Debug("regroup: merged", "target", h.Name(target), "groups", len(it.owners), "bricks", len(it.members))

	// The target may still hold material of other clusters.
	if p.holdsOthers(target, it.members) {
		if _, err := p.split(target); err != nil {
			return err
		}
	}
	return nil
}

// holdsOthers reports whether group owns bricks outside members.
func (p *pass) holdsOthers(group scene.Handle, members []scene.Handle) bool {
	in := make(map[scene.Handle]bool, len(members))
	for _, b := range members {
		in[b] = true
	}
	for _, b := range p.Hierarchy.BrickDescendants(group) {
		if !in[b] {
			return true
		}
	}
	return false
}

// inspect handles a cluster owned by a single group: split the group if it
// holds disconnected material, adopt the cluster's orphans, or confirm the
// group and make sure it sits under a model.
func (p *pass) inspect(it item) error {
	group := it.owners[0]

	split, err := p.split(group)
	if err != nil {
		return err
	}
	if split {
		// The cluster may have moved to a new group.
		it = p.classifyOne(it.members)
		switch {
		case len(it.owners) > 1:
			return p.merge(it)
		case len(it.owners) == 0 || len(it.orphans) == 0:
			return nil
		}
		group = it.owners[0]
	}

	if len(it.orphans) > 0 {
		for _, b := range it.orphans {
			if err := p.moveBrick(b, group); err != nil {
				return err
			}
		}
		had := p.Hierarchy.NearestAncestor(group, scene.KindModel)
		model, err := p.ensureModel(group)
		if err != nil {
			return err
		}
		if had == scene.None && model != scene.None {
			p.Pivot.RecomputePivot(model)
		}
		p.res.Adopted++
		p.log.Debug("regroup: adopted", "group", p.Hierarchy.Name(group), "bricks", len(it.orphans))
		return nil
	}

	if split {
		return nil
	}
	return p.confirm(group)
}

// split breaks group into one group per connected sub-cluster of its brick
// membership. It reports false when the group is a single sub-cluster.
func (p *pass) split(group scene.Handle) (bool, error) {
	h := p.Hierarchy
	bricks := h.BrickDescendants(group)
	var membership orderedSet
	membership.add(bricks...)
	subs := cluster(p.Connectivity, bricks, &membership)
	if len(subs) <= 1 {
		return false, nil
	}

	// Parents are about to change inside a prefab instance: unpack it once
	// per sub-cluster whenever another sub-cluster holds non-override
	// bricks.
	for i, sub := range subs {
		if !p.otherHasNonOverride(subs, i) {
			continue
		}
		for _, b := range sub {
			if p.Protection.IsProtectedNonOverride(b) {
				p.lift(b)
				break
			}
		}
	}

	retained, keeper := -1, scene.None
	best := 0
	for i, sub := range subs {
		parent := h.Parent(sub[0])
		if h.Kind(parent) != scene.KindGroup {
			continue
		}
		shared := true
		for _, b := range sub[1:] {
			if h.Parent(b) != parent {
				shared = false
				break
			}
		}
		if shared && len(sub) > best {
			retained, keeper, best = i, parent, len(sub)
		}
	}
	if retained >= 0 {
		p.Pivot.RecomputePivot(keeper)
	}

	model, err := p.ensureModel(group)
	if err != nil {
		return true, err
	}
	data, _ := h.GroupData(group)
	name := h.Name(group)
	origin := h.Position(group)
	created := 0
	for i, sub := range subs {
		if i == retained {
			continue
		}
		g := p.newGroup(name, data)
		created++
		h.SetPosition(g, origin)
		if model != scene.None {
			if err := p.setParent(g, model); err != nil {
				return true, err
			}
		}
		for _, b := range sub {
			if err := p.moveBrick(b, g); err != nil {
				return true, err
			}
		}
		p.Pivot.RecomputePivot(g)
	}

	if model != scene.None {
		p.Pivot.RecomputePivot(model)
	}
	p.res.Split++
	p.log.Debug("regroup: split", "group", name, "parts", len(subs), "created", created)
	return true, nil
}

func (p *pass) otherHasNonOverride(subs [][]scene.Handle, skip int) bool {
	for i, sub := range subs {
		if i == skip {
			continue
		}
		for _, b := range sub {
			if !p.Protection.IsOverride(b) {
				return true
			}
		}
	}
	return false
}

// confirm recomputes the pivot of a group whose membership is already
// correct, and gives it a model when a normal scene has none around it.
func (p *pass) confirm(group scene.Handle) error {
	p.Pivot.RecomputePivot(group)
	model, err := p.ensureModel(group)
	if err != nil {
		return err
	}
	if model != scene.None {
		p.Pivot.RecomputePivot(model)
	}
	p.res.Confirmed++
	return nil
}

// ensureModel returns the model above group. In a normal scene a group
// without one gets a new default model, placed where the group was.
func (p *pass) ensureModel(group scene.Handle) (scene.Handle, error) {
	h := p.Hierarchy
	if m := h.NearestAncestor(group, scene.KindModel); m != scene.None {
		return m, nil
	}
	if _, iso := p.isolated(); iso {
		return scene.None, nil
	}
	parent := h.Parent(group)
	m := p.newModel(h.Name(group))
	if p.plainParent(parent) {
		if err := p.setParent(m, parent); err != nil {
			return scene.None, err
		}
	}
	if err := p.setParent(group, m); err != nil {
		return scene.None, err
	}
	p.log.Debug("regroup: created model for group", "group", h.Name(group))
	return m, nil
}

// synthesize builds a new model and group around a cluster that no group
// owns yet.
func (p *pass) synthesize(it item) error {
	h := p.Hierarchy
	name := h.Name(it.members[0])

	model, fresh := p.modelFor(name)
	group := p.newGroup(name, scene.GroupData{GroupName: name, AutoGenerated: true})
	if err := p.setParent(group, model); err != nil {
		return err
	}

	if fresh {
		if b, ok := h.Bounds(it.members); ok {
			c := b.Center()
			h.MoveTo(model, scene.Vec3{X: c.X, Y: b.Min.Y, Z: c.Z})
		}
		// Keep the new model where the bricks used to live in the scene graph.
		if parent := p.sharedParent(it.members); p.plainParent(parent) {
			if err := p.setParent(model, parent); err != nil {
				return err
			}
		}
	}

	for _, b := range it.members {
		if err := p.moveBrick(b, group); err != nil {
			return err
		}
	}
	p.res.Synthesized++
	p.log.Debug("regroup: synthesized", "group", name, "bricks", len(it.members))
	return nil
}

// modelFor picks the model for a new group. An isolated context reuses its
// root when it is a model and otherwise gets a new model under its root. A
// normal scene gets a new model at the scene root.
func (p *pass) modelFor(name string) (scene.Handle, bool) {
	h := p.Hierarchy
	root, iso := p.isolated()
	if iso && h.Kind(root) == scene.KindModel {
		return root, false
	}
	m := p.newModel(name)
	if iso {
		if err := p.setParent(m, root); err != nil {
			p.log.Warn("regroup: cannot attach model to isolated root", "err", err)
		}
	}
	return m, true
}

// sharedParent returns the parent common to every brick, or None.
func (p *pass) sharedParent(bricks []scene.Handle) scene.Handle {
	parent := p.Hierarchy.Parent(bricks[0])
	for _, b := range bricks[1:] {
		if p.Hierarchy.Parent(b) != parent {
			return scene.None
		}
	}
	return parent
}

// plainParent reports whether a model may be placed under parent without
// nesting it inside another model, group or brick.
func (p *pass) plainParent(parent scene.Handle) bool {
	h := p.Hierarchy
	return parent != scene.None &&
		h.Kind(parent) == scene.KindObject &&
		h.NearestAncestor(parent, scene.KindModel) == scene.None &&
		h.NearestAncestor(parent, scene.KindGroup) == scene.None
}
