package regroup

import "github.com/lthms/regroup/internal/scene"

// collect destroys every model and group in scope left without bricks.
// Both lists are snapshotted before the first destruction; destroying a
// model takes its groups with it.
func (p *pass) collect() error {
	h := p.Hierarchy
	models := h.Nodes(scene.KindModel)
	groups := h.Nodes(scene.KindGroup)
	for _, n := range append(models, groups...) {
		if !h.Exists(n) || !p.inScope(n) || h.HasBrickDescendant(n) {
			continue
		}
		name := h.Name(n)
		kind := h.Kind(n)
		if err := h.Destroy(n); err != nil {
			return err
		}
		p.res.Destroyed++
		p.log.Debug("regroup: destroyed empty node", "kind", kind, "name", name)
	}
	return nil
}
