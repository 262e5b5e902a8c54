package regroup

import "github.com/lthms/regroup/internal/scene"

// guarded reports whether the pass must be refused: an isolated context
// rooted at a single brick has no hierarchy to reconcile.
func (p *pass) guarded() bool {
	root, ok := p.isolated()
	return ok && p.Hierarchy.Kind(root) == scene.KindBrick
}

func (p *pass) isolated() (scene.Handle, bool) {
	if p.Scope == nil {
		return scene.None, false
	}
	root, ok := p.Scope.Isolated()
	if !ok || !p.Hierarchy.Exists(root) {
		return scene.None, false
	}
	return root, true
}

// inScope reports whether h may be garbage collected in this pass: any node
// of a normal scene, or a strict descendant of the isolated root.
func (p *pass) inScope(h scene.Handle) bool {
	root, ok := p.isolated()
	if !ok {
		return true
	}
	return p.Hierarchy.IsDescendant(h, root)
}
