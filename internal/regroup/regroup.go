// Package regroup reconciles the group/model hierarchy of a scene with the
// physical connectivity of its bricks. After a pass every connected cluster
// of bricks is owned by exactly one group, and every group by one model.
package regroup

import (
	"log/slog"

	"github.com/lthms/regroup/internal/scene"
)

// Hierarchy is the structural store a pass mutates. *scene.Scene
// implements it.
type Hierarchy interface {
	Exists(h scene.Handle) bool
	Kind(h scene.Handle) scene.Kind
	Name(h scene.Handle) string
	Parent(h scene.Handle) scene.Handle
	Ancestors(h scene.Handle) []scene.Handle
	NearestAncestor(h scene.Handle, k scene.Kind) scene.Handle
	IsDescendant(h, root scene.Handle) bool
	Descendants(h scene.Handle, k scene.Kind) []scene.Handle
	BrickDescendants(h scene.Handle) []scene.Handle
	HasBrickDescendant(h scene.Handle) bool
	Nodes(k scene.Kind) []scene.Handle
	GroupData(h scene.Handle) (scene.GroupData, bool)

	SetParent(h, parent scene.Handle) error
	CreateGroup(name string, data scene.GroupData) scene.Handle
	CreateModel(name string, data scene.ModelData) scene.Handle
	Destroy(h scene.Handle) error

	Position(h scene.Handle) scene.Vec3
	SetPosition(h scene.Handle, pos scene.Vec3)
	MoveTo(h scene.Handle, pos scene.Vec3)
	Bounds(bricks []scene.Handle) (scene.Bounds, bool)
}

// Connectivity answers which bricks are physically joined.
type Connectivity interface {
	ConnectivityEnabled(b scene.Handle) bool
	ConnectedBricks(b scene.Handle) []scene.Handle
}

// Pivot recomputes the reference position of a group or model.
type Pivot interface {
	RecomputePivot(h scene.Handle)
}

// Protection guards bricks inside prefab instances.
type Protection interface {
	IsProtectedNonOverride(b scene.Handle) bool
	IsOverride(b scene.Handle) bool
	LiftProtection(b scene.Handle) error
}

// Scope reports the isolated editing context, if any.
type Scope interface {
	Isolated() (root scene.Handle, ok bool)
}

// Config wires a Reconciler to its collaborators. Logger defaults to
// slog.Default().
type Config struct {
	Hierarchy    Hierarchy
	Connectivity Connectivity
	Pivot        Pivot
	Protection   Protection
	Scope        Scope
	Logger       *slog.Logger
}

// ForScene returns a Config backed entirely by s.
func ForScene(s *scene.Scene) Config {
	return Config{
		Hierarchy:    s,
		Connectivity: s,
		Pivot:        s,
		Protection:   s,
		Scope:        s,
	}
}

// Reconciler runs reconciliation passes. Passes on the same hierarchy must
// be serialized by the caller.
type Reconciler struct {
	cfg Config
}

// New returns a Reconciler using cfg. Collaborators left nil are taken
// from the hierarchy when it implements them, and are otherwise inert.
func New(cfg Config) *Reconciler {
	if cfg.Connectivity == nil {
		cfg.Connectivity, _ = cfg.Hierarchy.(Connectivity)
	}
	if cfg.Pivot == nil {
		cfg.Pivot, _ = cfg.Hierarchy.(Pivot)
	}
	if cfg.Protection == nil {
		cfg.Protection, _ = cfg.Hierarchy.(Protection)
	}
	if cfg.Scope == nil {
		cfg.Scope, _ = cfg.Hierarchy.(Scope)
	}
	if cfg.Connectivity == nil {
		cfg.Connectivity = unconnected{}
	}
	if cfg.Pivot == nil {
		cfg.Pivot = fixedPivot{}
	}
	if cfg.Protection == nil {
		cfg.Protection = unprotected{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reconciler{cfg: cfg}
}

// Fallbacks for a hierarchy with no connectivity, pivots or prefabs.
type (
	unconnected struct{}
	fixedPivot  struct{}
	unprotected struct{}
)

func (unconnected) ConnectivityEnabled(scene.Handle) bool       { return false }
func (unconnected) ConnectedBricks(scene.Handle) []scene.Handle { return nil }
func (fixedPivot) RecomputePivot(scene.Handle)                  {}
func (unprotected) IsProtectedNonOverride(scene.Handle) bool    { return false }
func (unprotected) IsOverride(scene.Handle) bool                { return false }
func (unprotected) LiftProtection(scene.Handle) error           { return nil }

// Run reconciles s after a change affecting bricks.
func Run(s *scene.Scene, bricks []scene.Handle) (Result, error) {
	return New(ForScene(s)).Run(bricks)
}

// Result summarizes a pass.
type Result struct {
	Guarded  bool // the pass was refused by the scope guard
	Clusters int

	Merged      int
	Split       int
	Adopted     int
	Confirmed   int
	Synthesized int

	Reparented    int
	GroupsCreated int
	ModelsCreated int
	Lifted        int
	Destroyed     int

	// Skipped lists bricks left in place because their protection could
	// not be lifted.
	Skipped []scene.Handle
}

// Changed reports whether the pass made any structural edit. Pivot moves
// do not count.
func (r Result) Changed() bool {
	return r.Reparented+r.GroupsCreated+r.ModelsCreated+r.Lifted+r.Destroyed > 0
}

// Run reconciles the hierarchy after a change affecting bricks. Non-brick
// and unknown handles are ignored. The only errors are structural ones from
// the hierarchy store.
func (r *Reconciler) Run(bricks []scene.Handle) (Result, error) {
	p := r.newPass()
	if p.guarded() {
		p.log.Debug("regroup: isolated brick context, skipping pass")
		return Result{Guarded: true}, nil
	}

	candidates := p.candidates(bricks)
	if len(candidates) == 0 {
		return p.res, nil
	}

	if err := p.flatten(candidates); err != nil {
		return p.res, err
	}

	clusters := cluster(p.Connectivity, candidates, nil)
	p.res.Clusters = len(clusters)

	items := p.classify(clusters)
	for _, it := range items {
		if err := p.reconcile(it); err != nil {
			return p.res, err
		}
	}

	if err := p.collect(); err != nil {
		return p.res, err
	}

	p.log.Debug("regroup: pass done",
		"bricks", len(candidates),
		"clusters", p.res.Clusters,
		"merged", p.res.Merged,
		"split", p.res.Split,
		"adopted", p.res.Adopted,
		"confirmed", p.res.Confirmed,
		"synthesized", p.res.Synthesized,
		"destroyed", p.res.Destroyed,
		"skipped", len(p.res.Skipped))
	return p.res, nil
}

func (r *Reconciler) newPass() *pass {
	return &pass{
		Config:  r.cfg,
		log:     r.cfg.Logger,
		skipped: make(map[scene.Handle]bool),
	}
}

// pass holds the state of one Run.
type pass struct {
	Config
	log     *slog.Logger
	res     Result
	skipped map[scene.Handle]bool
}

// candidates keeps existing bricks, deduplicated, in caller order.
func (p *pass) candidates(bricks []scene.Handle) []scene.Handle {
	seen := make(map[scene.Handle]bool, len(bricks))
	out := make([]scene.Handle, 0, len(bricks))
	for _, b := range bricks {
		if seen[b] || !p.Hierarchy.Exists(b) || p.Hierarchy.Kind(b) != scene.KindBrick {
			continue
		}
		seen[b] = true
		out = append(out, b)
	}
	return out
}

// setParent reparents h and counts the edit when the parent changes.
func (p *pass) setParent(h, parent scene.Handle) error {
	if p.Hierarchy.Parent(h) == parent {
		return nil
	}
	if err := p.Hierarchy.SetParent(h, parent); err != nil {
		return err
	}
	p.res.Reparented++
	return nil
}

// moveBrick reparents brick b under parent, lifting its prefab protection
// first when needed. A brick whose protection cannot be lifted is skipped
// for the rest of the pass and never reparented.
func (p *pass) moveBrick(b, parent scene.Handle) error {
	if p.skipped[b] || p.Hierarchy.Parent(b) == parent {
		return nil
	}
	if !p.lift(b) {
		return nil
	}
	return p.setParent(b, parent)
}

// lift lifts the protection of b if it is protected and not an override.
// It reports whether b may be reparented.
func (p *pass) lift(b scene.Handle) bool {
	if p.skipped[b] {
		return false
	}
	if !p.Protection.IsProtectedNonOverride(b) {
		return true
	}
	if err := p.Protection.LiftProtection(b); err != nil {
		p.log.Warn("regroup: cannot lift protection, skipping brick",
			"brick", p.Hierarchy.Name(b), "err", err)
		p.skipped[b] = true
		p.res.Skipped = append(p.res.Skipped, b)
		return false
	}
	p.res.Lifted++
	return true
}

func (p *pass) newGroup(name string, data scene.GroupData) scene.Handle {
	p.res.GroupsCreated++
	return p.Hierarchy.CreateGroup(name, data)
}

func (p *pass) newModel(name string) scene.Handle {
	p.res.ModelsCreated++
	return p.Hierarchy.CreateModel(name, scene.ModelData{Pivot: scene.PivotBottomCenter, AutoGenerated: true})
}
