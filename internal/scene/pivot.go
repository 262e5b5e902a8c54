package scene

// DefaultEpsilon is the distance under which a pivot move is skipped.
const DefaultEpsilon = 1e-6

// RecomputePivot places h at the pivot of its brick bounds: the bounds
// center, dropped to the bottom face for bottom-center pivots. Groups use a
// bottom-center pivot, models their own policy. Children keep their world
// positions. Nodes without bricks, models with the original pivot, and
// moves shorter than the scene epsilon are left alone.
func (s *Scene) RecomputePivot(h Handle) {
	n := s.Node(h)
	if n == nil {
		return
	}
	policy := PivotBottomCenter
	if n.Kind == KindModel && n.Model != nil {
		policy = n.Model.Pivot
	}
	if policy == PivotOriginal {
		return
	}

	bounds, ok := s.Bounds(s.BrickDescendants(h))
	if !ok {
		return
	}
	pivot := bounds.Center()
	if policy == PivotBottomCenter {
		pivot.Y -= bounds.Extents().Y
	}

	if n.Position.Dist(pivot) < s.epsilon {
		return
	}
	s.SetPosition(h, pivot)
}
