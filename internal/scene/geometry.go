package scene

import "math"

// Vec3 is a point or extent in world space.
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

// Dist returns the euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

// Bounds is an axis-aligned box.
type Bounds struct {
	Min, Max Vec3
}

func (b Bounds) Center() Vec3  { return b.Min.Add(b.Max).Scale(0.5) }
func (b Bounds) Extents() Vec3 { return b.Max.Sub(b.Min).Scale(0.5) }

// Encapsulate grows b to contain o.
func (b Bounds) Encapsulate(o Bounds) Bounds {
	return Bounds{
		Min: Vec3{math.Min(b.Min.X, o.Min.X), math.Min(b.Min.Y, o.Min.Y), math.Min(b.Min.Z, o.Min.Z)},
		Max: Vec3{math.Max(b.Max.X, o.Max.X), math.Max(b.Max.Y, o.Max.Y), math.Max(b.Max.Z, o.Max.Z)},
	}
}

// BrickBounds returns the box of a single brick.
func (s *Scene) BrickBounds(b Handle) Bounds {
	n := s.Node(b)
	if n == nil {
		return Bounds{}
	}
	half := n.Size.Scale(0.5)
	return Bounds{Min: n.Position.Sub(half), Max: n.Position.Add(half)}
}

// Bounds returns the untransformed axis-aligned box around bricks. The
// second result is false when no brick exists.
func (s *Scene) Bounds(bricks []Handle) (Bounds, bool) {
	var out Bounds
	found := false
	for _, b := range bricks {
		if !s.Is(b, KindBrick) {
			continue
		}
		bb := s.BrickBounds(b)
		if !found {
			out = bb
			found = true
			continue
		}
		out = out.Encapsulate(bb)
	}
	return out, found
}
