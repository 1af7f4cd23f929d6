package plane

import "math"

// Selection is a screen-space rectangle built up during a drag. W and H are
// negative when the drag moved left or up.
type Selection struct {
	X, Y float64
	W, H float64
}

// NewSelection starts a zero-sized selection at (x, y).
func NewSelection(x, y float64) Selection {
	return Selection{X: x, Y: y}
}

// Extend grows the selection by a drag delta.
func (s Selection) Extend(dx, dy float64) Selection {
	s.W += dx
	s.H += dy
	return s
}

// Normalize returns the same rectangle with a top-left origin and a
// non-negative size.
func (s Selection) Normalize() Selection {
	if s.W < 0 {
		s.X += s.W
		s.W = -s.W
	}
	if s.H < 0 {
		s.Y += s.H
		s.H = -s.H
	}
	return s
}

// Empty reports whether either normalized dimension is zero.
func (s Selection) Empty() bool {
	n := s.Normalize()
	return n.W == 0 || n.H == 0
}

// FitAspect grows the shorter side of the normalized rectangle around its
// center until width/height equals aspect.
func (s Selection) FitAspect(aspect float64) Selection {
	s = s.Normalize()
	if s.W == 0 || s.H == 0 || !(aspect > 0) || math.IsInf(aspect, 0) {
		return s
	}
	cx := s.X + s.W/2
	cy := s.Y + s.H/2
	if s.W/s.H < aspect {
		s.W = s.H * aspect
		s.X = cx - s.W/2
	} else {
		s.H = s.W / aspect
		s.Y = cy - s.H/2
	}
	return s
}

// SelectionBounds computes the plane bounds a selection would zoom to. The
// selection is normalized and fitted to the viewport aspect first. It returns
// false for empty selections or when the result would not be valid bounds.
// The viewport itself is not modified.
func (v *Viewport) SelectionBounds(sel Selection) (Bounds, bool) {
	if sel.Empty() {
		return Bounds{}, false
	}
	r := sel.FitAspect(v.Aspect())
	c := v.Converter()
	b := Bounds{
		XMin: c.PlaneX(r.X),
		XMax: c.PlaneX(r.X + r.W),
		YMin: c.PlaneY(r.Y + r.H),
		YMax: c.PlaneY(r.Y),
	}
	if !b.Valid() {
		return Bounds{}, false
	}
	return b, true
}
