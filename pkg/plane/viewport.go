// Package plane models the visible region of the complex plane and the
// pixel surface it is mapped onto.
package plane

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

const (
	// MinPixels is the smallest pixel extent a viewport accepts. A window
	// collapsed to zero pixels is clamped to this instead of producing
	// infinite scale factors.
	MinPixels = 1.0

	// MaxPixels is the largest pixel extent a viewport accepts on either
	// axis.
	MaxPixels = 16384.0

	// MinExtent is the smallest plane extent relative to the magnitude of the
	// center coordinate. Below this float64 can no longer tell neighbouring
	// pixels apart.
	MinExtent = 1e-13
)

var (
	// ErrNonFinite is returned when bounds contain NaN or Inf.
	ErrNonFinite = errors.New("plane: non-finite bounds")
	// ErrDegenerate is returned when a view cannot map pixels to the plane.
	ErrDegenerate = errors.New("plane: degenerate view")
)

// Bounds is the rectangle of plane coordinates that is visible.
// It is also the snapshot type kept in the undo history.
type Bounds struct {
	XMin, XMax float64
	YMin, YMax float64
}

// DefaultBounds covers the whole Mandelbrot set.
func DefaultBounds() Bounds {
	return Bounds{XMin: -2, XMax: 1, YMin: -1, YMax: 1}
}

// Width returns the real-axis extent.
func (b Bounds) Width() float64 { return b.XMax - b.XMin }

// Height returns the imaginary-axis extent.
func (b Bounds) Height() float64 { return b.YMax - b.YMin }

// Center returns the midpoint of the rectangle.
func (b Bounds) Center() (float64, float64) {
	return (b.XMin + b.XMax) / 2, (b.YMin + b.YMax) / 2
}

// Aspect returns width/height of the plane rectangle.
func (b Bounds) Aspect() float64 { return b.Width() / b.Height() }

// Finite reports whether all four bounds are finite numbers.
func (b Bounds) Finite() bool {
	for _, v := range [...]float64{b.XMin, b.XMax, b.YMin, b.YMax} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Valid reports whether the bounds are finite, have finite extents and are
// strictly ordered.
func (b Bounds) Valid() bool {
	return b.spanFinite() && b.XMin < b.XMax && b.YMin < b.YMax
}

// spanFinite reports whether the bounds and both extents are finite. Bounds
// near ±MaxFloat64 can be finite while their width overflows.
func (b Bounds) spanFinite() bool {
	if !b.Finite() {
		return false
	}
	w, h := math.Abs(b.Width()), math.Abs(b.Height())
	return !math.IsInf(w, 0) && !math.IsInf(h, 0)
}

// ApproxEqual reports whether every bound of b is within tol of o, either
// absolutely or relative to its magnitude.
func (b Bounds) ApproxEqual(o Bounds, tol float64) bool {
	return scalar.EqualWithinAbsOrRel(b.XMin, o.XMin, tol, tol) &&
		scalar.EqualWithinAbsOrRel(b.XMax, o.XMax, tol, tol) &&
		scalar.EqualWithinAbsOrRel(b.YMin, o.YMin, tol, tol) &&
		scalar.EqualWithinAbsOrRel(b.YMax, o.YMax, tol, tol)
}

// Translate returns the bounds shifted by (dx, dy).
func (b Bounds) Translate(dx, dy float64) Bounds {
	return Bounds{
		XMin: b.XMin + dx,
		XMax: b.XMax + dx,
		YMin: b.YMin + dy,
		YMax: b.YMax + dy,
	}
}

// widen enforces the minimum extent on both axes around their centers.
func (b Bounds) widen() Bounds {
	cx, cy := b.Center()
	if w := b.Width(); !(w >= minExtentAt(cx)) {
		half := minExtentAt(cx) / 2
		b.XMin, b.XMax = cx-half, cx+half
	}
	if h := b.Height(); !(h >= minExtentAt(cy)) {
		half := minExtentAt(cy) / 2
		b.YMin, b.YMax = cy-half, cy+half
	}
	return b
}

func minExtentAt(center float64) float64 {
	return MinExtent * math.Max(1, math.Abs(center))
}

// Viewport is the mutable plane region currently on screen together with the
// pixel extents it is drawn into.
//
// A Viewport is owned by a single goroutine. Render workers receive a View
// copy instead of the Viewport itself.
type Viewport struct {
	bounds Bounds
	width  float64
	height float64
}

// NewViewport creates a viewport over b drawn into a width×height surface.
// Invalid input is sanitized so the invariants hold from the start.
func NewViewport(b Bounds, width, height float64) *Viewport {
	v := &Viewport{
		width:  clampPixels(width),
		height: clampPixels(height),
	}
	if !b.spanFinite() {
		b = DefaultBounds()
	}
	v.bounds = order(b).widen()
	return v
}

// Default returns a viewport over DefaultBounds.
func Default(width, height float64) *Viewport {
	return NewViewport(DefaultBounds(), width, height)
}

// Bounds returns the current plane bounds.
func (v *Viewport) Bounds() Bounds { return v.bounds }

// Width returns the pixel width.
func (v *Viewport) Width() float64 { return v.width }

// Height returns the pixel height.
func (v *Viewport) Height() float64 { return v.height }

// Aspect is the pixel aspect ratio width/height.
func (v *Viewport) Aspect() float64 { return v.width / v.height }

// XScale is the number of pixels per plane unit along x.
func (v *Viewport) XScale() float64 { return v.width / v.bounds.Width() }

// YScale is the number of pixels per plane unit along y.
func (v *Viewport) YScale() float64 { return v.height / v.bounds.Height() }

// Resize updates the pixel extents and widens one plane axis so the plane
// aspect ratio matches the new pixel aspect. The center stays where it is and
// the tighter axis keeps its extent.
func (v *Viewport) Resize(width, height float64) {
	v.width = clampPixels(width)
	v.height = clampPixels(height)

	target := v.width / v.height
	b := v.bounds
	cx, cy := b.Center()
	if target > b.Aspect() {
		half := b.Height() * target / 2
		b.XMin, b.XMax = cx-half, cx+half
	} else {
		half := b.Width() / target / 2
		b.YMin, b.YMax = cy-half, cy+half
	}
	if !b.spanFinite() {
		return
	}
	v.bounds = b.widen()
}

// Snapshot returns a copy of the plane bounds. Pixel extents are not part of
// a snapshot; they follow the display, not the history.
func (v *Viewport) Snapshot() Bounds { return v.bounds }

// Restore overwrites the plane bounds from an earlier snapshot and leaves the
// pixel extents alone. Non-finite snapshots are ignored.
func (v *Viewport) Restore(b Bounds) {
	if !b.spanFinite() {
		return
	}
	v.bounds = order(b).widen()
}

// SetBounds replaces the plane bounds. Extents below the minimum are widened
// around their center.
func (v *Viewport) SetBounds(b Bounds) error {
	if !b.spanFinite() {
		return ErrNonFinite
	}
	v.bounds = order(b).widen()
	return nil
}

// Translate shifts the plane bounds by (dx, dy) plane units. A shift that
// would overflow is ignored. When the shift is so large that the extents
// collapse in float64 they are widened back to the minimum extent.
func (v *Viewport) Translate(dx, dy float64) {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return
	}
	b := v.bounds.Translate(dx, dy)
	if !b.spanFinite() {
		return
	}
	v.bounds = order(b).widen()
}

// View returns an immutable copy of the viewport.
func (v *Viewport) View() View {
	return View{Bounds: v.bounds, Width: v.width, Height: v.height}
}

// Converter returns the pixel/plane mapping for the current state. It cannot
// fail because the viewport invariants rule out degenerate extents.
func (v *Viewport) Converter() Converter {
	return newConverter(v.bounds, v.width, v.height)
}

func clampPixels(p float64) float64 {
	if math.IsNaN(p) || p < MinPixels {
		return MinPixels
	}
	if p > MaxPixels {
		return MaxPixels
	}
	return p
}

func order(b Bounds) Bounds {
	if b.XMin > b.XMax {
		b.XMin, b.XMax = b.XMax, b.XMin
	}
	if b.YMin > b.YMax {
		b.YMin, b.YMax = b.YMax, b.YMin
	}
	return b
}
