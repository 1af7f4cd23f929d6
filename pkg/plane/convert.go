package plane

import (
	"math"
)

// View is an immutable copy of a viewport: plane bounds plus pixel extents.
// It is what render tasks receive.
type View struct {
	Bounds Bounds
	Width  float64
	Height float64
}

// Pixels returns the integer image size for the view.
func (v View) Pixels() (int, int) {
	return int(math.Round(v.Width)), int(math.Round(v.Height))
}

// SameSize reports whether both views map onto the same pixel surface.
func (v View) SameSize(o View) bool {
	w1, h1 := v.Pixels()
	w2, h2 := o.Pixels()
	return w1 == w2 && h1 == h2
}

// Converter builds the pixel/plane mapping for v. Views with non-positive
// pixel extents or empty bounds are rejected with ErrDegenerate instead of
// producing NaN coordinates.
func (v View) Converter() (Converter, error) {
	if !(v.Width > 0) || !(v.Height > 0) || math.IsInf(v.Width, 0) || math.IsInf(v.Height, 0) {
		return Converter{}, ErrDegenerate
	}
	if !v.Bounds.Valid() {
		return Converter{}, ErrDegenerate
	}
	return newConverter(v.Bounds, v.Width, v.Height), nil
}

// Converter maps between screen pixels (origin top-left, y down) and plane
// coordinates (y up).
type Converter struct {
	b      Bounds
	xUnit  float64 // plane units per pixel along x
	yUnit  float64 // plane units per pixel along y
	width  float64
	height float64
}

func newConverter(b Bounds, width, height float64) Converter {
	return Converter{
		b:      b,
		xUnit:  b.Width() / width,
		yUnit:  b.Height() / height,
		width:  width,
		height: height,
	}
}

// PlaneX converts a screen x to the real axis.
func (c Converter) PlaneX(px float64) float64 {
	return c.b.XMin + px*c.xUnit
}

// PlaneY converts a screen y to the imaginary axis. The axis is inverted.
func (c Converter) PlaneY(py float64) float64 {
	return c.b.YMax - py*c.yUnit
}

// Plane converts a screen point to a complex number.
func (c Converter) Plane(px, py float64) complex128 {
	return complex(c.PlaneX(px), c.PlaneY(py))
}

// Screen converts a plane point back to screen pixels.
func (c Converter) Screen(z complex128) (float64, float64) {
	x := (real(z) - c.b.XMin) / c.xUnit
	y := (c.b.YMax - imag(z)) / c.yUnit
	return x, y
}

// Bounds returns the bounds the converter was built from.
func (c Converter) Bounds() Bounds { return c.b }
