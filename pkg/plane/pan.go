package plane

import "math"

// Pan moves the view by a screen-space drag delta. Dragging right reveals
// content to the left, so x is negated; y follows the inverted screen axis.
func (v *Viewport) Pan(dxScreen, dyScreen float64) {
	dx := -dxScreen / v.XScale()
	dy := dyScreen / v.YScale()
	v.Translate(dx, dy)
}

// ZoomAt scales the view by factor around the screen point (px, py), keeping
// the plane point under it fixed. factor > 1 zooms in.
func (v *Viewport) ZoomAt(px, py, factor float64) {
	if !(factor > 0) || math.IsInf(factor, 0) {
		return
	}
	c := v.Converter()
	ax, ay := c.PlaneX(px), c.PlaneY(py)
	b := v.bounds
	b = Bounds{
		XMin: ax - (ax-b.XMin)/factor,
		XMax: ax + (b.XMax-ax)/factor,
		YMin: ay - (ay-b.YMin)/factor,
		YMax: ay + (b.YMax-ay)/factor,
	}
	if !b.spanFinite() {
		return
	}
	v.bounds = order(b).widen()
}
