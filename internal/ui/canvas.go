package ui

import (
	"image"
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/widget"

	"github.com/OpenTraceLab/OpenFractal/pkg/navigator"
)

var (
	canvasBackground = color.NRGBA{R: 18, G: 20, B: 28, A: 255}
	selectionFill    = color.NRGBA{R: 255, G: 255, B: 255, A: 40}
	selectionStroke  = color.NRGBA{R: 255, G: 200, B: 60, A: 255}
)

// Canvas shows the navigator's current image and feeds pointer input back
// into it.
type Canvas struct {
	nav *navigator.Navigator
	in  interaction

	img    *image.RGBA
	imgOp  paint.ImageOp
	opFrom *image.RGBA
}

func newCanvas(nav *navigator.Navigator) *Canvas {
	return &Canvas{nav: nav}
}

// DrawImage implements navigator.DrawTarget.
func (c *Canvas) DrawImage(img *image.RGBA) {
	c.img = img
}

// Layout fills the available space with the plane.
func (c *Canvas) Layout(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	c.nav.Resize(float64(size.X), float64(size.Y))

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target:  c,
			Kinds:   pointer.Press | pointer.Drag | pointer.Release | pointer.Cancel | pointer.Scroll,
			ScrollY: pointer.ScrollRange{Min: math.MinInt32, Max: math.MaxInt32},
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			c.in.handle(c.nav, pe)
			gtx.Execute(op.InvalidateCmd{})
		}
	}

	c.nav.Frame(c)

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, canvasBackground)

	if c.img != nil {
		if c.opFrom != c.img {
			c.imgOp = paint.NewImageOp(c.img)
			c.opFrom = c.img
		}
		gtx.Constraints = layout.Exact(size)
		widget.Image{Src: c.imgOp, Fit: widget.Fill}.Layout(gtx)
	}
	c.layoutSelection(gtx)

	event.Op(gtx.Ops, c)
	return layout.Dimensions{Size: size}
}

func (c *Canvas) layoutSelection(gtx layout.Context) {
	sel, ok := c.nav.Selection()
	if !ok || sel.Empty() {
		return
	}
	x0, y0 := float32(sel.X), float32(sel.Y)
	x1, y1 := float32(sel.X+sel.W), float32(sel.Y+sel.H)

	paint.FillShape(gtx.Ops, selectionFill, clip.Rect{
		Min: image.Pt(int(x0), int(y0)),
		Max: image.Pt(int(x1), int(y1)),
	}.Op())

	var p clip.Path
	p.Begin(gtx.Ops)
	p.MoveTo(f32.Pt(x0, y0))
	p.LineTo(f32.Pt(x1, y0))
	p.LineTo(f32.Pt(x1, y1))
	p.LineTo(f32.Pt(x0, y1))
	p.Close()
	paint.FillShape(gtx.Ops, selectionStroke, clip.Stroke{
		Path:  p.End(),
		Width: 1.5,
	}.Op())
}
