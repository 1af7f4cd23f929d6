package ui

import (
	"fmt"
	"image"

	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenFractal/pkg/fractal"
	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

// juliaBounds is the region shown in the side panel before fitting.
var juliaBounds = plane.Bounds{XMin: -2, XMax: 2, YMin: -1.5, YMax: 1.5}

// JuliaPanel previews the Julia set for the last clicked point. It owns a
// scheduler of its own so the main view and the preview render independently.
type JuliaPanel struct {
	sched      *render.Scheduler
	c          complex128
	palette    *fractal.Palette
	maxIter    int
	invalidate func()

	closeBtn  widget.Clickable
	closeIcon *widget.Icon

	imgOp  paint.ImageOp
	opFrom *image.RGBA
}

func newJuliaPanel(maxIter int, invalidate func()) *JuliaPanel {
	return &JuliaPanel{
		maxIter:    maxIter,
		invalidate: invalidate,
		closeIcon:  makeIcon(icons.NavigationClose, "close"),
	}
}

// show points the panel at c. The scheduler is rebuilt only when c or the
// palette changed.
func (j *JuliaPanel) show(c complex128, pal *fractal.Palette) {
	if j.sched != nil && j.c == c && j.palette == pal {
		return
	}
	j.close()
	j.c, j.palette = c, pal
	j.sched = render.NewScheduler(&fractal.Renderer{
		Kind:    fractal.Julia,
		C:       c,
		MaxIter: j.maxIter,
		Palette: pal,
	}, render.WithUpdateHandler(j.invalidate))
}

func (j *JuliaPanel) close() {
	if j.sched == nil {
		return
	}
	j.sched.Close()
	j.sched = nil
	j.opFrom = nil
}

// Layout draws the panel. It reports whether the close button was clicked.
func (j *JuliaPanel) Layout(gtx layout.Context, th *material.Theme) (layout.Dimensions, bool) {
	closed := j.closeBtn.Clicked(gtx)

	dims := layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
				layout.Flexed(1, material.H6(th, "Julia set").Layout),
				layout.Rigid(func(gtx layout.Context) layout.Dimensions {
					if j.closeIcon == nil {
						return material.Button(th, &j.closeBtn, "Close").Layout(gtx)
					}
					btn := material.IconButton(th, &j.closeBtn, j.closeIcon, "Close")
					btn.Size = unit.Dp(18)
					btn.Inset = layout.UniformInset(unit.Dp(4))
					return btn.Layout(gtx)
				}),
			)
		}),
		layout.Rigid(material.Caption(th, fmt.Sprintf("c = %.6g", j.c)).Layout),
		layout.Rigid(layout.Spacer{Height: unit.Dp(8)}.Layout),
		layout.Flexed(1, j.layoutImage),
	)
	return dims, closed
}

func (j *JuliaPanel) layoutImage(gtx layout.Context) layout.Dimensions {
	size := gtx.Constraints.Max
	if j.sched == nil || size.X <= 0 || size.Y <= 0 {
		return layout.Dimensions{Size: size}
	}
	vp := plane.NewViewport(juliaBounds, float64(size.X), float64(size.Y))
	vp.Resize(float64(size.X), float64(size.Y))

	defer clip.Rect{Max: size}.Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, canvasBackground)
	img := j.sched.Frame(vp.View())
	if img == nil {
		return layout.Dimensions{Size: size}
	}
	if j.opFrom != img {
		j.imgOp = paint.NewImageOp(img)
		j.opFrom = img
	}
	gtx.Constraints = layout.Exact(size)
	return widget.Image{Src: j.imgOp, Fit: widget.Fill}.Layout(gtx)
}
