package ui

import (
	"math"

	"gioui.org/f32"
	"gioui.org/io/pointer"
)

const (
	// clickSlop is how far (px) the pointer may move before a press
	// becomes a drag instead of a click.
	clickSlop = 4

	// wheelStep is the zoom factor for one wheel event.
	wheelStep = 1.25
)

// surface is the part of the navigator driven by pointer input.
type surface interface {
	StartSelection(x, y float64)
	UpdateSelection(dx, dy float64)
	FinalizeSelection() bool
	CancelSelection()
	BeginPan()
	Pan(dx, dy float64)
	EndPan()
	ZoomAt(x, y, factor float64)
	PointClicked(x, y float64) complex128
}

type dragMode int

const (
	dragNone dragMode = iota
	dragSelect
	dragPan
)

// interaction turns raw pointer events into navigator operations: primary
// drag selects a zoom rectangle, primary click picks a point, secondary or
// middle drag pans and the wheel zooms around the cursor.
type interaction struct {
	mode  dragMode
	press f32.Point
	last  f32.Point
	moved bool
}

func (in *interaction) handle(nav surface, ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		in.onPress(nav, ev.Position, ev.Buttons)
	case pointer.Drag:
		in.onDrag(nav, ev.Position)
	case pointer.Release:
		in.onRelease(nav, ev.Position)
	case pointer.Cancel:
		in.cancel(nav)
	case pointer.Scroll:
		in.onScroll(nav, ev.Position, ev.Scroll.Y)
	}
}

func (in *interaction) onPress(nav surface, pos f32.Point, buttons pointer.Buttons) {
	if in.mode != dragNone {
		return
	}
	in.press, in.last, in.moved = pos, pos, false
	switch {
	case buttons.Contain(pointer.ButtonPrimary):
		in.mode = dragSelect
	case buttons.Contain(pointer.ButtonSecondary), buttons.Contain(pointer.ButtonTertiary):
		in.mode = dragPan
		nav.BeginPan()
	}
}

func (in *interaction) onDrag(nav surface, pos f32.Point) {
	switch in.mode {
	case dragSelect:
		if !in.moved {
			d := pos.Sub(in.press)
			if math.Hypot(float64(d.X), float64(d.Y)) < clickSlop {
				return
			}
			in.moved = true
			nav.StartSelection(float64(in.press.X), float64(in.press.Y))
		}
		d := pos.Sub(in.last)
		nav.UpdateSelection(float64(d.X), float64(d.Y))
	case dragPan:
		d := pos.Sub(in.last)
		nav.Pan(float64(d.X), float64(d.Y))
	default:
		return
	}
	in.last = pos
}

func (in *interaction) onRelease(nav surface, pos f32.Point) {
	switch in.mode {
	case dragSelect:
		if in.moved {
			in.onDrag(nav, pos)
			nav.FinalizeSelection()
		} else {
			nav.PointClicked(float64(in.press.X), float64(in.press.Y))
		}
	case dragPan:
		in.onDrag(nav, pos)
		nav.EndPan()
	}
	in.mode = dragNone
}

func (in *interaction) cancel(nav surface) {
	switch in.mode {
	case dragSelect:
		nav.CancelSelection()
	case dragPan:
		nav.EndPan()
	}
	in.mode = dragNone
}

func (in *interaction) onScroll(nav surface, pos f32.Point, dy float32) {
	switch {
	case dy < 0:
		nav.ZoomAt(float64(pos.X), float64(pos.Y), wheelStep)
	case dy > 0:
		nav.ZoomAt(float64(pos.X), float64(pos.Y), 1/wheelStep)
	}
}
