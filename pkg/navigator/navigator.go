// Package navigator ties the viewport, its undo history and the repaint
// scheduler together behind the operations a viewer calls.
package navigator

import (
	"context"
	"image"

	"github.com/OpenTraceLab/OpenFractal/pkg/export"
	"github.com/OpenTraceLab/OpenFractal/pkg/history"
	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

// resetTolerance decides when the view already shows the home region.
const resetTolerance = 1e-12

// DrawTarget receives the image to display for a frame.
type DrawTarget interface {
	DrawImage(img *image.RGBA)
}

// Exporter writes a view to a file.
type Exporter interface {
	Export(ctx context.Context, view plane.View, path string) error
}

// Option configures a Navigator.
type Option func(*Navigator)

// WithHistoryCapacity sets how many snapshots undo keeps.
func WithHistoryCapacity(n int) Option {
	return func(nav *Navigator) { nav.historyCap = n }
}

// WithPanHistory makes each pan or wheel gesture undoable as one step.
func WithPanHistory(enabled bool) Option {
	return func(nav *Navigator) { nav.panHistory = enabled }
}

// WithExporter replaces the default exporter.
func WithExporter(e Exporter) Option {
	return func(nav *Navigator) { nav.exporter = e }
}

// WithInvalidate sets the function that asks the UI for a new frame, usually
// app.Window.Invalidate. It may be called from render goroutines.
func WithInvalidate(fn func()) Option {
	return func(nav *Navigator) { nav.invalidate = fn }
}

// Navigator owns the viewport and applies every user operation in the same
// order: snapshot, record, mutate, mark dirty, publish.
//
// All methods except Subscribe must be called from one goroutine.
type Navigator struct {
	vp    *plane.Viewport
	hist  *history.History[plane.Bounds]
	sched *render.Scheduler
	bus   Bus

	exporter   Exporter
	invalidate func()
	historyCap int

	panHistory  bool
	panning     bool
	panRecorded bool

	selecting bool
	sel       plane.Selection
}

// New returns a navigator over the default region fitted to width×height.
func New(r render.Renderer, width, height float64, opts ...Option) *Navigator {
	nav := &Navigator{
		vp:         plane.Default(width, height),
		historyCap: history.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(nav)
	}
	if nav.exporter == nil {
		nav.exporter = export.New(r)
	}
	nav.vp.Resize(width, height)
	nav.hist = history.New[plane.Bounds](nav.historyCap)
	nav.sched = render.NewScheduler(r,
		render.WithErrorHandler(func(err error) {
			nav.bus.Publish(RenderFailed{Err: err})
		}),
		render.WithInstallHandler(func(v plane.View) {
			nav.bus.Publish(RenderCompleted{View: v})
		}),
		render.WithUpdateHandler(func() {
			if nav.invalidate != nil {
				nav.invalidate()
			}
		}),
	)
	return nav
}

// Subscribe registers a listener for navigator events.
func (nav *Navigator) Subscribe(fn Listener) (cancel func()) {
	return nav.bus.Subscribe(fn)
}

// View returns a copy of the current viewport.
func (nav *Navigator) View() plane.View { return nav.vp.View() }

// Bounds returns the current plane bounds.
func (nav *Navigator) Bounds() plane.Bounds { return nav.vp.Bounds() }

// Converter returns the pixel/plane mapping of the current viewport.
func (nav *Navigator) Converter() plane.Converter { return nav.vp.Converter() }

// Phase reports the scheduler's render phase.
func (nav *Navigator) Phase() render.Phase { return nav.sched.Phase() }

// Resize follows a change of the drawing surface. History is not touched.
func (nav *Navigator) Resize(width, height float64) {
	before := nav.vp.View()
	nav.vp.Resize(width, height)
	after := nav.vp.View()
	if after == before {
		return
	}
	nav.changed(CauseResize)
}

// StartSelection begins a drag-to-zoom rectangle at a screen point.
func (nav *Navigator) StartSelection(x, y float64) {
	nav.sel = plane.NewSelection(x, y)
	nav.selecting = true
}

// UpdateSelection grows the rectangle by a drag delta.
func (nav *Navigator) UpdateSelection(dx, dy float64) {
	if !nav.selecting {
		return
	}
	nav.sel = nav.sel.Extend(dx, dy)
}

// Selection returns the rectangle being dragged, fitted to the viewport
// aspect as it will be applied. ok is false when no drag is active.
func (nav *Navigator) Selection() (sel plane.Selection, ok bool) {
	if !nav.selecting {
		return plane.Selection{}, false
	}
	return nav.sel.FitAspect(nav.vp.Aspect()), true
}

// CancelSelection drops the rectangle without zooming.
func (nav *Navigator) CancelSelection() {
	nav.selecting = false
	nav.sel = plane.Selection{}
}

// FinalizeSelection zooms to the dragged rectangle. Empty rectangles do
// nothing and leave the history alone. It reports whether the view changed.
func (nav *Navigator) FinalizeSelection() bool {
	if !nav.selecting {
		return false
	}
	sel := nav.sel
	nav.CancelSelection()

	b, ok := nav.vp.SelectionBounds(sel)
	if !ok {
		return false
	}
	nav.hist.Push(nav.vp.Snapshot())
	// SelectionBounds only returns finite, ordered bounds.
	_ = nav.vp.SetBounds(b)
	nav.changed(CauseZoom)
	nav.bus.Publish(PanelCloseRequested{Cause: CauseZoom})
	return true
}

// BeginPan starts a drag gesture. With pan history enabled the whole gesture
// becomes one undo step.
func (nav *Navigator) BeginPan() {
	nav.panning = true
	nav.panRecorded = false
}

// EndPan finishes the drag gesture started by BeginPan.
func (nav *Navigator) EndPan() {
	nav.panning = false
	nav.panRecorded = false
}

// Pan moves the view by a screen-space delta.
func (nav *Navigator) Pan(dx, dy float64) {
	if dx == 0 && dy == 0 {
		return
	}
	before := nav.vp.Snapshot()
	nav.vp.Pan(dx, dy)
	if nav.vp.Snapshot() == before {
		return
	}
	nav.recordNavigation(before)
	nav.changed(CausePan)
}

// ZoomAt scales the view around a screen point; factor > 1 zooms in. It
// follows the same history rule as Pan and, like every zoom, closes the
// point panel.
func (nav *Navigator) ZoomAt(x, y, factor float64) {
	before := nav.vp.Snapshot()
	nav.vp.ZoomAt(x, y, factor)
	if nav.vp.Snapshot() == before {
		return
	}
	nav.recordNavigation(before)
	nav.changed(CauseZoom)
	nav.bus.Publish(PanelCloseRequested{Cause: CauseZoom})
}

// recordNavigation applies the history rule for continuous navigation:
// without pan history only the redo stack is cleared; with it the state
// before the gesture is pushed once.
func (nav *Navigator) recordNavigation(before plane.Bounds) {
	switch {
	case !nav.panHistory:
		nav.hist.ClearRedo()
	case nav.panning && nav.panRecorded:
	default:
		nav.hist.Push(before)
		nav.panRecorded = nav.panning
	}
}

// Undo restores the previous bounds. It returns false when there is nothing
// to undo.
func (nav *Navigator) Undo() bool {
	prev, ok := nav.hist.Undo(nav.vp.Snapshot())
	if !ok {
		return false
	}
	nav.vp.Restore(prev)
	nav.changed(CauseUndo)
	nav.bus.Publish(PanelCloseRequested{Cause: CauseUndo})
	return true
}

// Redo reapplies the bounds undone last.
func (nav *Navigator) Redo() bool {
	next, ok := nav.hist.Redo(nav.vp.Snapshot())
	if !ok {
		return false
	}
	nav.vp.Restore(next)
	nav.changed(CauseRedo)
	nav.bus.Publish(PanelCloseRequested{Cause: CauseRedo})
	return true
}

// CanUndo reports whether Undo would change anything.
func (nav *Navigator) CanUndo() bool { return nav.hist.CanUndo() }

// CanRedo reports whether Redo would change anything.
func (nav *Navigator) CanRedo() bool { return nav.hist.CanRedo() }

// Reset returns to the default region fitted to the current surface. It is
// undoable and does nothing when the view is already home.
func (nav *Navigator) Reset() bool {
	home := plane.Default(nav.vp.Width(), nav.vp.Height())
	home.Resize(nav.vp.Width(), nav.vp.Height())
	if nav.vp.Bounds().ApproxEqual(home.Bounds(), resetTolerance) {
		return false
	}
	nav.hist.Push(nav.vp.Snapshot())
	nav.vp.Restore(home.Bounds())
	nav.changed(CauseReset)
	nav.bus.Publish(PanelCloseRequested{Cause: CauseReset})
	return true
}

// PointClicked converts a click to a plane point and publishes it.
func (nav *Navigator) PointClicked(x, y float64) complex128 {
	z := nav.vp.Converter().Plane(x, y)
	nav.bus.Publish(PointSelected{Point: z, X: x, Y: y})
	return z
}

// Refresh forces a re-render of the unchanged view, for example after the
// renderer's palette changed.
func (nav *Navigator) Refresh() {
	nav.sched.MarkDirty()
}

// Frame is called once per displayed frame. It starts a render when needed
// and draws the latest completed image into target, if there is one.
func (nav *Navigator) Frame(target DrawTarget) {
	img := nav.sched.Frame(nav.vp.View())
	if img != nil && target != nil {
		target.DrawImage(img)
	}
}

// Wait blocks until the scheduler is idle. Only headless callers use it.
func (nav *Navigator) Wait() { nav.sched.Wait() }

// Image returns the last completed image and the view it shows.
func (nav *Navigator) Image() (*image.RGBA, plane.View, bool) {
	return nav.sched.Image()
}

// Export renders the current view at full size and writes it to path.
// Viewport and history are not affected by failures.
func (nav *Navigator) Export(ctx context.Context, path string) error {
	if err := nav.exporter.Export(ctx, nav.vp.View(), path); err != nil {
		render.Logger().Warn("navigator: export failed", "path", path, "error", err)
		return err
	}
	return nil
}

// Close stops any running render.
func (nav *Navigator) Close() {
	nav.sched.Close()
}

func (nav *Navigator) changed(cause Cause) {
	nav.sched.MarkDirty()
	b := nav.vp.Bounds()
	render.Logger().Info("navigator: viewport changed", "cause", cause, "bounds", b)
	nav.bus.Publish(ViewportChanged{Bounds: b, Cause: cause})
}
