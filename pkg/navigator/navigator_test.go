package navigator

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

const tol = 1e-12

var blank = render.RendererFunc(func(context.Context, plane.View, *image.RGBA) error { return nil })

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newTestNavigator(t *testing.T, opts ...Option) (*Navigator, *recorder) {
	t.Helper()
	nav := New(blank, 800, 600, opts...)
	t.Cleanup(nav.Close)
	rec := &recorder{}
	nav.Subscribe(rec.listen)
	return nav, rec
}

func zoomBox(nav *Navigator, x, y, w, h float64) bool {
	nav.StartSelection(x, y)
	nav.UpdateSelection(w, h)
	return nav.FinalizeSelection()
}

func TestNewFitsSurfaceAspect(t *testing.T) {
	nav, _ := newTestNavigator(t)
	want := plane.Bounds{XMin: -2, XMax: 1, YMin: -1.125, YMax: 1.125}
	if !nav.Bounds().ApproxEqual(want, tol) {
		t.Fatalf("Bounds() = %+v, want %+v", nav.Bounds(), want)
	}
}

func TestZoomThenUndoRestoresExactBounds(t *testing.T) {
	nav, _ := newTestNavigator(t)
	before := nav.Bounds()

	if !zoomBox(nav, 100, 100, 200, 100) {
		t.Fatal("zoom rejected")
	}
	zoomed := nav.Bounds()
	if zoomed == before {
		t.Fatal("zoom did not change bounds")
	}
	if !scalar.EqualWithinAbsOrRel(zoomed.Aspect(), 800.0/600, tol, tol) {
		t.Fatalf("zoomed aspect = %v", zoomed.Aspect())
	}

	if !nav.Undo() {
		t.Fatal("Undo() = false")
	}
	if got := nav.Bounds(); got != before {
		t.Fatalf("after undo %+v, want %+v", got, before)
	}

	if !nav.Redo() {
		t.Fatal("Redo() = false")
	}
	if got := nav.Bounds(); got != zoomed {
		t.Fatalf("after redo %+v, want %+v", got, zoomed)
	}
}

func TestMirroredDragsZoomIdentically(t *testing.T) {
	a, _ := newTestNavigator(t)
	b, _ := newTestNavigator(t)

	zoomBox(a, 100, 100, 200, 100)
	zoomBox(b, 300, 200, -200, -100)

	if a.Bounds() != b.Bounds() {
		t.Fatalf("down-right %+v != up-left %+v", a.Bounds(), b.Bounds())
	}
}

func TestDegenerateSelectionIsNoop(t *testing.T) {
	nav, rec := newTestNavigator(t)
	before := nav.Bounds()

	if zoomBox(nav, 100, 100, 0, 50) {
		t.Fatal("zero-width selection accepted")
	}
	if nav.Bounds() != before || nav.CanUndo() {
		t.Fatal("degenerate selection changed state")
	}
	if n := len(rec.all()); n != 0 {
		t.Fatalf("%d events published for a no-op", n)
	}
	if nav.FinalizeSelection() {
		t.Fatal("finalize without a drag accepted")
	}
}

func TestCancelSelection(t *testing.T) {
	nav, _ := newTestNavigator(t)
	nav.StartSelection(10, 10)
	nav.UpdateSelection(100, 50)
	if _, ok := nav.Selection(); !ok {
		t.Fatal("selection not active")
	}
	nav.CancelSelection()
	if _, ok := nav.Selection(); ok {
		t.Fatal("selection still active after cancel")
	}
	if nav.FinalizeSelection() {
		t.Fatal("cancelled selection applied")
	}
}

func TestZoomPublishesEvents(t *testing.T) {
	nav, rec := newTestNavigator(t)
	zoomBox(nav, 100, 100, 200, 100)

	events := rec.all()
	if len(events) != 2 {
		t.Fatalf("events = %#v", events)
	}
	vc, ok := events[0].(ViewportChanged)
	if !ok || vc.Cause != CauseZoom || vc.Bounds != nav.Bounds() {
		t.Fatalf("first event = %#v", events[0])
	}
	if pc, ok := events[1].(PanelCloseRequested); !ok || pc.Cause != CauseZoom {
		t.Fatalf("second event = %#v", events[1])
	}
}

func TestPointClicked(t *testing.T) {
	nav, rec := newTestNavigator(t)
	z := nav.PointClicked(0, 0)
	if !scalar.EqualWithinAbs(real(z), -2, tol) || !scalar.EqualWithinAbs(imag(z), 1.125, tol) {
		t.Fatalf("PointClicked(0,0) = %v", z)
	}
	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("events = %#v", events)
	}
	if ps, ok := events[0].(PointSelected); !ok || ps.Point != z {
		t.Fatalf("event = %#v", events[0])
	}
}

func TestUndoRedoOnEmptyHistory(t *testing.T) {
	nav, rec := newTestNavigator(t)
	if nav.Undo() || nav.Redo() {
		t.Fatal("undo/redo on empty history reported a change")
	}
	if len(rec.all()) != 0 {
		t.Fatal("events published for empty undo")
	}
}

func TestPanDoesNotRecordHistoryByDefault(t *testing.T) {
	nav, rec := newTestNavigator(t)
	before := nav.Bounds()
	nav.Pan(80, -60)

	if nav.CanUndo() {
		t.Fatal("pan recorded history without pan history enabled")
	}
	want := before.Translate(-80/nav.View().Width*before.Width(), -60/nav.View().Height*before.Height())
	if !nav.Bounds().ApproxEqual(want, tol) {
		t.Fatalf("after pan %+v, want %+v", nav.Bounds(), want)
	}
	events := rec.all()
	if vc, ok := events[len(events)-1].(ViewportChanged); !ok || vc.Cause != CausePan {
		t.Fatalf("last event = %#v", events[len(events)-1])
	}
}

func TestPanClearsRedo(t *testing.T) {
	nav, _ := newTestNavigator(t)
	zoomBox(nav, 100, 100, 200, 100)
	nav.Undo()
	if !nav.CanRedo() {
		t.Fatal("redo not available after undo")
	}
	nav.Pan(5, 5)
	if nav.CanRedo() {
		t.Fatal("pan left a stale redo entry")
	}
}

func TestPanHistoryRecordsOneStepPerGesture(t *testing.T) {
	nav, _ := newTestNavigator(t, WithPanHistory(true))
	before := nav.Bounds()

	nav.BeginPan()
	nav.Pan(10, 0)
	nav.Pan(10, 5)
	nav.Pan(-3, 7)
	nav.EndPan()

	if !nav.Undo() {
		t.Fatal("pan gesture was not recorded")
	}
	if nav.Bounds() != before {
		t.Fatalf("after undo %+v, want %+v", nav.Bounds(), before)
	}
	if nav.CanUndo() {
		t.Fatal("one gesture produced several undo steps")
	}

	// Pans outside a gesture are one step each.
	nav.Pan(1, 0)
	nav.Pan(1, 0)
	if !nav.Undo() || !nav.Undo() || nav.Undo() {
		t.Fatal("expected exactly two undo steps for two loose pans")
	}
}

func TestZoomAtFollowsPanHistoryRule(t *testing.T) {
	nav, rec := newTestNavigator(t)
	nav.ZoomAt(400, 300, 2)
	if nav.CanUndo() {
		t.Fatal("wheel zoom recorded history without pan history")
	}
	if w := nav.Bounds().Width(); !scalar.EqualWithinAbs(w, 1.5, tol) {
		t.Fatalf("width after 2x zoom = %v", w)
	}
	events := rec.all()
	if len(events) != 2 {
		t.Fatalf("events = %#v", events)
	}
	if vc, ok := events[0].(ViewportChanged); !ok || vc.Cause != CauseZoom {
		t.Fatalf("first event = %#v", events[0])
	}
	if pc, ok := events[1].(PanelCloseRequested); !ok || pc.Cause != CauseZoom {
		t.Fatalf("wheel zoom should close the point panel, second event = %#v", events[1])
	}
	nav.ZoomAt(400, 300, 0)
	nav.ZoomAt(400, 300, -1)
	if n := len(rec.all()); n != 2 {
		t.Fatalf("invalid factors published events: %d", n)
	}

	withHist, _ := newTestNavigator(t, WithPanHistory(true))
	before := withHist.Bounds()
	withHist.ZoomAt(100, 100, 1.25)
	if !withHist.Undo() || withHist.Bounds() != before {
		t.Fatal("wheel zoom not undoable with pan history")
	}
}

func TestHistoryCapacity(t *testing.T) {
	nav, _ := newTestNavigator(t, WithHistoryCapacity(2))
	for i := 0; i < 3; i++ {
		if !zoomBox(nav, 100, 100, 200, 100) {
			t.Fatalf("zoom %d rejected", i)
		}
	}
	undos := 0
	for nav.Undo() {
		undos++
	}
	if undos != 2 {
		t.Fatalf("undo steps = %d, want 2", undos)
	}
}

func TestReset(t *testing.T) {
	nav, rec := newTestNavigator(t)
	home := nav.Bounds()
	if nav.Reset() {
		t.Fatal("reset at home reported a change")
	}

	zoomBox(nav, 100, 100, 200, 100)
	zoomed := nav.Bounds()
	rec.reset()
	if !nav.Reset() {
		t.Fatal("reset after zoom did nothing")
	}
	if !nav.Bounds().ApproxEqual(home, tol) {
		t.Fatalf("reset bounds %+v, want %+v", nav.Bounds(), home)
	}
	if vc, ok := rec.all()[0].(ViewportChanged); !ok || vc.Cause != CauseReset {
		t.Fatalf("first event = %#v", rec.all()[0])
	}
	if !nav.Undo() || nav.Bounds() != zoomed {
		t.Fatal("reset is not undoable")
	}
}

func TestResizeKeepsHistory(t *testing.T) {
	nav, rec := newTestNavigator(t)
	nav.Resize(1000, 500)
	if nav.CanUndo() {
		t.Fatal("resize recorded history")
	}
	if !scalar.EqualWithinAbsOrRel(nav.Bounds().Aspect(), 2, tol, tol) {
		t.Fatalf("aspect after resize = %v", nav.Bounds().Aspect())
	}
	events := rec.all()
	if len(events) != 1 {
		t.Fatalf("events = %#v", events)
	}
	if vc, ok := events[0].(ViewportChanged); !ok || vc.Cause != CauseResize {
		t.Fatalf("event = %#v", events[0])
	}

	nav.Resize(1000, 500)
	if len(rec.all()) != 1 {
		t.Fatal("same-size resize published an event")
	}
}

type imageSink struct {
	img *image.RGBA
}

func (s *imageSink) DrawImage(img *image.RGBA) { s.img = img }

func TestFrameDrawsCompletedRender(t *testing.T) {
	nav := New(blank, 80, 60)
	defer nav.Close()
	rec := &recorder{}
	nav.Subscribe(rec.listen)

	sink := &imageSink{}
	nav.Frame(sink)
	nav.Wait()
	nav.Frame(sink)

	if sink.img == nil {
		t.Fatal("no image drawn after render completed")
	}
	if b := sink.img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Fatalf("image size %v", b)
	}
	var completed bool
	for _, e := range rec.all() {
		if rc, ok := e.(RenderCompleted); ok && rc.View == nav.View() {
			completed = true
		}
	}
	if !completed {
		t.Fatal("RenderCompleted not published")
	}
}

func TestRenderFailurePublished(t *testing.T) {
	boom := errors.New("boom")
	nav := New(render.RendererFunc(func(context.Context, plane.View, *image.RGBA) error { return boom }), 40, 30)
	defer nav.Close()
	rec := &recorder{}
	nav.Subscribe(rec.listen)

	nav.Frame(nil)
	nav.Wait()

	var failed bool
	for _, e := range rec.all() {
		if rf, ok := e.(RenderFailed); ok && errors.Is(rf.Err, boom) {
			failed = true
		}
	}
	if !failed {
		t.Fatal("RenderFailed not published")
	}
}

type fakeExporter struct {
	view plane.View
	path string
	err  error
}

func (f *fakeExporter) Export(_ context.Context, view plane.View, path string) error {
	f.view, f.path = view, path
	return f.err
}

func TestExportUsesCurrentView(t *testing.T) {
	fe := &fakeExporter{}
	nav, _ := newTestNavigator(t, WithExporter(fe))
	zoomBox(nav, 100, 100, 200, 100)

	if err := nav.Export(context.Background(), "out.png"); err != nil {
		t.Fatalf("Export: %v", err)
	}
	if fe.view != nav.View() || fe.path != "out.png" {
		t.Fatalf("exported %+v to %q", fe.view, fe.path)
	}

	fe.err = errors.New("disk full")
	before := nav.Bounds()
	undo := nav.CanUndo()
	if err := nav.Export(context.Background(), "out.png"); !errors.Is(err, fe.err) {
		t.Fatalf("err = %v, want %v", err, fe.err)
	}
	if nav.Bounds() != before || nav.CanUndo() != undo {
		t.Fatal("failed export changed navigation state")
	}
}

func TestExportRejectsOversizedSurface(t *testing.T) {
	nav, _ := newTestNavigator(t)
	nav.Resize(1e9, 1e9)
	if w, h := nav.View().Pixels(); w != int(plane.MaxPixels) || h != int(plane.MaxPixels) {
		t.Fatalf("surface = %dx%d, want clamped to %v", w, h, plane.MaxPixels)
	}

	path := filepath.Join(t.TempDir(), "x.png")
	err := nav.Export(context.Background(), path)
	if !errors.Is(err, render.ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("failed export left %s behind", path)
	}
}

func TestSubscribeCancel(t *testing.T) {
	nav := New(blank, 80, 60)
	defer nav.Close()
	rec := &recorder{}
	cancel := nav.Subscribe(rec.listen)
	nav.PointClicked(1, 1)
	cancel()
	cancel()
	nav.PointClicked(2, 2)
	if n := len(rec.all()); n != 1 {
		t.Fatalf("received %d events, want 1", n)
	}
}
