package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// gatedRenderer blocks every render until the test releases it.
type gatedRenderer struct {
	started chan plane.View
	release chan error
	calls   atomic.Int32
}

func newGatedRenderer() *gatedRenderer {
	return &gatedRenderer{
		started: make(chan plane.View, 8),
		release: make(chan error, 8),
	}
}

func (g *gatedRenderer) Render(ctx context.Context, view plane.View, dst *image.RGBA) error {
	g.calls.Add(1)
	g.started <- view
	if err := <-g.release; err != nil {
		return err
	}
	dst.Set(0, 0, color.RGBA{R: uint8(g.calls.Load()), A: 255})
	return nil
}

func waitStarted(t *testing.T, g *gatedRenderer) plane.View {
	t.Helper()
	select {
	case v := <-g.started:
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("render was not dispatched")
	}
	return plane.View{}
}

func assertNotStarted(t *testing.T, g *gatedRenderer) {
	t.Helper()
	select {
	case v := <-g.started:
		t.Fatalf("unexpected render dispatched for %+v", v)
	case <-time.After(20 * time.Millisecond):
	}
}

func testView(xMin float64) plane.View {
	return plane.View{
		Bounds: plane.Bounds{XMin: xMin, XMax: xMin + 3, YMin: -1, YMax: 1},
		Width:  30,
		Height: 20,
	}
}

func TestFrameDispatchesOnceAndCaches(t *testing.T) {
	g := newGatedRenderer()
	s := NewScheduler(g)
	defer s.Close()
	view := testView(-2)

	if img := s.Frame(view); img != nil {
		t.Fatal("no image expected before the first render")
	}
	waitStarted(t, g)
	if s.Dirty() {
		t.Fatal("dirty flag should clear once the task is dispatched")
	}
	if s.Phase() != PhaseRendering {
		t.Fatalf("phase = %v, want rendering", s.Phase())
	}

	// Same state again while in flight: nothing new starts.
	s.Frame(view)
	assertNotStarted(t, g)

	g.release <- nil
	s.Wait()

	img, got, ok := s.Image()
	if !ok || img == nil {
		t.Fatal("image not installed")
	}
	if got != view {
		t.Fatalf("installed view %+v, want %+v", got, view)
	}
	if s.NeedsRepaint(view) {
		t.Fatal("no repaint needed after install")
	}
	if s.Frame(view) != img {
		t.Fatal("Frame should return the cached image")
	}
	assertNotStarted(t, g)
	if s.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", s.Phase())
	}
}

func TestMutationDuringRenderIsNotLost(t *testing.T) {
	g := newGatedRenderer()
	updates := make(chan struct{}, 8)
	s := NewScheduler(g, WithUpdateHandler(func() { updates <- struct{}{} }))
	defer s.Close()

	first := testView(-2)
	s.Frame(first)
	waitStarted(t, g)

	s.MarkDirty()
	if s.Phase() != PhaseStale {
		t.Fatalf("phase = %v, want stale", s.Phase())
	}

	g.release <- nil
	s.Wait()
	<-updates

	if _, _, ok := s.Image(); ok {
		t.Fatal("superseded result must be discarded")
	}
	if !s.Dirty() {
		t.Fatal("dirty flag lost after mid-render mutation")
	}

	second := testView(-1)
	s.Frame(second)
	if got := waitStarted(t, g); got != second {
		t.Fatalf("re-render used %+v, want %+v", got, second)
	}
	g.release <- nil
	s.Wait()

	_, got, ok := s.Image()
	if !ok || got != second {
		t.Fatalf("installed %+v (%v), want %+v", got, ok, second)
	}
}

func TestNewerFrameSupersedesRunningTask(t *testing.T) {
	g := newGatedRenderer()
	s := NewScheduler(g)
	defer s.Close()

	old := testView(-2)
	s.Frame(old)
	waitStarted(t, g)

	s.MarkDirty()
	latest := testView(0)
	s.Frame(latest)
	waitStarted(t, g)

	// Old task finishes first and must not be installed.
	g.release <- nil
	// Then the latest one.
	g.release <- nil
	s.Wait()

	_, got, ok := s.Image()
	if !ok || got != latest {
		t.Fatalf("installed %+v, want %+v", got, latest)
	}
	if s.Phase() != PhaseIdle {
		t.Fatalf("phase = %v, want idle", s.Phase())
	}
}

func TestSizeMismatchNeedsRepaint(t *testing.T) {
	g := newGatedRenderer()
	s := NewScheduler(g)
	defer s.Close()

	view := testView(-2)
	s.Frame(view)
	waitStarted(t, g)
	g.release <- nil
	s.Wait()

	resized := view
	resized.Width = 60
	if !s.NeedsRepaint(resized) {
		t.Fatal("pixel size change should need a repaint")
	}
	s.Frame(resized)
	if got := waitStarted(t, g); got != resized {
		t.Fatalf("rendered %+v, want %+v", got, resized)
	}
	g.release <- nil
	s.Wait()
}

func TestRenderFailureKeepsPriorImage(t *testing.T) {
	g := newGatedRenderer()
	var reported atomic.Value
	s := NewScheduler(g, WithErrorHandler(func(err error) { reported.Store(err) }))
	defer s.Close()

	view := testView(-2)
	s.Frame(view)
	waitStarted(t, g)
	g.release <- nil
	s.Wait()
	prior, _, _ := s.Image()

	boom := errors.New("boom")
	s.MarkDirty()
	s.Frame(view)
	waitStarted(t, g)
	g.release <- boom
	s.Wait()

	if img, _, _ := s.Image(); img != prior {
		t.Fatal("failed render replaced the cached image")
	}
	if err, _ := reported.Load().(error); !errors.Is(err, boom) {
		t.Fatalf("reported error = %v, want %v", err, boom)
	}

	// The failed state is not retried every frame.
	s.Frame(view)
	assertNotStarted(t, g)

	// A new mutation does retry.
	s.MarkDirty()
	s.Frame(view)
	waitStarted(t, g)
	g.release <- nil
	s.Wait()
	if img, _, _ := s.Image(); img == prior {
		t.Fatal("retry after mutation was not installed")
	}
}

func TestRendererPanicIsReported(t *testing.T) {
	errs := make(chan error, 1)
	s := NewScheduler(RendererFunc(func(context.Context, plane.View, *image.RGBA) error {
		panic("kaboom")
	}), WithErrorHandler(func(err error) { errs <- err }))
	defer s.Close()

	s.Frame(testView(-2))
	s.Wait()

	select {
	case err := <-errs:
		if err == nil {
			t.Fatal("nil error reported")
		}
	default:
		t.Fatal("panic was not reported")
	}
}

func TestCloseStopsDispatch(t *testing.T) {
	var calls atomic.Int32
	s := NewScheduler(RendererFunc(func(ctx context.Context, _ plane.View, _ *image.RGBA) error {
		calls.Add(1)
		return ctx.Err()
	}))
	s.Close()

	if img := s.Frame(testView(-2)); img != nil {
		t.Fatal("closed scheduler returned an image")
	}
	s.Wait()
	if calls.Load() != 0 {
		t.Fatalf("renderer called %d times after Close", calls.Load())
	}
}

func TestRenderNowRejectsEmptyView(t *testing.T) {
	_, err := RenderNow(context.Background(), RendererFunc(func(context.Context, plane.View, *image.RGBA) error {
		return nil
	}), plane.View{Bounds: plane.DefaultBounds()})
	if !errors.Is(err, plane.ErrDegenerate) {
		t.Fatalf("err = %v, want ErrDegenerate", err)
	}
}

func TestRenderNowRejectsHugeView(t *testing.T) {
	var called atomic.Bool
	r := RendererFunc(func(context.Context, plane.View, *image.RGBA) error {
		called.Store(true)
		return nil
	})
	view := plane.View{Bounds: plane.DefaultBounds(), Width: plane.MaxPixels, Height: plane.MaxPixels}
	_, err := RenderNow(context.Background(), r, view)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}
	if called.Load() {
		t.Fatal("renderer ran for an oversized view")
	}
}
