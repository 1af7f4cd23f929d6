// Package render decides when the plane needs to be redrawn and runs the
// expensive render work off the interaction goroutine.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// Renderer draws view into dst. dst is sized to view.Pixels(). It runs on its
// own goroutine and should return early with ctx.Err() once ctx is done.
type Renderer interface {
	Render(ctx context.Context, view plane.View, dst *image.RGBA) error
}

// MaxImagePixels is the largest image area RenderNow will allocate.
const MaxImagePixels = 1 << 26

// ErrTooLarge is returned by RenderNow for views above MaxImagePixels.
var ErrTooLarge = errors.New("render: image too large")

// RendererFunc adapts an ordinary function to Renderer.
type RendererFunc func(ctx context.Context, view plane.View, dst *image.RGBA) error

// Render calls f.
func (f RendererFunc) Render(ctx context.Context, view plane.View, dst *image.RGBA) error {
	return f(ctx, view, dst)
}

// Phase is the state of the scheduler's render task.
type Phase int

const (
	// PhaseIdle means no task is running.
	PhaseIdle Phase = iota
	// PhaseRendering means the running task covers the latest state.
	PhaseRendering
	// PhaseStale means the view changed after the running task started.
	PhaseStale
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRendering:
		return "rendering"
	case PhaseStale:
		return "stale"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithErrorHandler sets the function that receives render failures. It is
// called from the render goroutine.
func WithErrorHandler(fn func(error)) Option {
	return func(s *Scheduler) { s.onError = fn }
}

// WithUpdateHandler sets the function called when a new frame should be
// drawn, either because an image was installed or because a superseded
// result was thrown away. It is called from the render goroutine; Gio
// callers typically pass window.Invalidate.
func WithUpdateHandler(fn func()) Option {
	return func(s *Scheduler) { s.onUpdate = fn }
}

// WithInstallHandler sets the function called with the view of each image
// that replaces the cached one. It is called from the render goroutine.
func WithInstallHandler(fn func(plane.View)) Option {
	return func(s *Scheduler) { s.onInstall = fn }
}

type task struct {
	gen    uint64
	view   plane.View
	cancel context.CancelFunc
}

// Scheduler tracks whether the cached image still matches the viewport and
// owns the single current render task.
//
// Frame and MarkDirty are called from the interaction goroutine; completion
// runs on worker goroutines. Frame never waits for a render.
type Scheduler struct {
	mu       sync.Mutex
	renderer Renderer

	dirty bool
	gen   uint64
	phase Phase

	current *task
	failed  *task

	image     *image.RGBA
	imageView plane.View

	onError   func(error)
	onUpdate  func()
	onInstall func(plane.View)

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

// NewScheduler returns a scheduler that starts dirty, so the first Frame
// dispatches a render.
func NewScheduler(r Renderer, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		renderer: r,
		dirty:    true,
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkDirty records that the viewport changed. A task already running is
// cancelled and whatever it returns is discarded.
func (s *Scheduler) MarkDirty() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty = true
	s.gen++
	if s.current != nil {
		s.phase = PhaseStale
		s.current.cancel()
	}
}

// NeedsRepaint reports whether the dirty flag is set or the cached image does
// not match the pixel size of view.
func (s *Scheduler) NeedsRepaint(view plane.View) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.needsRepaintLocked(view)
}

func (s *Scheduler) needsRepaintLocked(view plane.View) bool {
	return s.dirty || s.image == nil || !s.imageView.SameSize(view)
}

// Frame is called once per displayed frame with the current view. When a
// repaint is needed and the latest state is not already being rendered, it
// starts a task over the view. It returns the last completed image, which may
// be nil before the first render finishes.
func (s *Scheduler) Frame(view plane.View) *image.RGBA {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || !s.needsRepaintLocked(view) {
		return s.image
	}
	if c := s.current; c != nil && c.gen == s.gen && c.view == view {
		return s.image
	}
	if f := s.failed; f != nil && f.gen == s.gen && f.view == view {
		return s.image
	}
	s.dispatchLocked(view)
	return s.image
}

func (s *Scheduler) dispatchLocked(view plane.View) {
	if s.current != nil {
		// Superseded by a size change; its output is dropped.
		s.current.cancel()
	}
	ctx, cancel := context.WithCancel(s.ctx)
	t := &task{gen: s.gen, view: view, cancel: cancel}
	s.current = t
	s.phase = PhaseRendering
	s.dirty = false

	Logger().Debug("render: dispatch", "gen", t.gen, "bounds", view.Bounds, "width", view.Width, "height", view.Height)

	s.wg.Add(1)
	go s.run(ctx, t)
}

func (s *Scheduler) run(ctx context.Context, t *task) {
	defer s.wg.Done()
	defer t.cancel()

	img, err := s.renderTask(ctx, t)
	s.complete(t, img, err)
}

func (s *Scheduler) renderTask(ctx context.Context, t *task) (img *image.RGBA, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render: renderer panicked: %v", r)
		}
	}()
	return RenderNow(ctx, s.renderer, t.view)
}

func (s *Scheduler) complete(t *task, img *image.RGBA, err error) {
	s.mu.Lock()
	superseded := s.current != t || t.gen != s.gen
	if s.current == t {
		s.current = nil
		s.phase = PhaseIdle
	}
	closed := s.closed

	var reportErr error
	notify, installed := false, false
	switch {
	case closed:
	case superseded:
		Logger().Debug("render: discard superseded result", "gen", t.gen, "latest", s.gen)
		notify = true
	case err != nil:
		s.failed = t
		reportErr = err
	default:
		s.image = img
		s.imageView = t.view
		s.failed = nil
		notify, installed = true, true
		Logger().Debug("render: installed", "gen", t.gen)
	}
	onError, onUpdate, onInstall := s.onError, s.onUpdate, s.onInstall
	s.mu.Unlock()

	if reportErr != nil {
		Logger().Warn("render failed", "gen", t.gen, "error", reportErr)
		if onError != nil {
			onError(reportErr)
		}
	}
	if installed && onInstall != nil {
		onInstall(t.view)
	}
	if notify && onUpdate != nil {
		onUpdate()
	}
}

// Image returns the last completed image and the view it was rendered for.
func (s *Scheduler) Image() (*image.RGBA, plane.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.image, s.imageView, s.image != nil
}

// Phase returns the current task phase.
func (s *Scheduler) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Dirty reports whether the dirty flag is set.
func (s *Scheduler) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Wait blocks until no render task is running. It is meant for headless
// callers and tests; interactive code must not call it.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels running work and waits for it to return. Frames after Close
// keep returning the last image without dispatching.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cancel()
	s.mu.Unlock()
	s.wg.Wait()
}

// RenderNow renders view synchronously on the calling goroutine, bypassing
// the cache. Used by export and headless tools.
func RenderNow(ctx context.Context, r Renderer, view plane.View) (*image.RGBA, error) {
	w, h := view.Pixels()
	if w <= 0 || h <= 0 {
		return nil, plane.ErrDegenerate
	}
	if w*h > MaxImagePixels {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, w, h, MaxImagePixels)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := r.Render(ctx, view, img); err != nil {
		return nil, err
	}
	return img, nil
}
