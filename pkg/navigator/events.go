package navigator

import (
	"fmt"
	"sync"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// Event is implemented by every value published on a Bus.
type Event interface {
	event()
}

// Cause says which operation changed the viewport.
type Cause int

const (
	CauseResize Cause = iota
	CauseZoom
	CausePan
	CauseUndo
	CauseRedo
	CauseReset
)

func (c Cause) String() string {
	switch c {
	case CauseResize:
		return "resize"
	case CauseZoom:
		return "zoom"
	case CausePan:
		return "pan"
	case CauseUndo:
		return "undo"
	case CauseRedo:
		return "redo"
	case CauseReset:
		return "reset"
	}
	return fmt.Sprintf("Cause(%d)", int(c))
}

// PointSelected is published when the user clicks a point on the plane.
type PointSelected struct {
	Point complex128
	X, Y  float64 // screen position of the click
}

// ViewportChanged is published after the visible bounds change.
type ViewportChanged struct {
	Bounds plane.Bounds
	Cause  Cause
}

// PanelCloseRequested asks the UI to close any panel tied to the previous
// region, such as the Julia preview opened by a click.
type PanelCloseRequested struct {
	Cause Cause
}

// RenderFailed carries a render error. The previous image stays on screen.
type RenderFailed struct {
	Err error
}

// RenderCompleted is published when a new image has been installed.
type RenderCompleted struct {
	View plane.View
}

func (PointSelected) event()       {}
func (ViewportChanged) event()     {}
func (PanelCloseRequested) event() {}
func (RenderFailed) event()        {}
func (RenderCompleted) event()     {}

// Listener receives events. Render events arrive on render goroutines, so
// listeners must be safe for concurrent use.
type Listener func(Event)

type subscription struct {
	id int
	fn Listener
}

// Bus delivers events to listeners in subscription order.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

// Subscribe registers fn and returns a function that removes it.
func (b *Bus) Subscribe(fn Listener) (cancel func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { b.unsubscribe(id) })
	}
}

func (b *Bus) unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish calls every listener with e. Listeners run on the caller's
// goroutine and may subscribe or unsubscribe while being called.
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	subs := b.subs
	b.mu.RUnlock()

	for _, s := range subs {
		s.fn(e)
	}
}
