package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenFractal/pkg/navigator"
	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// StateSnapshot captures a copy of the state data for rendering without
// requiring the UI to hold locks while laying out widgets.
type StateSnapshot struct {
	Rendering bool
	Exporting bool
	LastError error
	Status    string

	Bounds  plane.Bounds
	Palette string

	JuliaOpen bool
	JuliaC    complex128

	Logs []string

	LastUpdated time.Time
}

// AppState tracks the mutable state shared between the Gio event loop,
// render goroutines and background exports.
type AppState struct {
	mu sync.RWMutex

	rendering bool
	exporting bool
	lastError error
	status    string

	bounds  plane.Bounds
	palette string

	juliaOpen bool
	juliaC    complex128

	logs     []string
	logLimit int

	lastUpdated time.Time
}

// NewState returns a baseline AppState with safe defaults.
func NewState() *AppState {
	return &AppState{
		logLimit:    200,
		status:      "Idle",
		bounds:      plane.DefaultBounds(),
		lastUpdated: time.Now(),
	}
}

// Snapshot returns a copy of the mutable state for rendering.
func (s *AppState) Snapshot() StateSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logCopy := make([]string, len(s.logs))
	copy(logCopy, s.logs)

	return StateSnapshot{
		Rendering:   s.rendering,
		Exporting:   s.exporting,
		LastError:   s.lastError,
		Status:      s.status,
		Bounds:      s.bounds,
		Palette:     s.palette,
		JuliaOpen:   s.juliaOpen,
		JuliaC:      s.juliaC,
		Logs:        logCopy,
		LastUpdated: s.lastUpdated,
	}
}

// HandleEvent folds a navigator event into the state. It is safe to call
// from render goroutines.
func (s *AppState) HandleEvent(e navigator.Event) {
	switch ev := e.(type) {
	case navigator.PointSelected:
		s.mu.Lock()
		s.juliaOpen = true
		s.juliaC = ev.Point
		s.mu.Unlock()
		s.AppendLog(fmt.Sprintf("Julia set for c = %.6g", ev.Point))
	case navigator.PanelCloseRequested:
		s.CloseJulia()
	case navigator.ViewportChanged:
		s.mu.Lock()
		s.bounds = ev.Bounds
		s.rendering = true
		if !s.exporting {
			s.status = "Rendering"
		}
		s.lastUpdated = time.Now()
		s.mu.Unlock()
	case navigator.RenderCompleted:
		s.mu.Lock()
		s.bounds = ev.View.Bounds
		s.rendering = false
		s.lastError = nil
		if !s.exporting {
			s.status = "Ready"
		}
		s.lastUpdated = time.Now()
		s.mu.Unlock()
	case navigator.RenderFailed:
		s.mu.Lock()
		s.rendering = false
		s.lastError = ev.Err
		s.status = "Render failed"
		s.lastUpdated = time.Now()
		s.mu.Unlock()
		s.AppendLog(fmt.Sprintf("render failed: %v", ev.Err))
	}
}

// CloseJulia hides the Julia side panel.
func (s *AppState) CloseJulia() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.juliaOpen = false
	s.lastUpdated = time.Now()
}

// SetExporting marks a background export as running or finished. Render
// events do not touch it.
func (s *AppState) SetExporting(exporting bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exporting = exporting
	s.lastUpdated = time.Now()
}

// SetStatus updates the status line.
func (s *AppState) SetStatus(status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.lastUpdated = time.Now()
}

// SetError records the most recent error.
func (s *AppState) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastUpdated = time.Now()
}

// SetPalette records the active palette name.
func (s *AppState) SetPalette(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.palette = name
	s.lastUpdated = time.Now()
}

// AppendLog appends a log message, trimming the oldest entries past the limit.
func (s *AppState) AppendLog(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, msg)
	if s.logLimit > 0 && len(s.logs) > s.logLimit {
		offset := len(s.logs) - s.logLimit
		s.logs = append([]string(nil), s.logs[offset:]...)
	}
	s.lastUpdated = time.Now()
}
