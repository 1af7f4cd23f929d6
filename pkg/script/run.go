package script

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

// Target is the navigation surface a script drives. *navigator.Navigator
// implements it.
type Target interface {
	Resize(width, height float64)
	StartSelection(x, y float64)
	UpdateSelection(dx, dy float64)
	FinalizeSelection() bool
	BeginPan()
	Pan(dx, dy float64)
	EndPan()
	ZoomAt(x, y, factor float64)
	PointClicked(x, y float64) complex128
	Undo() bool
	Redo() bool
	Reset() bool
	Export(ctx context.Context, path string) error
}

// Runner executes scripts against a Target.
type Runner struct {
	Target Target
	// BaseDir resolves relative export paths. Empty means the working
	// directory.
	BaseDir string
	// OnPoint receives the plane point of every click command.
	OnPoint func(z complex128)
}

// Run executes every command in order. It stops at the first export error
// or when ctx is done. No-op commands such as an empty selection or an undo
// with no history are not errors.
func (r *Runner) Run(ctx context.Context, s *Script) error {
	log := render.Logger()
	for _, cmd := range s.Commands {
		if err := ctx.Err(); err != nil {
			return err
		}
		changed, err := r.exec(ctx, cmd)
		if err != nil {
			return fmt.Errorf("%s: %s: %w", cmd.Pos, cmd, err)
		}
		log.Debug("script: step", "pos", cmd.Pos.String(), "cmd", cmd.String(), "changed", changed)
	}
	return nil
}

func (r *Runner) exec(ctx context.Context, cmd *Command) (bool, error) {
	t := r.Target
	switch {
	case cmd.Resize != nil:
		t.Resize(cmd.Resize.W, cmd.Resize.H)
		return true, nil
	case cmd.Select != nil:
		t.StartSelection(cmd.Select.X, cmd.Select.Y)
		t.UpdateSelection(cmd.Select.W, cmd.Select.H)
		return t.FinalizeSelection(), nil
	case cmd.Pan != nil:
		t.BeginPan()
		t.Pan(cmd.Pan.DX, cmd.Pan.DY)
		t.EndPan()
		return true, nil
	case cmd.Zoom != nil:
		t.ZoomAt(cmd.Zoom.X, cmd.Zoom.Y, cmd.Zoom.Factor)
		return true, nil
	case cmd.Click != nil:
		z := t.PointClicked(cmd.Click.X, cmd.Click.Y)
		if r.OnPoint != nil {
			r.OnPoint(z)
		}
		return false, nil
	case cmd.Undo:
		return t.Undo(), nil
	case cmd.Redo:
		return t.Redo(), nil
	case cmd.Reset:
		return t.Reset(), nil
	case cmd.Export != nil:
		path := *cmd.Export
		if r.BaseDir != "" && !filepath.IsAbs(path) {
			path = filepath.Join(r.BaseDir, path)
		}
		return false, t.Export(ctx, path)
	}
	return false, fmt.Errorf("empty command")
}
