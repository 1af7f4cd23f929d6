package ui

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"sync/atomic"
	"time"

	"gioui.org/app"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/oligo/gioview/menu"
	"github.com/oligo/gioview/theme"
	"golang.org/x/exp/shiny/materialdesign/icons"

	"github.com/OpenTraceLab/OpenFractal/internal/config"
	"github.com/OpenTraceLab/OpenFractal/pkg/export"
	"github.com/OpenTraceLab/OpenFractal/pkg/fractal"
	"github.com/OpenTraceLab/OpenFractal/pkg/navigator"
	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// liveRenderer lets the palette change while renders are in flight. Each
// render uses the renderer that was current when it started.
type liveRenderer struct {
	current atomic.Pointer[fractal.Renderer]
}

func (l *liveRenderer) Render(ctx context.Context, view plane.View, dst *image.RGBA) error {
	return l.current.Load().Render(ctx, view, dst)
}

func (l *liveRenderer) set(r *fractal.Renderer) { l.current.Store(r) }

type toolButton struct {
	click widget.Clickable
	icon  *widget.Icon
	label string
}

// App drives the Gio-based plane viewer.
type App struct {
	Window *app.Window
	Theme  *material.Theme
	State  *AppState
	Config *config.Config
	// ConfigPath is where palette changes are saved. Empty means config.Path.
	ConfigPath string

	ops op.Ops

	nav      *navigator.Navigator
	renderer *liveRenderer
	exporter *export.Exporter
	palette  *fractal.Palette
	canvas   *Canvas
	julia    *JuliaPanel

	undoBtn, redoBtn, homeBtn, saveBtn, paletteBtn toolButton

	paletteMenu *menu.DropdownMenu
	menuTheme   *theme.Theme

	unsubscribe func()
}

// New wires the Gio window, theme, navigator and shared state together.
func New(window *app.Window, cfg *config.Config, state *AppState) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if state == nil {
		state = NewState()
	}
	pal, err := fractal.PaletteByName(cfg.Palette)
	if err != nil {
		return nil, err
	}

	baseTheme := material.NewTheme()
	baseTheme.Palette = material.Palette{
		Bg:         color.NRGBA{R: 245, G: 246, B: 252, A: 255},
		Fg:         color.NRGBA{R: 34, G: 37, B: 49, A: 255},
		ContrastBg: color.NRGBA{R: 80, G: 120, B: 255, A: 255},
		ContrastFg: color.NRGBA{R: 255, G: 255, B: 255, A: 255},
	}

	a := &App{
		Window:   window,
		Theme:    baseTheme,
		State:    state,
		Config:   cfg,
		renderer: &liveRenderer{},
		palette:  pal,
	}
	a.renderer.set(a.newRenderer(pal))
	a.exporter = export.New(a.renderer)
	a.nav = navigator.New(a.renderer, float64(cfg.Width), float64(cfg.Height),
		navigator.WithHistoryCapacity(cfg.History),
		navigator.WithPanHistory(cfg.PanHistory),
		navigator.WithExporter(a.exporter),
		navigator.WithInvalidate(a.invalidate),
	)
	a.unsubscribe = a.nav.Subscribe(func(e navigator.Event) {
		a.State.HandleEvent(e)
		a.invalidate()
	})
	a.canvas = newCanvas(a.nav)
	a.julia = newJuliaPanel(cfg.MaxIter, a.invalidate)
	state.SetPalette(pal.Name)

	a.initToolbar()
	a.paletteMenu = a.buildPaletteMenu()
	a.menuTheme = theme.NewTheme("", nil, true)
	return a, nil
}

func (a *App) newRenderer(pal *fractal.Palette) *fractal.Renderer {
	return &fractal.Renderer{
		Kind:    fractal.Mandelbrot,
		MaxIter: a.Config.MaxIter,
		Workers: a.Config.Workers,
		Palette: pal,
	}
}

// Run processes Gio events until the window is closed.
func (a *App) Run() error {
	defer a.shutdown()
	for {
		e := a.Window.Event()
		switch ev := e.(type) {
		case app.DestroyEvent:
			return ev.Err
		case app.FrameEvent:
			gtx := app.NewContext(&a.ops, ev)
			a.layout(gtx)
			ev.Frame(gtx.Ops)
		}
	}
}

func (a *App) shutdown() {
	a.unsubscribe()
	a.julia.close()
	a.nav.Close()
}

func (a *App) invalidate() {
	if a.Window != nil {
		a.Window.Invalidate()
	}
}

func makeIcon(data []byte, name string) *widget.Icon {
	icon, err := widget.NewIcon(data)
	if err != nil {
		slog.Warn("ui: failed to load icon", "icon", name, "error", err)
		return nil
	}
	return icon
}

func (a *App) initToolbar() {
	a.undoBtn = toolButton{icon: makeIcon(icons.ContentUndo, "undo"), label: "Undo"}
	a.redoBtn = toolButton{icon: makeIcon(icons.ContentRedo, "redo"), label: "Redo"}
	a.homeBtn = toolButton{icon: makeIcon(icons.ActionHome, "home"), label: "Reset view"}
	a.saveBtn = toolButton{icon: makeIcon(icons.ContentSave, "save"), label: "Export PNG"}
	a.paletteBtn = toolButton{icon: makeIcon(icons.ImagePalette, "palette"), label: "Palette"}
}

func (a *App) buildPaletteMenu() *menu.DropdownMenu {
	names := fractal.PaletteNames()
	opts := make([]menu.MenuOption, 0, len(names))
	for _, name := range names {
		opts = append(opts, menu.MenuOption{
			OnClicked: func() error {
				return a.setPalette(name)
			},
			Layout: func(gtx menu.C, th *theme.Theme) menu.D {
				lbl := material.Body1(th.Theme, name)
				if a.palette != nil && a.palette.Name == name {
					lbl.Color = th.Palette.ContrastBg
				}
				return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, lbl.Layout)
			},
		})
	}
	drop := menu.NewDropdownMenu([][]menu.MenuOption{opts})
	drop.MaxWidth = unit.Dp(180)
	return drop
}

func (a *App) setPalette(name string) error {
	pal, err := fractal.PaletteByName(name)
	if err != nil {
		return err
	}
	a.palette = pal
	a.renderer.set(a.newRenderer(pal))
	a.nav.Refresh()
	a.State.SetPalette(name)
	a.State.AppendLog("palette: " + name)

	a.Config.Palette = name
	cfg, path := *a.Config, a.ConfigPath
	go func() {
		save := cfg.Save
		if path != "" {
			save = func() error { return cfg.SaveTo(path) }
		}
		if err := save(); err != nil {
			slog.Warn("ui: saving config failed", "error", err)
			a.State.AppendLog(fmt.Sprintf("config not saved: %v", err))
		}
	}()
	a.invalidate()
	return nil
}

// exportView writes the current view to a timestamped PNG in the working
// directory without blocking the event loop.
func (a *App) exportView() {
	view := a.nav.View()
	path := fmt.Sprintf("fractal-%s.png", time.Now().Format("20060102-150405"))
	a.State.SetExporting(true)
	a.State.SetStatus("Exporting " + path)
	go func() {
		defer a.invalidate()
		err := a.exporter.Export(context.Background(), view, path)
		a.State.SetExporting(false)
		if err != nil {
			slog.Warn("ui: export failed", "path", path, "error", err)
			a.State.SetError(err)
			a.State.SetStatus("Export failed")
			a.State.AppendLog(fmt.Sprintf("export failed: %v", err))
			return
		}
		a.State.SetStatus("Exported " + path)
		a.State.AppendLog("exported " + path)
	}()
}

func (a *App) handleKeys(gtx layout.Context) {
	for {
		ev, ok := gtx.Event(
			key.Filter{Name: "Z", Required: key.ModShortcut},
			key.Filter{Name: "Y", Required: key.ModShortcut},
			key.Filter{Name: "S", Required: key.ModShortcut},
			key.Filter{Name: "H"},
			key.Filter{Name: key.NameEscape},
		)
		if !ok {
			break
		}
		e, ok := ev.(key.Event)
		if !ok || e.State != key.Press {
			continue
		}
		switch e.Name {
		case "Z":
			a.nav.Undo()
		case "Y":
			a.nav.Redo()
		case "S":
			a.exportView()
		case "H":
			a.nav.Reset()
		case key.NameEscape:
			a.nav.CancelSelection()
		}
		gtx.Execute(op.InvalidateCmd{})
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	a.handleKeys(gtx)
	state := a.State.Snapshot()

	if state.JuliaOpen {
		a.julia.show(state.JuliaC, a.palette)
	} else {
		a.julia.close()
	}

	paint.FillShape(gtx.Ops, color.NRGBA{R: 238, G: 241, B: 251, A: 255}, clip.Rect{Max: gtx.Constraints.Max}.Op())

	return layout.Flex{Axis: layout.Vertical}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.layoutToolbar(gtx, state)
		}),
		layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
			return a.layoutMain(gtx, state)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return a.layoutStatus(gtx, state)
		}),
	)
}

func (a *App) layoutToolbar(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	if a.undoBtn.click.Clicked(gtx) {
		a.nav.Undo()
	}
	if a.redoBtn.click.Clicked(gtx) {
		a.nav.Redo()
	}
	if a.homeBtn.click.Clicked(gtx) {
		a.nav.Reset()
	}
	if a.saveBtn.click.Clicked(gtx) {
		a.exportView()
	}
	if a.paletteBtn.click.Clicked(gtx) {
		a.paletteMenu.ToggleVisibility(gtx)
	}

	return layout.Inset{
		Top: unit.Dp(8), Bottom: unit.Dp(8), Left: unit.Dp(12), Right: unit.Dp(12),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(material.H6(a.Theme, "OpenFractal").Layout),
			layout.Rigid(layout.Spacer{Width: unit.Dp(16)}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.layoutToolButton(gtx, &a.undoBtn, a.nav.CanUndo())
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.layoutToolButton(gtx, &a.redoBtn, a.nav.CanRedo())
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.layoutToolButton(gtx, &a.homeBtn, true)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return a.layoutToolButton(gtx, &a.saveBtn, !state.Exporting)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				dims := a.layoutToolButton(gtx, &a.paletteBtn, true)
				// Menu after the button so it appears on top
				a.paletteMenu.Layout(gtx, a.menuTheme)
				return dims
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(8)}.Layout),
			layout.Rigid(material.Body2(a.Theme, state.Palette).Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				return layout.Dimensions{}
			}),
			layout.Rigid(material.Caption(a.Theme, "drag: zoom  right-drag: pan  wheel: zoom  click: Julia").Layout),
		)
	})
}

func (a *App) layoutToolButton(gtx layout.Context, b *toolButton, enabled bool) layout.Dimensions {
	if !enabled {
		gtx = gtx.Disabled()
	}
	return layout.Inset{Right: unit.Dp(4)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		if b.icon == nil {
			btn := material.Button(a.Theme, &b.click, b.label)
			btn.Inset = layout.UniformInset(unit.Dp(6))
			return btn.Layout(gtx)
		}
		btn := material.IconButton(a.Theme, &b.click, b.icon, b.label)
		btn.Size = unit.Dp(20)
		btn.Inset = layout.UniformInset(unit.Dp(6))
		return btn.Layout(gtx)
	})
}

func (a *App) layoutMain(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	children := []layout.FlexChild{
		layout.Flexed(1, a.canvas.Layout),
	}
	if state.JuliaOpen {
		children = append(children, layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			width := gtx.Dp(unit.Dp(320))
			gtx.Constraints.Min.X = width
			gtx.Constraints.Max.X = width
			gtx.Constraints.Min.Y = gtx.Constraints.Max.Y
			return a.layoutPanelSurface(gtx, func(gtx layout.Context) layout.Dimensions {
				dims, closed := a.julia.Layout(gtx, a.Theme)
				if closed {
					a.State.CloseJulia()
					a.invalidate()
				}
				return dims
			})
		}))
	}
	return layout.Flex{Axis: layout.Horizontal}.Layout(gtx, children...)
}

func (a *App) layoutPanelSurface(gtx layout.Context, body layout.Widget) layout.Dimensions {
	return layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			col := color.NRGBA{R: 238, G: 240, B: 247, A: 255}
			paint.FillShape(gtx.Ops, col, clip.Rect{Max: gtx.Constraints.Max}.Op())
			return layout.Dimensions{Size: gtx.Constraints.Max}
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			return layout.UniformInset(unit.Dp(10)).Layout(gtx, body)
		}),
	)
}

func (a *App) layoutStatus(gtx layout.Context, state StateSnapshot) layout.Dimensions {
	b := state.Bounds
	msg := fmt.Sprintf("%s   re [%.10g, %.10g]   im [%.10g, %.10g]   %s",
		state.Status, b.XMin, b.XMax, b.YMin, b.YMax, a.nav.Phase())
	if state.LastError != nil {
		msg += "   error: " + state.LastError.Error()
	} else if n := len(state.Logs); n > 0 {
		msg += "   " + state.Logs[n-1]
	}
	return layout.Inset{
		Top: unit.Dp(4), Bottom: unit.Dp(6), Left: unit.Dp(12), Right: unit.Dp(12),
	}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		lbl := material.Caption(a.Theme, msg)
		lbl.MaxLines = 1
		lbl.Alignment = text.Start
		return lbl.Layout(gtx)
	})
}
