// Package ui is the Gio viewer for navigating the plane.
package ui

import (
	"log/slog"
	"os"

	"gioui.org/app"
	"gioui.org/unit"

	"github.com/OpenTraceLab/OpenFractal/internal/config"
)

// Run launches the Gio UI and blocks until the window closes. Settings changed
// in the viewer are saved to configPath, or to config.Path when it is empty.
func Run(cfg *config.Config, configPath string) error {
	if cfg == nil {
		cfg = config.Default()
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title("OpenFractal"), app.Size(unit.Dp(float32(cfg.Width)), unit.Dp(float32(cfg.Height))))
		ui, err := New(w, cfg, nil)
		if err != nil {
			slog.Error("ui: setup failed", "error", err)
			os.Exit(1)
		}
		ui.ConfigPath = configPath
		if err := ui.Run(); err != nil {
			slog.Error("ui: window closed with error", "error", err)
		}
		os.Exit(0)
	}()

	app.Main()
	return nil
}
