package cmd

import (
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenFractal/internal/ui"
)

var (
	viewPalette    string
	viewPanHistory bool
)

var viewCmd = &cobra.Command{
	Use:   "view",
	Short: "Launch the interactive viewer",
	Long: `Open a window on the Mandelbrot set.

Drag with the left button to zoom into a region, click to preview the Julia
set for that point, drag with the right or middle button to pan and scroll
to zoom around the cursor. Ctrl+Z and Ctrl+Y undo and redo, H returns home
and Ctrl+S exports the current view.`,
	Args: cobra.NoArgs,
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	viewCmd.Flags().StringVar(&viewPalette, "palette", "", "color palette (overrides config)")
	viewCmd.Flags().BoolVar(&viewPanHistory, "pan-history", false, "record pan and wheel gestures in undo history")
}

func runView(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if viewPalette != "" {
		cfg.Palette = viewPalette
	}
	if cmd.Flags().Changed("pan-history") {
		cfg.PanHistory = viewPanHistory
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	return ui.Run(cfg, path)
}
