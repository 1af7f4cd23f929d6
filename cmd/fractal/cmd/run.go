package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenFractal/pkg/fractal"
	"github.com/OpenTraceLab/OpenFractal/pkg/navigator"
	"github.com/OpenTraceLab/OpenFractal/pkg/script"
)

var runCmd = &cobra.Command{
	Use:   "run <script.fnav>",
	Short: "Replay a navigation script",
	Long: `Run a navigation script headless.

A script is a sequence of commands, one per line or separated by ';':

  resize 800 600
  select 100 100 200 150    # x y dx dy in pixels
  pan 40 -20
  zoom 400 300 2
  click 320 240
  undo
  redo
  reset
  export "zoomed.png"

Relative export paths are resolved against the script's directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runScript(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	pal, err := fractal.PaletteByName(cfg.Palette)
	if err != nil {
		return err
	}

	parser, err := script.NewParser()
	if err != nil {
		return err
	}
	s, err := parser.ParseFile(args[0])
	if err != nil {
		return err
	}

	r := &fractal.Renderer{MaxIter: cfg.MaxIter, Palette: pal, Workers: cfg.Workers}
	nav := navigator.New(r, float64(cfg.Width), float64(cfg.Height),
		navigator.WithHistoryCapacity(cfg.History),
		navigator.WithPanHistory(cfg.PanHistory),
	)
	defer nav.Close()

	out := cmd.OutOrStdout()
	runner := &script.Runner{
		Target:  nav,
		BaseDir: filepath.Dir(args[0]),
		OnPoint: func(z complex128) {
			fmt.Fprintf(out, "Point: %g%+gi\n", real(z), imag(z))
		},
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := runner.Run(ctx, s); err != nil {
		return err
	}
	b := nav.Bounds()
	fmt.Fprintf(out, "Bounds: x=[%g, %g] y=[%g, %g]\n", b.XMin, b.XMax, b.YMin, b.YMax)
	return nil
}
