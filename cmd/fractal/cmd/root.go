package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenFractal/internal/config"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

var (
	// Global flags
	verbose    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "fractal",
	Short: "OpenFractal - explore the Mandelbrot set",
	Long: `OpenFractal renders the Mandelbrot set and lets you navigate it with
drag-to-zoom, panning, wheel zoom and undo/redo.

Examples:
  fractal view                                      # Launch interactive viewer
  fractal render -o out.png --size 1920x1080        # Render the home view
  fractal render -o deep.tiff --bounds -0.75,-0.74,0.1,0.11
  fractal run tour.fnav                             # Replay a navigation script
  fractal config                                    # Show effective settings`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging(cmd)
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default is the user config directory)")
}

// setupLogging installs a text logger on stderr. Library logging stays off
// unless --verbose is given.
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	if verbose {
		render.SetLogger(logger)
	} else {
		render.SetLogger(nil)
	}
}

// loadConfig reads --config, or the default path when it is not set.
func loadConfig() (*config.Config, string, error) {
	path := configPath
	if path == "" {
		p, err := config.Path()
		if err != nil {
			return nil, "", err
		}
		path = p
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
