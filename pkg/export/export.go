// Package export renders a view at full resolution and writes it to disk.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

// ErrUnsupportedFormat is returned for file extensions with no encoder.
var ErrUnsupportedFormat = errors.New("export: unsupported image format")

// Format is an output image encoding.
type Format int

const (
	FormatPNG Format = iota
	FormatBMP
	FormatTIFF
)

func (f Format) String() string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	case ".tif", ".tiff":
		return FormatTIFF, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	}
	return fmt.Errorf("%w: %v", ErrUnsupportedFormat, f)
}

// Exporter renders views with Renderer and saves them.
type Exporter struct {
	Renderer render.Renderer
}

// New returns an exporter for r.
func New(r render.Renderer) *Exporter {
	return &Exporter{Renderer: r}
}

// Export renders view synchronously and writes it to path. The format is
// chosen by extension. A partially written file is removed on failure.
func (e *Exporter) Export(ctx context.Context, view plane.View, path string) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	img, err := render.RenderNow(ctx, e.Renderer, view)
	if err != nil {
		return fmt.Errorf("export: render %s: %w", path, err)
	}
	if err := WriteFile(path, img, format); err != nil {
		return err
	}
	render.Logger().Info("exported image", "path", path, "format", format, "bounds", view.Bounds)
	return nil
}

// WriteFile encodes img into a new file at path.
func WriteFile(path string, img image.Image, format Format) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: create %s: %w", path, err)
	}
	if err := Encode(f, img, format); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("export: encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("export: close %s: %w", path, err)
	}
	return nil
}
