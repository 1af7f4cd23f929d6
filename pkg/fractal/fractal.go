// Package fractal is the default escape-time renderer for the plane viewer.
package fractal

import (
	"context"
	"fmt"
	"image"
	"math"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
	"github.com/OpenTraceLab/OpenFractal/pkg/render"
)

// Kind selects the iterated set.
type Kind int

const (
	// Mandelbrot iterates z = z² + p from z = 0 for each plane point p.
	Mandelbrot Kind = iota
	// Julia iterates z = z² + C from z = p.
	Julia
)

func (k Kind) String() string {
	switch k {
	case Mandelbrot:
		return "mandelbrot"
	case Julia:
		return "julia"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "mandelbrot" or "julia", case-insensitively.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "mandelbrot", "":
		return Mandelbrot, nil
	case "julia":
		return Julia, nil
	}
	return 0, fmt.Errorf("fractal: unknown kind %q", s)
}

const (
	// DefaultMaxIter is the iteration limit when MaxIter is not set.
	DefaultMaxIter = 256

	// bandRows is the number of rows one goroutine renders at a time.
	bandRows = 16

	// bailout is the squared escape radius. A large radius keeps the smooth
	// iteration count continuous.
	bailout = 1 << 16

	// cycle is the number of iterations covered by one pass of the palette.
	cycle = 64.0
)

// Renderer draws Mandelbrot or Julia sets. The zero value renders the
// Mandelbrot set with the classic palette on GOMAXPROCS goroutines.
type Renderer struct {
	Kind    Kind
	C       complex128 // Julia parameter
	MaxIter int
	Palette *Palette
	Workers int
}

var _ render.Renderer = (*Renderer)(nil)

// Render fills dst with the view. Rows are split into bands that render
// concurrently; each band checks ctx before every row.
func (r *Renderer) Render(ctx context.Context, view plane.View, dst *image.RGBA) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	conv, err := view.Converter()
	if err != nil {
		return err
	}

	maxIter := r.MaxIter
	if maxIter <= 0 {
		maxIter = DefaultMaxIter
	}
	pal := r.Palette
	if pal == nil {
		pal = palettes[DefaultPalette]
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	rect := dst.Bounds()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for y0 := rect.Min.Y; y0 < rect.Max.Y; y0 += bandRows {
		y1 := min(y0+bandRows, rect.Max.Y)
		g.Go(func() error {
			for y := y0; y < y1; y++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				r.renderRow(dst, conv, y, maxIter, pal)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	render.Logger().Debug("fractal: rendered", "kind", r.Kind, "width", rect.Dx(), "height", rect.Dy(), "max_iter", maxIter)
	return nil
}

func (r *Renderer) renderRow(dst *image.RGBA, conv plane.Converter, y, maxIter int, pal *Palette) {
	rect := dst.Bounds()
	py := float64(y - rect.Min.Y)
	off := dst.PixOffset(rect.Min.X, y)
	for x := rect.Min.X; x < rect.Max.X; x++ {
		p := conv.Plane(float64(x-rect.Min.X), py)
		c := Inside
		if mu, escaped := r.Escape(p, maxIter); escaped {
			c = pal.At(mu / cycle)
		}
		dst.Pix[off+0] = c.R
		dst.Pix[off+1] = c.G
		dst.Pix[off+2] = c.B
		dst.Pix[off+3] = c.A
		off += 4
	}
}

// Escape iterates the point p and returns the smooth iteration count at
// which it escaped. The second result is false for points still bounded
// after maxIter iterations.
func (r *Renderer) Escape(p complex128, maxIter int) (float64, bool) {
	var z, c complex128
	switch r.Kind {
	case Julia:
		z, c = p, r.C
	default:
		if inMainBulbs(p) {
			return 0, false
		}
		z, c = 0, p
	}

	for i := 0; i < maxIter; i++ {
		zr, zi := real(z), imag(z)
		m := zr*zr + zi*zi
		if m > bailout {
			logZn := math.Log(m) / 2
			nu := math.Log2(logZn / math.Ln2)
			return float64(i) + 1 - nu, true
		}
		z = complex(zr*zr-zi*zi+real(c), 2*zr*zi+imag(c))
	}
	return 0, false
}

// inMainBulbs reports whether p lies in the main cardioid or the period-2
// bulb, which never escape.
func inMainBulbs(p complex128) bool {
	x, y := real(p), imag(p)
	q := (x-0.25)*(x-0.25) + y*y
	if q*(q+(x-0.25)) <= 0.25*y*y {
		return true
	}
	return (x+1)*(x+1)+y*y <= 1.0/16
}
