package fractal

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

func renderView(t *testing.T, r *Renderer, view plane.View) *image.RGBA {
	t.Helper()
	w, h := view.Pixels()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	if err := r.Render(context.Background(), view, img); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return img
}

func TestMandelbrotInsideAndOutside(t *testing.T) {
	view := plane.View{Bounds: plane.DefaultBounds(), Width: 60, Height: 40}
	img := renderView(t, &Renderer{}, view)

	// Pixel (35, 20) maps to (-0.25, 0), inside the main cardioid.
	if got := img.RGBAAt(35, 20); got != Inside {
		t.Fatalf("cardioid pixel = %v, want %v", got, Inside)
	}
	// Pixel (0, 0) maps to (-2, 1), which escapes immediately.
	if got := img.RGBAAt(0, 0); got == Inside || got.A != 255 {
		t.Fatalf("corner pixel = %v, want an opaque escape color", got)
	}
}

func TestJuliaUnitDisk(t *testing.T) {
	view := plane.View{
		Bounds: plane.Bounds{XMin: -2, XMax: 2, YMin: -2, YMax: 2},
		Width:  40,
		Height: 40,
	}
	img := renderView(t, &Renderer{Kind: Julia, C: 0}, view)

	if got := img.RGBAAt(20, 20); got != Inside {
		t.Fatalf("origin = %v, want inside", got)
	}
	if got := img.RGBAAt(35, 20); got == Inside {
		t.Fatal("(1.5, 0) should escape for c = 0")
	}
}

func TestWorkerCountDoesNotChangeOutput(t *testing.T) {
	view := plane.View{
		Bounds: plane.Bounds{XMin: -0.8, XMax: -0.7, YMin: 0.05, YMax: 0.15},
		Width:  64,
		Height: 50,
	}
	one := renderView(t, &Renderer{Workers: 1, MaxIter: 300}, view)
	many := renderView(t, &Renderer{Workers: 8, MaxIter: 300}, view)
	if !bytes.Equal(one.Pix, many.Pix) {
		t.Fatal("parallel render differs from serial render")
	}
}

func TestRenderHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	view := plane.View{Bounds: plane.DefaultBounds(), Width: 30, Height: 20}
	img := image.NewRGBA(image.Rect(0, 0, 30, 20))
	err := (&Renderer{}).Render(ctx, view, img)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestRenderRejectsDegenerateView(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	err := (&Renderer{}).Render(context.Background(), plane.View{Bounds: plane.DefaultBounds()}, img)
	if !errors.Is(err, plane.ErrDegenerate) {
		t.Fatalf("err = %v, want ErrDegenerate", err)
	}
}

func TestEscape(t *testing.T) {
	r := &Renderer{}
	tests := []struct {
		name    string
		p       complex128
		escaped bool
	}{
		{"origin", 0, false},
		{"period-2 bulb", complex(-1, 0), false},
		{"far right", complex(2, 0), true},
		{"above set", complex(0, 1.5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, escaped := r.Escape(tt.p, DefaultMaxIter)
			if escaped != tt.escaped {
				t.Fatalf("Escape(%v) escaped = %v, want %v", tt.p, escaped, tt.escaped)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"mandelbrot": Mandelbrot, "Julia": Julia, "": Mandelbrot} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Fatalf("ParseKind(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseKind("newton"); err == nil {
		t.Fatal("unknown kind accepted")
	}
}
