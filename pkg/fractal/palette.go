package fractal

import (
	"fmt"
	"image/color"
	"math"
	"slices"
)

// Inside is the color of points that never escape.
var Inside = color.RGBA{A: 255}

// Palette maps a smooth escape value onto a color. Stops are spaced evenly
// and the gradient wraps around, so At accepts any non-negative t.
type Palette struct {
	Name  string
	stops []color.RGBA
}

// NewPalette builds a cyclic gradient through stops. At least two stops are
// required.
func NewPalette(name string, stops ...color.RGBA) (*Palette, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("fractal: palette %q needs at least two stops", name)
	}
	return &Palette{Name: name, stops: slices.Clone(stops)}, nil
}

// At returns the color at t. Only the fractional part of t is used.
func (p *Palette) At(t float64) color.RGBA {
	if math.IsNaN(t) || math.IsInf(t, 0) {
		return p.stops[0]
	}
	t -= math.Floor(t)
	pos := t * float64(len(p.stops))
	i := int(pos)
	if i >= len(p.stops) {
		i = len(p.stops) - 1
	}
	f := pos - float64(i)
	a := p.stops[i]
	b := p.stops[(i+1)%len(p.stops)]
	return color.RGBA{
		R: lerp(a.R, b.R, f),
		G: lerp(a.G, b.G, f),
		B: lerp(a.B, b.B, f),
		A: 255,
	}
}

func lerp(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

// DefaultPalette is used when a renderer has no palette set.
const DefaultPalette = "classic"

var palettes = map[string]*Palette{
	"classic": mustPalette("classic",
		color.RGBA{0, 7, 100, 255},
		color.RGBA{32, 107, 203, 255},
		color.RGBA{237, 255, 255, 255},
		color.RGBA{255, 170, 0, 255},
		color.RGBA{0, 2, 0, 255},
	),
	"fire": mustPalette("fire",
		color.RGBA{32, 0, 0, 255},
		color.RGBA{180, 20, 0, 255},
		color.RGBA{255, 140, 0, 255},
		color.RGBA{255, 240, 120, 255},
	),
	"ocean": mustPalette("ocean",
		color.RGBA{0, 16, 48, 255},
		color.RGBA{0, 90, 140, 255},
		color.RGBA{60, 200, 210, 255},
		color.RGBA{230, 250, 255, 255},
	),
	"gray": mustPalette("gray",
		color.RGBA{16, 16, 16, 255},
		color.RGBA{240, 240, 240, 255},
	),
}

func mustPalette(name string, stops ...color.RGBA) *Palette {
	p, err := NewPalette(name, stops...)
	if err != nil {
		panic(err)
	}
	return p
}

// PaletteByName looks up one of the built-in palettes.
func PaletteByName(name string) (*Palette, error) {
	p, ok := palettes[name]
	if !ok {
		return nil, fmt.Errorf("fractal: unknown palette %q (have %v)", name, PaletteNames())
	}
	return p, nil
}

// PaletteNames lists the built-in palettes in sorted order.
func PaletteNames() []string {
	names := make([]string, 0, len(palettes))
	for name := range palettes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
