package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

// parseBounds reads "xmin,xmax,ymin,ymax".
func parseBounds(s string) (plane.Bounds, error) {
	vals, err := parseFloats(s, 4)
	if err != nil {
		return plane.Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, err)
	}
	b := plane.Bounds{XMin: vals[0], XMax: vals[1], YMin: vals[2], YMax: vals[3]}
	if !b.Valid() {
		return plane.Bounds{}, fmt.Errorf("invalid bounds %q: %w", s, plane.ErrDegenerate)
	}
	return b, nil
}

// parseSize reads "WIDTHxHEIGHT".
func parseSize(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must be positive", s)
	}
	if width > plane.MaxPixels || height > plane.MaxPixels {
		return 0, 0, fmt.Errorf("invalid size %q: dimensions must not exceed %d", s, int(plane.MaxPixels))
	}
	return width, height, nil
}

// parseComplex reads "re,im".
func parseComplex(s string) (complex128, error) {
	vals, err := parseFloats(s, 2)
	if err != nil {
		return 0, fmt.Errorf("invalid point %q: %w", s, err)
	}
	return complex(vals[0], vals[1]), nil
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("want %d comma-separated values, got %d", n, len(parts))
	}
	vals := make([]float64, n)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
