package cmd

import (
	"testing"

	"github.com/OpenTraceLab/OpenFractal/pkg/plane"
)

func TestParseBounds(t *testing.T) {
	tests := []struct {
		in      string
		want    plane.Bounds
		wantErr bool
	}{
		{in: "-2,1,-1,1", want: plane.Bounds{XMin: -2, XMax: 1, YMin: -1, YMax: 1}},
		{in: " -0.75 , -0.74 , 0.1 , 0.11 ", want: plane.Bounds{XMin: -0.75, XMax: -0.74, YMin: 0.1, YMax: 0.11}},
		{in: "-2,1,-1", wantErr: true},
		{in: "a,1,-1,1", wantErr: true},
		{in: "1,-2,-1,1", wantErr: true},
		{in: "0,0,-1,1", wantErr: true},
		{in: "-1e308,1e308,-1,1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseBounds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseBounds(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseBounds(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		w, h    int
		wantErr bool
	}{
		{in: "800x600", w: 800, h: 600},
		{in: "64X48", w: 64, h: 48},
		{in: "800", wantErr: true},
		{in: "0x600", wantErr: true},
		{in: "800x-1", wantErr: true},
		{in: "axb", wantErr: true},
		{in: "16384x16384", w: 16384, h: 16384},
		{in: "100000x100000", wantErr: true},
		{in: "800x16385", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			w, h, err := parseSize(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseSize(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && (w != tt.w || h != tt.h) {
				t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.in, w, h, tt.w, tt.h)
			}
		})
	}
}

func TestParseComplex(t *testing.T) {
	c, err := parseComplex("-0.8,0.156")
	if err != nil {
		t.Fatalf("parseComplex: %v", err)
	}
	if c != complex(-0.8, 0.156) {
		t.Errorf("parseComplex = %v", c)
	}
	if _, err := parseComplex("1"); err == nil {
		t.Error("expected error for a single value")
	}
}
