package main

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func TestWindAlternatesEachPeriod(t *testing.T) {
	tests := []struct {
		t    float64
		want float64
	}{
		{0, 5}, {3.99, 5}, {4, 0}, {7.5, 0}, {8, 5},
	}
	for _, tt := range tests {
		if got := windAt(tt.t, 4, 5).Z(); got != tt.want {
			t.Errorf("windAt(%g) = %g, want %g", tt.t, got, tt.want)
		}
	}
}

func TestHeightGridIsUpright(t *testing.T) {
	pos := [][]mgl64.Vec3{
		{{0, 2, 0}, {1, 2, 0}},
		{{0, 1, 0}, {1, 1, 0}},
		{{0, 0, 0}, {1, 0.5, 0}},
	}
	h := heightGrid(pos)
	if r, c := h.Dims(); r != 3 || c != 2 {
		t.Fatalf("dims %dx%d, want 3x2", r, c)
	}
	if h.At(0, 1) != 0.5 || h.At(2, 0) != 2 {
		t.Fatalf("bottom row %v, top row %v", h.RawRowView(0), h.RawRowView(2))
	}
}

func TestSettingsValidate(t *testing.T) {
	ok := settings{seconds: 1, dt: 0.01, gustPeriod: 4}
	if err := ok.validate(); err != nil {
		t.Fatalf("valid settings rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*settings)
	}{
		{"zero dt", func(s *settings) { s.dt = 0 }},
		{"negative seconds", func(s *settings) { s.seconds = -1 }},
		{"zero gust period", func(s *settings) { s.gustPeriod = 0 }},
		{"negative gust period", func(s *settings) { s.gustPeriod = -4 }},
		{"NaN gust period", func(s *settings) { s.gustPeriod = math.NaN() }},
		{"negative ball", func(s *settings) { s.ballRadius = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := ok
			tt.mutate(&s)
			if err := s.validate(); err == nil {
				t.Fatalf("settings %+v accepted", s)
			}
		})
	}
}
