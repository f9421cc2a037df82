// SPDX-License-Identifier: MIT
package analysis

import (
	"math"
	"testing"
)

func TestParseWindowType(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		expected WindowType
		ok       bool
	}{
		{"hann", Hann, true},
		{"Hanning", Hann, true},
		{"HAMMING", Hamming, true},
		{"blackman", Blackman, true},
		{"bartlett", Bartlett, true},
		{"kaiser", Kaiser, true},
		{"welch", Hann, false},
	}
	for _, tt := range tests {
		got, err := ParseWindowType(tt.name)
		if got != tt.expected {
			t.Errorf("ParseWindowType(%q) = %v, want %v", tt.name, got, tt.expected)
		}
		if tt.ok && err != nil {
			t.Errorf("ParseWindowType(%q) unexpected error: %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("ParseWindowType(%q) expected error", tt.name)
		}
	}
}

func TestWindowCacheMemoizes(t *testing.T) {
	t.Parallel()
	c := newWindowCache()

	a := c.Coefficients(Hann, 1024, 0)
	b := c.Coefficients(Hann, 1024, 0)
	if &a[0] != &b[0] {
		t.Error("expected identical cached slice for same key")
	}

	d := c.Coefficients(Hamming, 1024, 0)
	if &a[0] == &d[0] {
		t.Error("expected distinct tables for distinct window types")
	}
	e := c.Coefficients(Hann, 512, 0)
	if len(e) != 512 {
		t.Errorf("expected 512 coefficients, got %d", len(e))
	}
}

func TestHannShape(t *testing.T) {
	t.Parallel()
	c := newWindowCache()
	coeffs := c.Coefficients(Hann, 1024, 0)

	if coeffs[0] > 1e-9 || coeffs[len(coeffs)-1] > 1e-9 {
		t.Errorf("Hann endpoints should be ~0, got %g and %g", coeffs[0], coeffs[len(coeffs)-1])
	}
	mid := coeffs[len(coeffs)/2]
	if mid < 0.99 {
		t.Errorf("Hann center should be ~1, got %f", mid)
	}
}

func TestKaiserShape(t *testing.T) {
	t.Parallel()
	c := newWindowCache()
	coeffs := c.Coefficients(Kaiser, 512, DefaultKaiserBeta)

	// Symmetric about the center.
	for i := 0; i < len(coeffs)/2; i++ {
		j := len(coeffs) - 1 - i
		if math.Abs(coeffs[i]-coeffs[j]) > 1e-12 {
			t.Fatalf("Kaiser not symmetric at %d/%d: %g vs %g", i, j, coeffs[i], coeffs[j])
		}
	}

	// Endpoints equal 1/I0(beta), center near 1.
	want := 1.0 / besselI0(DefaultKaiserBeta)
	if math.Abs(coeffs[0]-want) > 1e-9 {
		t.Errorf("Kaiser endpoint = %g, want %g", coeffs[0], want)
	}
	peak := 0.0
	for _, v := range coeffs {
		if v > peak {
			peak = v
		}
	}
	if peak < 0.999 || peak > 1.0+1e-9 {
		t.Errorf("Kaiser peak = %f, want ~1", peak)
	}
}

func TestBesselI0(t *testing.T) {
	t.Parallel()
	// Reference values from Abramowitz & Stegun.
	tests := []struct {
		x        float64
		expected float64
	}{
		{0, 1.0},
		{1, 1.2660658777520084},
		{2, 2.2795853023360673},
		{5, 27.239871823604442},
	}
	for _, tt := range tests {
		if got := besselI0(tt.x); math.Abs(got-tt.expected) > 1e-9*tt.expected {
			t.Errorf("besselI0(%f) = %.12f, want %.12f", tt.x, got, tt.expected)
		}
	}
}
