// SPDX-License-Identifier: MIT
package bitint

import "testing"

func TestNextPowerOfTwo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    int
		expected int
	}{
		{-8, 1},
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{1024, 1024},
		{2047, 2048},
		{2049, 4096},
	}
	for _, tt := range tests {
		if got := NextPowerOfTwo(tt.input); got != tt.expected {
			t.Errorf("NextPowerOfTwo(%d) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}

func TestIsPowerOfTwo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		input    int
		expected bool
	}{
		{-8, false},
		{0, false},
		{1, true},
		{2, true},
		{3, false},
		{1024, true},
		{1025, false},
	}
	for _, tt := range tests {
		if got := IsPowerOfTwo(tt.input); got != tt.expected {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", tt.input, got, tt.expected)
		}
	}
}

func TestNextPowerOfTwoIsAlwaysPower(t *testing.T) {
	t.Parallel()
	for n := -4; n < 5000; n++ {
		p := NextPowerOfTwo(n)
		if !IsPowerOfTwo(p) {
			t.Fatalf("NextPowerOfTwo(%d) = %d is not a power of two", n, p)
		}
		if n > 0 && p < n {
			t.Fatalf("NextPowerOfTwo(%d) = %d is below input", n, p)
		}
	}
}
