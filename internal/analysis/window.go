// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"strings"
	"sync"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowType selects the tapering function applied to a frame before the FFT.
type WindowType int

// Available window functions.
const (
	Bartlett WindowType = iota
	Blackman
	Hann
	Hamming
	Kaiser
)

// DefaultKaiserBeta is the shape parameter used for the Kaiser window
// when the caller does not configure one. Beta 8.6 approximates a
// Blackman-Harris main lobe.
const DefaultKaiserBeta = 8.6

// String returns the window name used in config files and logs.
func (w WindowType) String() string {
	switch w {
	case Bartlett:
		return "bartlett"
	case Blackman:
		return "blackman"
	case Hann:
		return "hann"
	case Hamming:
		return "hamming"
	case Kaiser:
		return "kaiser"
	default:
		return "unknown"
	}
}

// ParseWindowType converts a string name (case-insensitive) to a WindowType
// enum, returns a known default (Hann) and an error if the name is unknown.
func ParseWindowType(name string) (WindowType, error) {
	switch strings.ToLower(name) {
	case "bartlett":
		return Bartlett, nil
	case "blackman":
		return Blackman, nil
	case "hann", "hanning":
		return Hann, nil
	case "hamming":
		return Hamming, nil
	case "kaiser":
		return Kaiser, nil
	default:
		return Hann, fmt.Errorf("unknown window function name: '%s'", name)
	}
}

// windowKey identifies one memoized coefficient table.
type windowKey struct {
	typ  WindowType
	size int
	beta float64 // only meaningful for Kaiser, zero otherwise
}

// windowCache memoizes coefficient tables per (type, size, beta). Tables are
// immutable after computation; callers must not write into a returned slice.
type windowCache struct {
	mu     sync.Mutex
	tables map[windowKey][]float64
}

func newWindowCache() *windowCache {
	return &windowCache{tables: make(map[windowKey][]float64)}
}

// Coefficients returns the coefficient table for the given window type and
// frame size, computing and caching it on first use.
func (c *windowCache) Coefficients(typ WindowType, size int, beta float64) []float64 {
	if typ != Kaiser {
		beta = 0
	} else if beta <= 0 {
		beta = DefaultKaiserBeta
	}
	key := windowKey{typ: typ, size: size, beta: beta}

	c.mu.Lock()
	defer c.mu.Unlock()

	if coeffs, ok := c.tables[key]; ok {
		return coeffs
	}

	coeffs := make([]float64, size)
	computeWindow(coeffs, typ, beta)
	c.tables[key] = coeffs
	return coeffs
}

// computeWindow fills coeffs with the window coefficients. The gonum window
// functions multiply in place, so the slice is seeded with ones first.
func computeWindow(coeffs []float64, typ WindowType, beta float64) {
	for i := range coeffs {
		coeffs[i] = 1.0
	}
	switch typ {
	case Bartlett:
		window.Triangular(coeffs)
	case Blackman:
		window.Blackman(coeffs)
	case Hann:
		window.Hann(coeffs)
	case Hamming:
		window.Hamming(coeffs)
	case Kaiser:
		kaiser(coeffs, beta)
	default:
		window.Hann(coeffs)
	}
}

// kaiser fills coeffs with a Kaiser window of the given beta. gonum's
// dsp/window package does not ship a Kaiser window, so it is computed
// directly: w[n] = I0(beta*sqrt(1-(2n/(N-1)-1)^2)) / I0(beta).
func kaiser(coeffs []float64, beta float64) {
	n := len(coeffs)
	if n == 1 {
		coeffs[0] = 1.0
		return
	}
	denom := besselI0(beta)
	for i := range coeffs {
		x := 2.0*float64(i)/float64(n-1) - 1.0
		coeffs[i] = besselI0(beta*math.Sqrt(1.0-x*x)) / denom
	}
}

// besselI0 evaluates the zeroth-order modified Bessel function of the first
// kind via its power series. Converges quickly for the beta range used here.
func besselI0(x float64) float64 {
	sum := 1.0
	term := 1.0
	half := x / 2.0
	for k := 1; k < 32; k++ {
		term *= (half / float64(k)) * (half / float64(k))
		sum += term
		if term < sum*1e-16 {
			break
		}
	}
	return sum
}
