// SPDX-License-Identifier: MIT
/*
Package analysis implements the spectral analysis pipeline:

	sample blocks -> framing -> windowing -> FFT -> frequency-scale
	remapping -> dB compression -> published spectrum -> resampling,
	temporal smoothing and peak tracking on the consumer side.

The producer side (FFTProcessor worker) and the consumer side
(SpectrumProcessor, PeakTracker) run in independent clock domains and
never block each other. The only shared mutable state is GainParams
(atomic fields) and the published *SpectralData (swap-only pointer).
*/
package analysis

import (
	"strings"
	"time"
)

// FreqScale selects the frequency-axis warping applied by the Converter.
type FreqScale int

// Supported frequency scales.
const (
	ScaleLinear FreqScale = iota
	ScaleLogarithmic
	ScaleMel
	ScaleBark
	ScaleERB
)

// String returns the scale name used in config files and logs.
func (s FreqScale) String() string {
	switch s {
	case ScaleLinear:
		return "linear"
	case ScaleLogarithmic:
		return "logarithmic"
	case ScaleMel:
		return "mel"
	case ScaleBark:
		return "bark"
	case ScaleERB:
		return "erb"
	default:
		return "unknown"
	}
}

// ParseFreqScale converts a string name (case-insensitive) to a FreqScale.
// Returns ScaleLinear and false if the name is unknown.
func ParseFreqScale(name string) (FreqScale, bool) {
	switch strings.ToLower(name) {
	case "linear":
		return ScaleLinear, true
	case "log", "logarithmic":
		return ScaleLogarithmic, true
	case "mel":
		return ScaleMel, true
	case "bark":
		return ScaleBark, true
	case "erb":
		return ScaleERB, true
	default:
		return ScaleLinear, false
	}
}

// SpectralData is one published analysis result. Instances are immutable
// once published: the coordinator never mutates a SpectralData after the
// pointer swap, so readers may hold onto one without copying.
type SpectralData struct {
	Magnitudes []float64 // normalized [0,1] band magnitudes
	Scale      FreqScale // frequency scale the bands are laid out on
	SampleRate int       // sample rate of the source frame (Hz)
	Timestamp  time.Time // publish time
}

// SpectrumSource is the pull interface exposed to render-side consumers.
// GetCurrentSpectrum must be non-blocking and safe from any goroutine.
type SpectrumSource interface {
	GetCurrentSpectrum() *SpectralData
}

// ComplexSpectrum carries the raw FFT output for one analysis frame.
// Bins holds the conjugate-symmetric half (frameLen/2 + 1 values); the
// frequency of bin i is i * SampleRate / frameLen.
type ComplexSpectrum struct {
	Bins       []complex128
	SampleRate int
}
