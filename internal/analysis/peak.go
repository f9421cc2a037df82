// SPDX-License-Identifier: MIT
package analysis

// Default peak behavior: hold for just over a second, then sweep to the
// floor in about two-thirds of a second at full deflection.
const (
	DefaultPeakHold      = 1.1 // seconds a risen peak holds before decaying
	DefaultPeakFallSpeed = 1.5 // normalized units per second once falling
)

// peakState is one bar's transient maximum.
type peakState struct {
	value float64
	hold  float64 // remaining hold time in seconds
}

// PeakTracker tracks per-bar decaying peaks independently of the smoothed
// spectrum. A peak rises instantly to any value exceeding it, holds for the
// configured time, then decays linearly at the fall speed and floors at
// zero. Single-owner state, same policy as SpectrumProcessor.
type PeakTracker struct {
	holdTime  float64
	fallSpeed float64
	peaks     []peakState
}

// NewPeakTracker creates a tracker; non-positive arguments fall back to the
// package defaults.
func NewPeakTracker(holdTime, fallSpeed float64) *PeakTracker {
	if holdTime <= 0 {
		holdTime = DefaultPeakHold
	}
	if fallSpeed <= 0 {
		fallSpeed = DefaultPeakFallSpeed
	}
	return &PeakTracker{holdTime: holdTime, fallSpeed: fallSpeed}
}

// Update advances the peak at index by deltaTime seconds against value.
// A value above the current peak raises it and restarts the hold
// timer; otherwise the hold timer burns down first and only then does the
// peak decay. Indexes grow the state on demand.
func (t *PeakTracker) Update(index int, value, deltaTime float64) {
	if index < 0 {
		return
	}
	t.grow(index + 1)

	p := &t.peaks[index]
	if value > p.value {
		p.value = value
		p.hold = t.holdTime
		return
	}

	if p.hold > 0 {
		p.hold -= deltaTime
		if p.hold > 0 {
			return
		}
		// Spillover of deltaTime past the hold boundary decays immediately.
		deltaTime = -p.hold
		p.hold = 0
	}

	p.value -= t.fallSpeed * deltaTime
	if p.value < value {
		p.value = value
	}
	if p.value < 0 {
		p.value = 0
	}
}

// GetPeak returns the current peak for index, zero for any index never
// updated.
func (t *PeakTracker) GetPeak(index int) float64 {
	if index < 0 || index >= len(t.peaks) {
		return 0
	}
	return t.peaks[index].value
}

// HasActivePeaks reports whether any bar is still holding or above zero.
// Callers use it to keep rendering after the input spectrum goes static.
func (t *PeakTracker) HasActivePeaks() bool {
	for i := range t.peaks {
		if t.peaks[i].hold > 0 || t.peaks[i].value > 0 {
			return true
		}
	}
	return false
}

// Reset clears all peaks and hold timers.
func (t *PeakTracker) Reset() {
	for i := range t.peaks {
		t.peaks[i] = peakState{}
	}
}

// grow widens the state to at least n bars, preserving existing peaks.
func (t *PeakTracker) grow(n int) {
	if n <= len(t.peaks) {
		return
	}
	if cap(t.peaks) >= n {
		t.peaks = t.peaks[:n]
		return
	}
	peaks := make([]peakState, n, n*2)
	copy(peaks, t.peaks)
	t.peaks = peaks
}
