// SPDX-License-Identifier: MIT
package audio

import "math"

func (e *Engine) EnableGate() {
	e.gateEnabled = true
}

func (e *Engine) DisableGate() {
	e.gateEnabled = false
}

// SetGateThreshold adjusts the amplitude gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) SetGateThreshold(threshold float64) {
	if threshold < 0.0 {
		threshold = 0.0
	}
	if threshold > 1.0 {
		threshold = 1.0
	}

	e.gateThreshold = threshold
}

// GateThreshold returns the current amplitude gate threshold.
// The value is in the range of 0.0-1.0 where 0=always open, 1=always closed.
func (e *Engine) GateThreshold() float64 {
	return e.gateThreshold
}

// bufferAboveGate reports whether the buffer's peak amplitude exceeds the
// gate threshold.
func (e *Engine) bufferAboveGate(buffer []float32) bool {
	var maxAmplitude float64
	for i := range buffer {
		amplitude := math.Abs(float64(buffer[i]))
		if amplitude > maxAmplitude {
			maxAmplitude = amplitude
		}
	}
	return maxAmplitude > e.gateThreshold
}
