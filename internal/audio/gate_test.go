// SPDX-License-Identifier: MIT
package audio

import (
	"math"
	"testing"
)

func TestGateEnableHotPath(t *testing.T) {
	engine := &Engine{
		gateEnabled:   false,
		gateThreshold: 0.001,
	}

	if engine.gateEnabled {
		t.Error("Gate should be disabled initially")
	}

	engine.EnableGate()
	if !engine.gateEnabled {
		t.Error("Gate should be enabled after EnableGate()")
	}

	engine.DisableGate()
	if engine.gateEnabled {
		t.Error("Gate should be disabled after DisableGate()")
	}

	engine.EnableGate()
	engine.EnableGate() // Multiple calls should be idempotent
	if !engine.gateEnabled {
		t.Error("Gate should remain enabled after multiple EnableGate()")
	}

	engine.DisableGate()
	engine.DisableGate() // Multiple calls should be idempotent
	if engine.gateEnabled {
		t.Error("Gate should remain disabled after multiple DisableGate()")
	}
}

func TestGateThresholdBoundaries(t *testing.T) {
	tests := []struct {
		input    float64
		expected float64
	}{
		{-0.1, 0.0}, // Below min
		{0.0, 0.0},  // Minimum
		{0.5, 0.5},  // Middle
		{1.0, 1.0},  // Maximum
		{1.1, 1.0},  // Above max
	}

	engine := &Engine{}
	for _, tt := range tests {
		engine.SetGateThreshold(tt.input)
		if got := engine.GateThreshold(); math.Abs(got-tt.expected) > 1e-12 {
			t.Errorf("SetGateThreshold(%f): got %f, want %f", tt.input, got, tt.expected)
		}
	}
}

// TestGateOpensOnLoudBuffer checks the amplitude scan against the threshold
// in both directions.
func TestGateOpensOnLoudBuffer(t *testing.T) {
	cfg := testConfig()
	cfg.Audio.Channels = 1
	cfg.Audio.GateThreshold = 0.2
	engine := bareEngine(cfg, nil)

	quiet := make([]float32, testFrameSize)
	loud := make([]float32, testFrameSize)
	for i := range quiet {
		quiet[i] = 0.05
		loud[i] = -0.5 // negative peaks must open the gate too
	}

	if engine.bufferAboveGate(quiet) {
		t.Error("Quiet buffer should stay below the gate")
	}
	if !engine.bufferAboveGate(loud) {
		t.Error("Loud buffer should open the gate")
	}
}
