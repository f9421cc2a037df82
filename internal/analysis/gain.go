// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Default gain values applied when a pipeline is constructed without
// explicit configuration.
const (
	DefaultMinDb         = -130.0
	DefaultMaxDb         = -20.0
	DefaultAmplification = 2.0
)

// GainParams holds the dB range and amplification applied by the Converter.
// All three fields are read on every conversion and may be written from any
// goroutine (UI sliders, config reload) without external synchronization.
// Writes that would violate the minDb < maxDb or amplification >= 0
// invariants are rejected and the previous value is retained.
type GainParams struct {
	minDb         atomic.Uint64 // float64 bits
	maxDb         atomic.Uint64 // float64 bits
	amplification atomic.Uint64 // float64 bits
}

// NewGainParams creates gain parameters with the package defaults.
func NewGainParams() *GainParams {
	g := &GainParams{}
	g.minDb.Store(math.Float64bits(DefaultMinDb))
	g.maxDb.Store(math.Float64bits(DefaultMaxDb))
	g.amplification.Store(math.Float64bits(DefaultAmplification))
	return g
}

// MinDb returns the lower clamp of the dB range.
func (g *GainParams) MinDb() float64 {
	return math.Float64frombits(g.minDb.Load())
}

// MaxDb returns the upper clamp of the dB range.
func (g *GainParams) MaxDb() float64 {
	return math.Float64frombits(g.maxDb.Load())
}

// Amplification returns the multiplicative boost applied after normalization.
func (g *GainParams) Amplification() float64 {
	return math.Float64frombits(g.amplification.Load())
}

// SetMinDb updates the lower dB clamp. Rejected when the new value would not
// be strictly below the current MaxDb, or is not finite.
func (g *GainParams) SetMinDb(v float64) error {
	if !isFinite(v) || v >= g.MaxDb() {
		return fmt.Errorf("min dB %.2f must be finite and below max dB %.2f", v, g.MaxDb())
	}
	g.minDb.Store(math.Float64bits(v))
	return nil
}

// SetMaxDb updates the upper dB clamp. Rejected when the new value would not
// be strictly above the current MinDb, or is not finite.
func (g *GainParams) SetMaxDb(v float64) error {
	if !isFinite(v) || v <= g.MinDb() {
		return fmt.Errorf("max dB %.2f must be finite and above min dB %.2f", v, g.MinDb())
	}
	g.maxDb.Store(math.Float64bits(v))
	return nil
}

// SetRange updates both clamps together, validating the pair as a unit.
func (g *GainParams) SetRange(minDb, maxDb float64) error {
	if !isFinite(minDb) || !isFinite(maxDb) || minDb >= maxDb {
		return fmt.Errorf("invalid dB range [%.2f, %.2f]", minDb, maxDb)
	}
	g.minDb.Store(math.Float64bits(minDb))
	g.maxDb.Store(math.Float64bits(maxDb))
	return nil
}

// SetAmplification updates the post-normalization boost. Zero is valid and
// yields an all-zero spectrum; negative or non-finite values are rejected.
func (g *GainParams) SetAmplification(v float64) error {
	if !isFinite(v) || v < 0 {
		return fmt.Errorf("amplification %.2f must be finite and >= 0", v)
	}
	g.amplification.Store(math.Float64bits(v))
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
