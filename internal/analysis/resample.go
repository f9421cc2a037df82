// SPDX-License-Identifier: MIT
package analysis

// DefaultSmoothingFactor balances responsiveness against flicker for a
// 60 Hz consumer pulling a ~40 Hz producer.
const DefaultSmoothingFactor = 0.35

// SpectrumProcessor adapts a published spectrum to a caller-chosen bar
// count and applies exponential temporal smoothing. It is single-owner
// state: one instance belongs to one render loop and is not safe for
// concurrent use.
type SpectrumProcessor struct {
	factor float64

	// One persistent smoothing buffer per requested bar count. A renderer
	// normally sticks to one count, but a resize must not reset unrelated
	// modes, so each count keeps its own state.
	state map[int][]float64

	fresh []float64 // per-call resample workspace, resized on demand
}

// NewSpectrumProcessor creates a processor with the given smoothing factor.
// The factor is clamped to [0,1]: 1 is pass-through, 0 freezes the output
// at the first processed spectrum.
func NewSpectrumProcessor(factor float64) *SpectrumProcessor {
	return &SpectrumProcessor{
		factor: clampUnit(factor),
		state:  make(map[int][]float64),
	}
}

// SetSmoothingFactor updates the smoothing factor, clamped to [0,1].
func (p *SpectrumProcessor) SetSmoothingFactor(factor float64) {
	p.factor = clampUnit(factor)
}

// SmoothingFactor returns the current smoothing factor.
func (p *SpectrumProcessor) SmoothingFactor() float64 {
	return p.factor
}

// ProcessSpectrum resamples magnitudes to bars values and folds them into
// the persistent smoothed state for that bar count. Returns ok=false for
// nil/empty input or bars <= 0; these are expected conditions, never a
// panic. The returned slice is the internal state buffer: valid until the
// next call with the same bar count.
func (p *SpectrumProcessor) ProcessSpectrum(magnitudes []float64, bars int) (bool, []float64) {
	if len(magnitudes) == 0 || bars <= 0 {
		return false, nil
	}

	if cap(p.fresh) < bars {
		p.fresh = make([]float64, bars)
	}
	fresh := p.fresh[:bars]
	resample(fresh, magnitudes)

	state, ok := p.state[bars]
	if !ok {
		// First use of this bar count: seed from the fresh values so the
		// display does not grow up from zero.
		state = make([]float64, bars)
		copy(state, fresh)
		p.state[bars] = state
		return true, state
	}

	f := p.factor
	for i := range state {
		state[i] = state[i]*(1.0-f) + fresh[i]*f
	}
	return true, state
}

// Reset discards all smoothing state. Used on stream restart so the next
// spectrum seeds fresh rather than decaying from stale bars.
func (p *SpectrumProcessor) Reset() {
	for k := range p.state {
		delete(p.state, k)
	}
}

// resample fills dst by block-averaging src: output i covers the source
// range [i*L/n, (i+1)*L/n). Equivalent to area-weighted decimation and
// bit-reproducible for identical inputs. When dst is longer than src the
// blocks degenerate to zero width and the nearest source value is
// duplicated.
func resample(dst, src []float64) {
	n := len(dst)
	l := len(src)
	for i := range dst {
		start := i * l / n
		end := (i + 1) * l / n
		if end > start {
			sum := 0.0
			for k := start; k < end; k++ {
				sum += src[k]
			}
			dst[i] = sum / float64(end-start)
		} else {
			dst[i] = src[start]
		}
	}
}

func clampUnit(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 1.0 {
		return 1.0
	}
	return v
}
