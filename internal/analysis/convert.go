// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"math"
	"math/cmplx"
	"sync"
)

// DefaultBandCount is the output resolution for the warped scales
// (Logarithmic, Mel, Bark, ERB) when the config does not set one.
const DefaultBandCount = 128

// DefaultLowCutoffHz is the lowest frequency considered by the warped
// scales. Content below this is inaudible rumble for display purposes.
const DefaultLowCutoffHz = 20.0

// dbEpsilon guards the dB conversion against log(0).
const dbEpsilon = 1e-12

// ConverterConfig configures a Converter.
type ConverterConfig struct {
	Bands     int     // band count for warped scales (0 = DefaultBandCount)
	LowCutoff float64 // low cutoff in Hz for warped scales (0 = DefaultLowCutoffHz)
}

// edgeKey identifies one memoized band-edge table.
type edgeKey struct {
	scale    FreqScale
	rate     int
	binCount int
	bands    int
}

// Converter maps complex FFT bins to a normalized magnitude array on a
// chosen frequency scale. Conversion is a pure function of its inputs plus
// the live GainParams values, which are re-read on every call so UI
// adjustments apply to the very next frame. Band-edge tables are memoized
// per (scale, rate, binCount, bands); the gain path has no caching at all.
type Converter struct {
	gain      *GainParams
	bands     int
	lowCutoff float64

	mu    sync.Mutex
	edges map[edgeKey][]int
}

// NewConverter creates a converter reading its gain values from gain.
func NewConverter(gain *GainParams, cfg ConverterConfig) *Converter {
	bands := cfg.Bands
	if bands <= 0 {
		bands = DefaultBandCount
	}
	lowCutoff := cfg.LowCutoff
	if lowCutoff <= 0 {
		lowCutoff = DefaultLowCutoffHz
	}
	return &Converter{
		gain:      gain,
		bands:     bands,
		lowCutoff: lowCutoff,
		edges:     make(map[edgeKey][]int),
	}
}

// Convert maps the complex bins to normalized [0,1] magnitudes on the given
// scale. Linear yields one output value per bin; the warped scales yield the
// configured band count. Returns nil on empty input or cancelled context.
func (c *Converter) Convert(ctx context.Context, bins []complex128, sampleRate int, scale FreqScale) []float64 {
	if len(bins) < 2 || sampleRate <= 0 {
		return nil
	}
	if ctx != nil && ctx.Err() != nil {
		return nil
	}

	var out []float64
	if scale == ScaleLinear {
		out = make([]float64, len(bins))
		for i, b := range bins {
			out[i] = cmplx.Abs(b)
		}
	} else {
		out = c.bucketize(bins, sampleRate, scale)
	}

	// Scale raw FFT sums to the amplitude spectrum so the dB values read
	// as dBFS: a full-scale sine lands near 0 dB regardless of frame size.
	norm := 2.0 / float64(2*(len(bins)-1))
	for i := range out {
		out[i] *= norm
	}

	// Snapshot the gain values once per call so one frame sees a
	// consistent triple even while a writer is adjusting them.
	minDb := c.gain.MinDb()
	maxDb := c.gain.MaxDb()
	amp := c.gain.Amplification()
	rangeDb := maxDb - minDb

	for i, m := range out {
		db := 20.0 * math.Log10(m+dbEpsilon)
		if db < minDb {
			db = minDb
		} else if db > maxDb {
			db = maxDb
		}
		v := (db - minDb) / rangeDb * amp
		if v > 1.0 {
			v = 1.0
		} else if v < 0.0 {
			v = 0.0
		}
		out[i] = v
	}
	return out
}

// bucketize averages the linear magnitudes of the bins falling into each
// band of the warped scale. Bands that span no bin borrow the nearest bin's
// value so the output never has holes.
func (c *Converter) bucketize(bins []complex128, sampleRate int, scale FreqScale) []float64 {
	edges := c.bandEdges(scale, sampleRate, len(bins))
	out := make([]float64, c.bands)

	for i := range out {
		start, end := edges[i], edges[i+1]
		if end > start {
			sum := 0.0
			for k := start; k < end; k++ {
				sum += cmplx.Abs(bins[k])
			}
			out[i] = sum / float64(end-start)
		} else {
			// Zero-width band: duplicate the bin at the band's position.
			k := start
			if k >= len(bins) {
				k = len(bins) - 1
			}
			out[i] = cmplx.Abs(bins[k])
		}
	}
	return out
}

// bandEdges returns bands+1 bin indices delimiting each band, memoized per
// (scale, rate, binCount, bands).
func (c *Converter) bandEdges(scale FreqScale, sampleRate, binCount int) []int {
	key := edgeKey{scale: scale, rate: sampleRate, binCount: binCount, bands: c.bands}

	c.mu.Lock()
	defer c.mu.Unlock()

	if edges, ok := c.edges[key]; ok {
		return edges
	}

	frameLen := 2 * (binCount - 1)
	nyquist := float64(sampleRate) / 2.0
	low := hzToScale(scale, c.lowCutoff)
	high := hzToScale(scale, nyquist)

	edges := make([]int, c.bands+1)
	for i := range edges {
		pos := low + (high-low)*float64(i)/float64(c.bands)
		hz := scaleToHz(scale, pos)
		bin := int(hz * float64(frameLen) / float64(sampleRate))
		if bin < 0 {
			bin = 0
		}
		if bin > binCount {
			bin = binCount
		}
		edges[i] = bin
	}
	// Edges must be monotonic so every band is a valid half-open range.
	for i := 1; i < len(edges); i++ {
		if edges[i] < edges[i-1] {
			edges[i] = edges[i-1]
		}
	}

	c.edges[key] = edges
	return edges
}

// hzToScale warps a frequency onto the given perceptual axis.
//
// Mel:  O'Shaughnessy, 2595*log10(1 + f/700)
// Bark: Traunmueller (1990), 26.81*f/(1960+f) - 0.53
// ERB:  Glasberg & Moore (1990), 21.4*log10(1 + 0.00437*f)
func hzToScale(scale FreqScale, hz float64) float64 {
	switch scale {
	case ScaleLogarithmic:
		return math.Log10(hz)
	case ScaleMel:
		return 2595.0 * math.Log10(1.0+hz/700.0)
	case ScaleBark:
		return 26.81*hz/(1960.0+hz) - 0.53
	case ScaleERB:
		return 21.4 * math.Log10(1.0+0.00437*hz)
	default:
		return hz
	}
}

// scaleToHz inverts hzToScale for each warped axis.
func scaleToHz(scale FreqScale, v float64) float64 {
	switch scale {
	case ScaleLogarithmic:
		return math.Pow(10.0, v)
	case ScaleMel:
		return 700.0 * (math.Pow(10.0, v/2595.0) - 1.0)
	case ScaleBark:
		return 1960.0 * (v + 0.53) / (26.28 - v)
	case ScaleERB:
		return (math.Pow(10.0, v/21.4) - 1.0) / 0.00437
	default:
		return v
	}
}
