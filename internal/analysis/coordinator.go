// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	applog "spectra/internal/log"
)

// Subscriber receives each newly published SpectralData. Callbacks run on
// the analysis worker goroutine and must return quickly; anything slow
// should hand the pointer off to its own goroutine.
type Subscriber func(*SpectralData)

// CoordinatorConfig configures a Coordinator and its owned components.
type CoordinatorConfig struct {
	FFT       FFTConfig
	Converter ConverterConfig
	Scale     FreqScale
}

// Coordinator owns one FFTProcessor / Converter pair and publishes the
// latest conversion result thread-safely. Readers pull the current spectrum
// with GetCurrentSpectrum (swap-only pointer, never blocked by a publish);
// push-style consumers register a Subscriber.
type Coordinator struct {
	fft       *FFTProcessor
	converter *Converter
	gain      *GainParams
	scale     FreqScale

	current atomic.Pointer[SpectralData]

	subMu sync.RWMutex
	subs  []Subscriber

	closeOnce sync.Once
}

// Compile-time check: the coordinator is the pipeline's pull API.
var _ SpectrumSource = (*Coordinator)(nil)

// NewCoordinator builds the processor/converter pair and wires the frame
// callback to conversion and publication.
func NewCoordinator(cfg CoordinatorConfig, gain *GainParams) (*Coordinator, error) {
	if gain == nil {
		gain = NewGainParams()
	}
	c := &Coordinator{
		gain:      gain,
		scale:     cfg.Scale,
		converter: NewConverter(gain, cfg.Converter),
	}

	fft, err := NewFFTProcessor(cfg.FFT, c.onFrame)
	if err != nil {
		return nil, err
	}
	c.fft = fft

	applog.Infof("Analysis: Initializing Coordinator (Scale: %s)", cfg.Scale)
	return c, nil
}

// onFrame runs on the FFT worker: convert the bins and publish the result.
func (c *Coordinator) onFrame(spectrum ComplexSpectrum) {
	mags := c.converter.Convert(context.Background(), spectrum.Bins, spectrum.SampleRate, c.scale)
	if mags == nil {
		return
	}

	data := &SpectralData{
		Magnitudes: mags,
		Scale:      c.scale,
		SampleRate: spectrum.SampleRate,
		Timestamp:  time.Now(),
	}
	c.current.Store(data)

	c.subMu.RLock()
	subs := c.subs
	c.subMu.RUnlock()
	for _, sub := range subs {
		sub(data)
	}
}

// AddSamples forwards a sample block to the owned FFT processor.
func (c *Coordinator) AddSamples(ctx context.Context, samples []float64, sampleRate int) error {
	return c.fft.AddSamples(ctx, samples, sampleRate)
}

// GetCurrentSpectrum returns the most recently published spectrum, or nil
// before the first frame completes. Never blocks.
func (c *Coordinator) GetCurrentSpectrum() *SpectralData {
	return c.current.Load()
}

// Subscribe registers a push consumer fired once after each publish.
// Having no subscribers is fine; the pull API keeps working either way.
func (c *Coordinator) Subscribe(sub Subscriber) {
	if sub == nil {
		return
	}
	c.subMu.Lock()
	// Copy-on-write so onFrame can iterate without holding the write lock.
	subs := make([]Subscriber, len(c.subs), len(c.subs)+1)
	copy(subs, c.subs)
	c.subs = append(subs, sub)
	c.subMu.Unlock()
}

// Gain exposes the shared gain parameters for UI-driven writers.
func (c *Coordinator) Gain() *GainParams {
	return c.gain
}

// WindowType returns the live window function of the owned processor.
func (c *Coordinator) WindowType() WindowType {
	return c.fft.WindowType()
}

// SetWindowType switches the window function, effective next frame.
func (c *Coordinator) SetWindowType(typ WindowType) {
	c.fft.SetWindowType(typ)
}

// Scale returns the frequency scale this coordinator publishes on.
func (c *Coordinator) Scale() FreqScale {
	return c.scale
}

// ResetState drops queued blocks and partial accumulation. The published
// spectrum keeps its last value so a renderer does not blank on device
// change.
func (c *Coordinator) ResetState() {
	c.fft.ResetState()
}

// Close tears down the owned processor. Idempotent, safe from any goroutine.
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		err = c.fft.Close()
		applog.Infof("Analysis: Closed Coordinator")
	})
	return err
}
