// SPDX-License-Identifier: MIT
package analysis

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/dsp/fourier"

	applog "spectra/internal/log"
	"spectra/pkg/bitint"
)

// OverflowPolicy selects how AddSamples behaves when the ingest queue is full.
type OverflowPolicy int

const (
	// DropOldest discards the oldest queued block in favor of the newest.
	// Visualization favors freshness over completeness, so this is the default.
	DropOldest OverflowPolicy = iota
	// Block suspends AddSamples until queue space frees up or the context
	// is cancelled.
	Block
)

// ParseOverflowPolicy converts a string name (case-insensitive) to an
// OverflowPolicy. Returns DropOldest and false if the name is unknown.
func ParseOverflowPolicy(name string) (OverflowPolicy, bool) {
	switch strings.ToLower(name) {
	case "drop-oldest", "dropoldest":
		return DropOldest, true
	case "block":
		return Block, true
	default:
		return DropOldest, false
	}
}

// ErrProcessorClosed is returned by AddSamples after Close has been called.
var ErrProcessorClosed = errors.New("fft processor is closed")

// DefaultQueueDepth is the ingest queue capacity used when the config does
// not specify one. At typical 10-20ms capture cadence this buys the worker
// well over 100ms of slack before backpressure kicks in.
const DefaultQueueDepth = 8

// FrameCallback receives one completed analysis frame. The Bins slice is a
// preallocated workspace owned by the worker: it is only valid for the
// duration of the call and must be copied if retained.
type FrameCallback func(spectrum ComplexSpectrum)

// FFTConfig configures an FFTProcessor.
type FFTConfig struct {
	FrameSize  int            // analysis frame length, forced to a power of two
	QueueDepth int            // ingest queue capacity (0 = DefaultQueueDepth)
	Window     WindowType     // initial window function
	KaiserBeta float64        // Kaiser shape parameter (0 = DefaultKaiserBeta)
	Overflow   OverflowPolicy // backpressure policy
}

// sampleBlock is one queued ingest unit. Samples are copied on enqueue so
// the caller may reuse its buffer immediately.
type sampleBlock struct {
	samples    []float64
	sampleRate int
	gen        uint64
}

// FFTProcessor accumulates asynchronously delivered sample blocks into
// fixed-size frames, windows and transforms them on a dedicated worker
// goroutine, and invokes the frame callback once per completed frame.
//
// Ingestion (AddSamples) is decoupled from transformation by a bounded
// queue; the ingest path never pays for a transform. Frames are emitted in
// FIFO order relative to ingestion.
type FFTProcessor struct {
	frameSize  int
	kaiserBeta float64
	overflow   OverflowPolicy
	onFrame    FrameCallback

	windowType atomic.Int32
	windows    *windowCache

	queue chan sampleBlock
	gen   atomic.Uint64 // bumped by ResetState; stale blocks are discarded

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup

	// Worker-owned state. Touched only by the worker goroutine.
	fftCalculator *fourier.FFT
	acc           []float64 // accumulation buffer across blocks
	accRate       int       // sample rate of the accumulated samples
	accGen        uint64    // generation the accumulation belongs to
	frame         []float64 // windowed frame workspace
	bins          []complex128
}

// NewFFTProcessor creates a processor and starts its worker goroutine.
// The frame size is forced to the nearest power of two at or above the
// requested size. The callback may be nil (frames are computed and dropped),
// which is mainly useful in tests.
func NewFFTProcessor(cfg FFTConfig, onFrame FrameCallback) (*FFTProcessor, error) {
	if cfg.FrameSize < 2 {
		return nil, fmt.Errorf("frame size must be at least 2, got %d", cfg.FrameSize)
	}
	frameSize := cfg.FrameSize
	if !bitint.IsPowerOfTwo(frameSize) {
		frameSize = bitint.NextPowerOfTwo(frameSize)
		applog.Warnf("Analysis: frame size %d is not a power of two, using %d", cfg.FrameSize, frameSize)
	}

	depth := cfg.QueueDepth
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	beta := cfg.KaiserBeta
	if beta <= 0 {
		beta = DefaultKaiserBeta
	}

	binCount := frameSize/2 + 1
	p := &FFTProcessor{
		frameSize:     frameSize,
		kaiserBeta:    beta,
		overflow:      cfg.Overflow,
		onFrame:       onFrame,
		windows:       newWindowCache(),
		queue:         make(chan sampleBlock, depth),
		done:          make(chan struct{}),
		fftCalculator: fourier.NewFFT(frameSize),
		acc:           make([]float64, 0, frameSize*2),
		frame:         make([]float64, frameSize),
		bins:          make([]complex128, binCount),
	}
	p.windowType.Store(int32(cfg.Window))

	applog.Infof("Analysis: Initializing FFTProcessor (Frame: %d, Window: %s, Queue: %d)",
		frameSize, cfg.Window, depth)

	p.wg.Add(1)
	go p.worker()

	return p, nil
}

// FrameSize returns the analysis frame length (a power of two).
func (p *FFTProcessor) FrameSize() int {
	return p.frameSize // Immutable after creation, no lock needed.
}

// WindowType returns the window function currently applied to new frames.
func (p *FFTProcessor) WindowType() WindowType {
	return WindowType(p.windowType.Load())
}

// SetWindowType switches the window function. Takes effect starting with
// the next completed frame; coefficient tables are memoized per type.
func (p *FFTProcessor) SetWindowType(typ WindowType) {
	p.windowType.Store(int32(typ))
}

// AddSamples copies the block into the ingest queue. The call never waits
// for a transform; under backpressure it either evicts the oldest queued
// block (DropOldest) or suspends until space frees (Block). Blocks that are
// empty, carry a non-positive sample rate, or contain NaN/Inf samples are
// silently discarded without disturbing frame accumulation.
func (p *FFTProcessor) AddSamples(ctx context.Context, samples []float64, sampleRate int) error {
	if p.closed.Load() {
		return ErrProcessorClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(samples) == 0 || sampleRate <= 0 || !allFinite(samples) {
		return nil // malformed input is filtered, not an error
	}

	blk := sampleBlock{
		samples:    append([]float64(nil), samples...),
		sampleRate: sampleRate,
		gen:        p.gen.Load(),
	}

	if p.overflow == Block {
		select {
		case p.queue <- blk:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return ErrProcessorClosed
		}
	}

	// DropOldest: evict until the enqueue succeeds. Bounded by queue depth,
	// so this loop cannot spin unboundedly.
	for {
		select {
		case p.queue <- blk:
			return nil
		case <-p.done:
			return ErrProcessorClosed
		default:
		}
		select {
		case <-p.queue:
			applog.Debugf("Analysis: ingest queue full, dropped oldest block")
		default:
		}
	}
}

// ResetState discards all queued blocks and any partially accumulated frame.
// Used on device or sample-rate change. Safe to call from any goroutine.
func (p *FFTProcessor) ResetState() {
	p.gen.Add(1)
	// Drain whatever is queued right now. Blocks enqueued concurrently with
	// the generation bump carry the old generation and are dropped by the
	// worker instead.
	for {
		select {
		case <-p.queue:
		default:
			return
		}
	}
}

// Close stops the worker and rejects further ingestion. Idempotent and safe
// to call from any goroutine; no frame callback fires after Close returns.
func (p *FFTProcessor) Close() error {
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		close(p.done)
		p.wg.Wait()
		applog.Infof("Analysis: Closed FFTProcessor")
	})
	return nil
}

// worker is the transform loop. It owns the accumulation and frame buffers
// exclusively and exits when Close is called.
func (p *FFTProcessor) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case blk := <-p.queue:
			p.consume(blk)
		}
	}
}

// consume folds one block into the accumulation buffer and emits every full
// frame it completes. A panic inside the transform or the callback is
// contained here so one bad frame never stops the pipeline.
func (p *FFTProcessor) consume(blk sampleBlock) {
	defer func() {
		if r := recover(); r != nil {
			applog.Errorf("Analysis: frame transform panic recovered: %v", r)
			p.acc = p.acc[:0]
		}
	}()

	if blk.gen != p.gen.Load() {
		return // stale block from before a ResetState
	}
	if blk.gen != p.accGen {
		p.acc = p.acc[:0]
		p.accGen = blk.gen
	}
	if blk.sampleRate != p.accRate {
		// Samples from different rates never mix within one frame.
		if p.accRate != 0 && len(p.acc) > 0 {
			applog.Debugf("Analysis: sample rate changed %d -> %d, discarding partial frame",
				p.accRate, blk.sampleRate)
		}
		p.acc = p.acc[:0]
		p.accRate = blk.sampleRate
	}

	p.acc = append(p.acc, blk.samples...)

	for len(p.acc) >= p.frameSize {
		coeffs := p.windows.Coefficients(p.WindowType(), p.frameSize, p.kaiserBeta)
		for i := range p.frame {
			p.frame[i] = p.acc[i] * coeffs[i]
		}

		p.fftCalculator.Coefficients(p.bins, p.frame)

		if p.onFrame != nil {
			p.onFrame(ComplexSpectrum{Bins: p.bins, SampleRate: p.accRate})
		}

		// Leftover samples roll over to the next accumulation cycle.
		n := copy(p.acc, p.acc[p.frameSize:])
		p.acc = p.acc[:n]
	}
}

// allFinite reports whether every sample is a finite float.
func allFinite(samples []float64) bool {
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return false
		}
	}
	return true
}
