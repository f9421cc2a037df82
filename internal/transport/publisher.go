// SPDX-License-Identifier: MIT
package transport

import (
	"fmt"
	"sync"
	"time"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// Publisher periodically pulls the latest spectrum from an
// analysis.SpectrumSource, resamples it to the configured bar count, and
// fans the resulting Frame out to every attached Transport. It runs in a
// separate goroutine managed by Start and Stop.
type Publisher struct {
	source    analysis.SpectrumSource
	processor *analysis.SpectrumProcessor
	peaks     *analysis.PeakTracker // optional, nil disables peak reporting
	bars      int
	interval  time.Duration
	targets   []Transport

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // protects ticker and doneChan during Start/Stop

	sequenceNum uint32
	lastTick    time.Time
}

// PublisherConfig configures a Publisher.
type PublisherConfig struct {
	Bars      int           // bar count frames are resampled to
	Interval  time.Duration // cadence between frames (<= 0 defaults to ~60Hz)
	Smoothing float64       // exponential smoothing factor for the resampler
	Peaks     *analysis.PeakTracker
}

// NewPublisher creates a Publisher pulling from source and fanning out to
// targets. At least one target is required.
func NewPublisher(cfg PublisherConfig, source analysis.SpectrumSource, targets ...Transport) (*Publisher, error) {
	if source == nil {
		return nil, fmt.Errorf("publisher: spectrum source cannot be nil")
	}
	if len(targets) == 0 {
		return nil, fmt.Errorf("publisher: at least one transport is required")
	}
	if cfg.Bars <= 0 {
		return nil, fmt.Errorf("publisher: bar count must be positive, got %d", cfg.Bars)
	}

	interval := cfg.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
		applog.Warnf("Publisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("Publisher: Initializing (Interval: %s, Bars: %d, Targets: %d)",
		interval, cfg.Bars, len(targets))

	return &Publisher{
		source:    source,
		processor: analysis.NewSpectrumProcessor(cfg.Smoothing),
		peaks:     cfg.Peaks,
		bars:      cfg.Bars,
		interval:  interval,
		targets:   targets,
	}, nil
}

// Start begins the periodic publishing process. It is safe to call Start
// multiple times; subsequent calls are no-ops while running.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("Publisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{}
	p.lastTick = time.Now()

	// Capture locals so the goroutine never races Start/Stop on the fields.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("Publisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.publishFrame()
			case <-doneChan:
				applog.Infof("Publisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for
// it to exit. Safe to call multiple times.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("Publisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("Publisher: Initiating stop sequence...")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("Publisher: Publisher goroutine finished.")
	return nil
}

// publishFrame runs on each tick: pull, resample, track peaks, fan out.
func (p *Publisher) publishFrame() {
	data := p.source.GetCurrentSpectrum()
	if data == nil {
		return // nothing published yet
	}

	now := time.Now()
	deltaTime := now.Sub(p.lastTick).Seconds()
	p.lastTick = now

	_, bars := p.processor.ProcessSpectrum(data.Magnitudes, p.bars)

	p.sequenceNum++
	frame := &Frame{
		Sequence:   p.sequenceNum,
		Timestamp:  now.UnixNano(),
		SampleRate: data.SampleRate,
		Scale:      data.Scale.String(),
		// Transports may hold the frame past this tick, so hand them a copy
		// rather than the resampler's state slice.
		Bars: append([]float64(nil), bars...),
	}

	if p.peaks != nil {
		peaks := make([]float64, len(bars))
		for i, v := range bars {
			p.peaks.Update(i, v, deltaTime)
			peaks[i] = p.peaks.GetPeak(i)
		}
		frame.Peaks = peaks
	}

	for _, target := range p.targets {
		if err := target.Send(frame); err != nil {
			applog.Warnf("Publisher: transport send failed: %v", err)
		}
	}
}

// Close implements io.Closer by stopping the publisher goroutine.
func (p *Publisher) Close() error {
	return p.Stop()
}
