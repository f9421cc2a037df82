// SPDX-License-Identifier: MIT
package transport

import (
	"sync"
	"testing"
	"time"

	"spectra/internal/analysis"
)

// fakeSource is a SpectrumSource returning a canned spectrum.
type fakeSource struct {
	mu   sync.Mutex
	data *analysis.SpectralData
}

func (f *fakeSource) GetCurrentSpectrum() *analysis.SpectralData {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.data
}

func (f *fakeSource) set(data *analysis.SpectralData) {
	f.mu.Lock()
	f.data = data
	f.mu.Unlock()
}

// captureTransport records every frame it is sent.
type captureTransport struct {
	mu     sync.Mutex
	frames []*Frame
	closed bool
}

func (c *captureTransport) Send(data any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if frame, ok := data.(*Frame); ok {
		c.frames = append(c.frames, frame)
	}
	return nil
}

func (c *captureTransport) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *captureTransport) snapshot() []*Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Frame(nil), c.frames...)
}

func rampSpectrum(n int) *analysis.SpectralData {
	mags := make([]float64, n)
	for i := range mags {
		mags[i] = float64(i) / float64(n-1)
	}
	return &analysis.SpectralData{
		Magnitudes: mags,
		Scale:      analysis.ScaleLogarithmic,
		SampleRate: 44100,
		Timestamp:  time.Now(),
	}
}

func TestNewPublisherValidation(t *testing.T) {
	source := &fakeSource{}
	sink := &captureTransport{}

	if _, err := NewPublisher(PublisherConfig{Bars: 16}, nil, sink); err == nil {
		t.Error("nil source should be rejected")
	}
	if _, err := NewPublisher(PublisherConfig{Bars: 16}, source); err == nil {
		t.Error("missing transports should be rejected")
	}
	if _, err := NewPublisher(PublisherConfig{Bars: 0}, source, sink); err == nil {
		t.Error("non-positive bar count should be rejected")
	}
}

func TestPublisherDeliversFrames(t *testing.T) {
	source := &fakeSource{}
	source.set(rampSpectrum(128))
	sink := &captureTransport{}

	pub, err := NewPublisher(PublisherConfig{
		Bars:      16,
		Interval:  2 * time.Millisecond,
		Smoothing: 1.0, // no smoothing lag, bars track the source exactly
	}, source, sink)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	pub.Start()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.snapshot()) >= 3 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	if err := pub.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	frames := sink.snapshot()
	if len(frames) < 3 {
		t.Fatalf("Expected at least 3 frames, got %d", len(frames))
	}

	for i, frame := range frames {
		if len(frame.Bars) != 16 {
			t.Fatalf("Frame %d has %d bars, want 16", i, len(frame.Bars))
		}
		if frame.SampleRate != 44100 {
			t.Errorf("Frame %d sample rate: got %d, want 44100", i, frame.SampleRate)
		}
		if frame.Scale != "logarithmic" {
			t.Errorf("Frame %d scale: got %q, want logarithmic", i, frame.Scale)
		}
		if i > 0 && frame.Sequence != frames[i-1].Sequence+1 {
			t.Errorf("Frame %d sequence not consecutive: %d after %d",
				i, frame.Sequence, frames[i-1].Sequence)
		}
	}

	// Bars are copies: frames must not alias each other's data.
	if len(frames) >= 2 && &frames[0].Bars[0] == &frames[1].Bars[0] {
		t.Error("Frames share a bars slice; each frame should own a copy")
	}

	// With an ascending source and full smoothing the last bar is the largest.
	last := frames[len(frames)-1]
	if last.Bars[len(last.Bars)-1] <= last.Bars[0] {
		t.Error("Resampled bars should preserve the source's ascending shape")
	}
}

func TestPublisherSkipsEmptySource(t *testing.T) {
	source := &fakeSource{} // never publishes
	sink := &captureTransport{}

	pub, err := NewPublisher(PublisherConfig{
		Bars:     8,
		Interval: time.Millisecond,
	}, source, sink)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	pub.Start()
	time.Sleep(20 * time.Millisecond)
	if err := pub.Stop(); err != nil {
		t.Fatalf("Stop error: %v", err)
	}

	if got := len(sink.snapshot()); got != 0 {
		t.Errorf("Expected no frames from an empty source, got %d", got)
	}
}

func TestPublisherReportsPeaks(t *testing.T) {
	source := &fakeSource{}
	source.set(rampSpectrum(64))
	sink := &captureTransport{}

	pub, err := NewPublisher(PublisherConfig{
		Bars:      8,
		Interval:  2 * time.Millisecond,
		Smoothing: 1.0,
		Peaks:     analysis.NewPeakTracker(1.0, 1.0),
	}, source, sink)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	pub.Start()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(sink.snapshot()) >= 1 {
			break
		}
		time.Sleep(time.Millisecond)
	}
	pub.Stop()

	frames := sink.snapshot()
	if len(frames) == 0 {
		t.Fatal("Expected at least one frame")
	}
	frame := frames[0]
	if len(frame.Peaks) != len(frame.Bars) {
		t.Fatalf("Peaks length %d should match bars length %d",
			len(frame.Peaks), len(frame.Bars))
	}
	for i := range frame.Bars {
		if frame.Peaks[i] < frame.Bars[i] {
			t.Errorf("Peak %d (%f) below bar value (%f)", i, frame.Peaks[i], frame.Bars[i])
		}
	}
}

func TestPublisherStopIdempotent(t *testing.T) {
	source := &fakeSource{}
	sink := &captureTransport{}

	pub, err := NewPublisher(PublisherConfig{Bars: 8, Interval: time.Millisecond}, source, sink)
	if err != nil {
		t.Fatalf("NewPublisher error: %v", err)
	}

	if err := pub.Stop(); err != nil {
		t.Errorf("Stop before Start should be a no-op, got %v", err)
	}

	pub.Start()
	if err := pub.Stop(); err != nil {
		t.Errorf("First Stop error: %v", err)
	}
	if err := pub.Stop(); err != nil {
		t.Errorf("Second Stop error: %v", err)
	}
}

func TestLoggingTransport(t *testing.T) {
	lt := NewLoggingTransport()
	if err := lt.Send(&Frame{Sequence: 1, Bars: []float64{0.5}}); err != nil {
		t.Errorf("LoggingTransport Send error: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Errorf("LoggingTransport Close error: %v", err)
	}
}
