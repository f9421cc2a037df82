// SPDX-License-Identifier: MIT
package udp

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"spectra/internal/analysis"
	applog "spectra/internal/log"
)

// Publisher periodically pulls the latest spectrum from an
// analysis.SpectrumSource, resamples it to a fixed bar count, packs the bars
// into a defined binary format, and sends them over UDP using a Sender.
// It runs in a separate goroutine managed by Start and Stop methods.
type Publisher struct {
	sender    *Sender
	source    analysis.SpectrumSource
	processor *analysis.SpectrumProcessor
	bars      int
	interval  time.Duration

	ticker   *time.Ticker
	doneChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	mu       sync.Mutex // Protects ticker and doneChan during Start/Stop

	sequenceNum uint32

	// Pre-allocated buffers to reduce allocations in the hot path.
	f32Buffer    []float32     // float32 bars for binary packing
	packetBuffer *bytes.Buffer // Reusable buffer for constructing the packet
}

// NewPublisher creates and initializes a UDP Publisher.
// It requires a valid Sender and spectrum source.
// If the provided interval is invalid (<= 0), it defaults to 16ms (~60Hz).
func NewPublisher(interval time.Duration, bars int, smoothing float64, sender *Sender, source analysis.SpectrumSource) (*Publisher, error) {
	if sender == nil {
		return nil, fmt.Errorf("UDPPublisher: UDP sender cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("UDPPublisher: spectrum source cannot be nil")
	}
	if bars <= 0 {
		return nil, fmt.Errorf("UDPPublisher: bar count must be positive, got %d", bars)
	}

	if interval <= 0 {
		interval = 16 * time.Millisecond // Default to ~60Hz if invalid
		applog.Warnf("UDPPublisher: Invalid interval provided, defaulting to %s", interval)
	}

	applog.Infof("UDPPublisher: Initializing (Interval: %s, Bars: %d)", interval, bars)

	return &Publisher{
		sender:       sender,
		source:       source,
		processor:    analysis.NewSpectrumProcessor(smoothing),
		bars:         bars,
		interval:     interval,
		f32Buffer:    make([]float32, bars),
		packetBuffer: new(bytes.Buffer),
	}, nil
}

// Start begins the periodic publishing process.
// It launches a goroutine that ticks at the configured interval, calling
// buildAndSendPacket on each tick until Stop is called.
// It is safe to call Start multiple times; subsequent calls are no-ops if already started.
func (p *Publisher) Start() {
	p.mu.Lock()
	if p.ticker != nil {
		p.mu.Unlock()
		applog.Warnf("UDPPublisher: Start called but already running.")
		return
	}

	p.ticker = time.NewTicker(p.interval)
	p.doneChan = make(chan struct{})
	p.stopOnce = sync.Once{} // Reset stopOnce for this run

	// Capture locals for the goroutine to avoid data races on p.ticker/p.doneChan.
	ticker := p.ticker
	doneChan := p.doneChan

	p.mu.Unlock()

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		applog.Infof("UDPPublisher: Publisher goroutine started (Interval: %s)", p.interval)
		for {
			select {
			case <-ticker.C:
				p.buildAndSendPacket()
			case <-doneChan:
				applog.Infof("UDPPublisher: Publisher goroutine received stop signal.")
				return
			}
		}
	}()
}

// Stop gracefully signals the publisher goroutine to terminate and waits for it to exit.
// It is safe to call Stop multiple times; subsequent calls are no-ops.
func (p *Publisher) Stop() error {
	p.mu.Lock()
	if p.ticker == nil {
		p.mu.Unlock()
		applog.Debugf("UDPPublisher: Stop called but not running.")
		return nil
	}

	p.stopOnce.Do(func() {
		applog.Infof("UDPPublisher: Initiating stop sequence...")
		close(p.doneChan)
		p.ticker.Stop()
		p.ticker = nil
	})

	p.mu.Unlock()

	p.wg.Wait()
	applog.Infof("UDPPublisher: Publisher goroutine finished.")
	return nil
}

/*
UDP Packet Structure (BigEndian)

+-----------------------------------------------------------------------------+
| Field             | Data Type      | Size (Bytes) | Description             |
|-------------------|----------------|--------------|-------------------------|
| Sequence Number   | uint32         | 4            | Monotonically increasing|
| Timestamp         | int64          | 8            | Nanoseconds since epoch |
| Bar Count         | uint16         | 2            | Number of floats (N)    |
| Bars              | []float32      | N * 4        | Resampled spectrum bars |
+-----------------------------------------------------------------------------+
*/

// buildAndSendPacket is the core function executed on each ticker interval:
// pull the latest spectrum, resample it to the bar count, pack the header
// and bars into the reusable buffer, and hand the bytes to the Sender.
func (p *Publisher) buildAndSendPacket() {
	data := p.source.GetCurrentSpectrum()
	if data == nil {
		return // nothing published yet
	}

	_, bars := p.processor.ProcessSpectrum(data.Magnitudes, p.bars)
	if len(bars) != len(p.f32Buffer) {
		p.f32Buffer = make([]float32, len(bars))
	}
	for i, v := range bars {
		p.f32Buffer[i] = float32(v)
	}

	p.sequenceNum++
	timestamp := time.Now().UnixNano()
	barCount := uint16(len(p.f32Buffer))

	p.packetBuffer.Reset()

	err := binary.Write(p.packetBuffer, binary.BigEndian, p.sequenceNum)
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, timestamp)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, barCount)
	}
	if err == nil {
		err = binary.Write(p.packetBuffer, binary.BigEndian, p.f32Buffer)
	}
	if err != nil {
		applog.Errorf("UDPPublisher: Error packing data into binary buffer: %v", err)
		return
	}

	packetBytes := p.packetBuffer.Bytes()
	if err := p.sender.Send(packetBytes); err == nil {
		applog.Debugf("UDPPublisher: Sent packet %d (%d bytes)", p.sequenceNum, len(packetBytes))
	}
}

// Close implements the io.Closer interface. It gracefully stops the publisher goroutine.
func (p *Publisher) Close() error {
	return p.Stop()
}

// Ensure Publisher satisfies the io.Closer interface at compile time.
var _ interface{ Close() error } = (*Publisher)(nil)
