// SPDX-License-Identifier: MIT
/*
Package audio implements real-time capture feeding the spectral pipeline:
- Lock-free audio capture using PortAudio
- Amplitude gate to skip analysis of silent buffers
- Mono downmix into the analysis coordinator
- WAV recording of the raw input tap with atomic state management

Thread Safety:
- Uses atomic operations for recording state
- Pre-allocates buffers to avoid GC in the capture callback
- Locks the OS thread during audio processing
*/
package audio

import (
	"context"
	"os"
	"runtime"
	"sync/atomic"
	"time"

	"spectra/internal/analysis"
	"spectra/internal/config"
	applog "spectra/internal/log"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/gordonklaus/portaudio"
)

type Engine struct {
	// Core configuration and downstream pipeline.
	config      *config.Config
	coordinator *analysis.Coordinator

	// Audio input handling.
	inputBuffer  []float32
	monoInput    []float64 // Downmixed frame handed to the coordinator
	inputDevice  *portaudio.DeviceInfo
	inputLatency time.Duration
	inputStream  *portaudio.Stream

	// Amplitude gate for signal conditioning.
	gateEnabled   bool
	gateThreshold float64 // Peak amplitude threshold in [0,1]

	// Recording state and buffers.
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *goaudio.IntBuffer // Reusable buffer for format conversion
	recScale    float64            // Float-to-int scale for the recording bit depth
}

func NewEngine(cfg *config.Config, coordinator *analysis.Coordinator) (*Engine, error) {
	inputDevice, err := InputDevice(cfg.Audio.InputDevice)
	if err != nil {
		return nil, err
	}

	// Pre-allocate I/O buffers sized for frames x channels.
	inputSize := cfg.Audio.FramesPerBuffer * cfg.Audio.Channels

	engine := &Engine{
		config:        cfg,
		coordinator:   coordinator,
		inputBuffer:   make([]float32, inputSize),
		monoInput:     make([]float64, cfg.Audio.FramesPerBuffer),
		inputDevice:   inputDevice,
		gateEnabled:   cfg.Audio.GateThreshold > 0,
		gateThreshold: cfg.Audio.GateThreshold,
	}

	if cfg.Audio.LowLatency {
		engine.inputLatency = inputDevice.DefaultLowInputLatency
	} else {
		engine.inputLatency = inputDevice.DefaultHighInputLatency
	}

	return engine, nil
}

func (e *Engine) StartInputStream() error {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Channels: e.config.Audio.Channels,
			Device:   e.inputDevice,
			Latency:  e.inputLatency,
		},
		Output: portaudio.StreamDeviceParameters{
			Channels: 0, // No output device
			Device:   nil,
		},
		FramesPerBuffer: e.config.Audio.FramesPerBuffer,
		SampleRate:      e.config.Audio.SampleRate,
	}

	stream, err := portaudio.OpenStream(params, e.processInputStream)
	if err != nil {
		return err
	}
	e.inputStream = stream

	if err := e.inputStream.Start(); err != nil {
		e.inputStream.Close()
		return err
	}

	applog.Infof("Audio: input stream started (device: %s, rate: %.0f Hz)",
		e.inputDevice.Name, e.config.Audio.SampleRate)
	return nil
}

func (e *Engine) StopInputStream() error {
	if e.inputStream != nil {
		if err := e.inputStream.Stop(); err != nil {
			return err
		}

		if err := e.inputStream.Close(); err != nil {
			return err
		}

		e.inputStream = nil
	}

	return nil
}

// processInputStream is the core audio processing callback.
// Performance Critical:
// - Runs in a dedicated OS thread (LockOSThread)
// - Uses pre-allocated buffers only
// - No dynamic allocations beyond the coordinator's copy-on-enqueue
func (e *Engine) processInputStream(in []float32) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	n := copy(e.inputBuffer, in)
	e.processBuffer(e.inputBuffer[:n])

	// Write to WAV file if recording.
	if atomic.LoadInt32(&e.isRecording) == 1 && e.wavEncoder != nil {
		data := e.sampleBuf.Data[:cap(e.sampleBuf.Data)]
		if n < len(data) {
			data = data[:n]
		}
		for i := range data {
			data[i] = int(float64(e.inputBuffer[i]) * e.recScale)
		}
		e.sampleBuf.Data = data

		if err := e.wavEncoder.Write(e.sampleBuf); err != nil {
			applog.Errorf("Audio: error writing to WAV file: %v", err)
		}
	}
}

// processBuffer gates, downmixes and forwards the buffer to the coordinator.
// Performance Critical (Hot Path): no allocations before the ingest handoff.
func (e *Engine) processBuffer(buffer []float32) {
	if e.gateEnabled && !e.bufferAboveGate(buffer) {
		return
	}

	if e.coordinator == nil {
		return
	}

	channels := e.config.Audio.Channels
	frames := len(buffer)
	if channels > 1 {
		frames = len(buffer) / channels
	}
	if frames > len(e.monoInput) {
		frames = len(e.monoInput)
	}
	mono := e.monoInput[:frames]

	if channels <= 1 {
		for i := range mono {
			mono[i] = float64(buffer[i])
		}
	} else {
		inv := 1.0 / float64(channels)
		for i := range mono {
			var sum float64
			base := i * channels
			for c := 0; c < channels; c++ {
				sum += float64(buffer[base+c])
			}
			mono[i] = sum * inv
		}
	}

	// The coordinator copies on enqueue, so monoInput is immediately reusable.
	if err := e.coordinator.AddSamples(context.Background(), mono, int(e.config.Audio.SampleRate)); err != nil {
		applog.Warnf("Audio: dropping capture block: %v", err)
	}
}
