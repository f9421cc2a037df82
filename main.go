package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"spectra/cmd"
	"spectra/internal/analysis"
	"spectra/internal/audio"
	"spectra/internal/config"
	applog "spectra/internal/log"
	"spectra/internal/transport"
	"spectra/internal/transport/udp"
	"spectra/internal/tui"
	"spectra/pkg/build"
)

// main wires the capture engine, the analysis pipeline and the consumers.
// The program flow is divided into three distinct phases:
//
// 1. Startup Phase (Cold Path):
//   - Initialize build information and logging
//   - Parse command line arguments and load configuration
//   - Execute one-off commands if requested
//   - Initialize PortAudio and the analysis pipeline
//
// 2. Concurrent Phase (Hot Path):
//   - Start audio capture feeding the coordinator
//   - Start recording and network publishers if enabled
//   - Run the terminal renderer pulling the coordinator
//
// 3. Shutdown Phase (Cold Path):
//   - Handle termination signals
//   - Stop publishers, recording and the engine
func main() {
	if err := run(); err != nil {
		applog.Fatalf("%v", err)
	}
}

func run() error {
	// ==================== STARTUP PHASE (Cold Path) ====================

	build.Initialize()

	cfg, err := cmd.ParseArgs()
	if err != nil {
		return err
	}

	if cfg.Debug {
		applog.SetLevel(applog.LevelDebug)
	} else if level, ok := applog.ParseLevel(cfg.LogLevel); ok {
		applog.SetLevel(level)
	}

	if err := audio.Initialize(); err != nil {
		return err
	}
	defer audio.Terminate()

	// One-off commands run without the pipeline.
	if cfg.Command != "" {
		return executeCommand(cfg.Command)
	}
	if !cfg.TUIMode {
		return nil
	}

	coordinator, err := buildPipeline(cfg)
	if err != nil {
		return err
	}
	defer coordinator.Close()

	// ==================== CONCURRENT PHASE (Hot Path) ====================

	engine, err := audio.NewEngine(cfg, coordinator)
	if err != nil {
		return err
	}

	// The first call to StartInputStream triggers PortAudio to begin
	// calling the capture callback, marking the start of the hot path.
	if err := engine.StartInputStream(); err != nil {
		return err
	}
	defer func() {
		if err := engine.Close(); err != nil {
			applog.Errorf("Error closing audio engine: %v", err)
		}
	}()

	var recordingFile string
	if cfg.Recording.Enabled {
		recordingFile = filepath.Join(cfg.Recording.OutputDir,
			"recording-"+time.Now().UTC().Format("02-01-2006-150405")+".wav")
		if err := os.MkdirAll(cfg.Recording.OutputDir, 0o755); err != nil {
			return err
		}
		if err := engine.StartRecording(recordingFile); err != nil {
			return err
		}
	}

	closers, err := startPublishers(cfg, coordinator)
	if err != nil {
		for _, closer := range closers {
			closer.Close()
		}
		return err
	}
	defer func() {
		for _, closer := range closers {
			if err := closer.Close(); err != nil {
				applog.Errorf("Error closing publisher: %v", err)
			}
		}
	}()

	// The renderer owns the foreground; a signal or the quit key ends it.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	uiDone := make(chan error, 1)
	go func() {
		uiDone <- tui.Run(cfg, coordinator)
	}()

	select {
	case err := <-uiDone:
		if err != nil {
			applog.Errorf("Renderer error: %v", err)
		}
	case <-done:
	}

	// ==================== SHUTDOWN PHASE (Cold Path) ====================

	if cfg.Recording.Enabled {
		if err := engine.StopRecording(); err != nil {
			applog.Errorf("Error stopping recording: %v", err)
		} else {
			fmt.Printf("\nRecording saved to: %s\n", recordingFile)
		}
	}

	return nil
}

// buildPipeline constructs the gain, converter and FFT stack from the
// validated configuration.
func buildPipeline(cfg *config.Config) (*analysis.Coordinator, error) {
	windowType, err := analysis.ParseWindowType(cfg.Analysis.Window)
	if err != nil {
		return nil, err
	}
	scale, ok := analysis.ParseFreqScale(cfg.Analysis.Scale)
	if !ok {
		return nil, fmt.Errorf("unknown frequency scale %q", cfg.Analysis.Scale)
	}
	overflow, ok := analysis.ParseOverflowPolicy(cfg.Analysis.Overflow)
	if !ok {
		return nil, fmt.Errorf("unknown overflow policy %q", cfg.Analysis.Overflow)
	}

	gain := analysis.NewGainParams()
	if err := gain.SetRange(cfg.Analysis.MinDb, cfg.Analysis.MaxDb); err != nil {
		return nil, err
	}
	if err := gain.SetAmplification(cfg.Analysis.Amplification); err != nil {
		return nil, err
	}

	return analysis.NewCoordinator(analysis.CoordinatorConfig{
		FFT: analysis.FFTConfig{
			FrameSize:  cfg.Analysis.FFTSize,
			QueueDepth: cfg.Analysis.QueueDepth,
			Window:     windowType,
			KaiserBeta: cfg.Analysis.KaiserBeta,
			Overflow:   overflow,
		},
		Converter: analysis.ConverterConfig{
			Bands: cfg.Analysis.Bands,
		},
		Scale: scale,
	}, gain)
}

// startPublishers wires the enabled network transports to the coordinator.
func startPublishers(cfg *config.Config, coordinator *analysis.Coordinator) ([]interface{ Close() error }, error) {
	var closers []interface{ Close() error }

	if cfg.Transport.WebsocketEnabled {
		frameRate := cfg.Display.FrameRate
		if frameRate <= 0 {
			frameRate = 60
		}
		wst := transport.NewWebSocketTransport(cfg.Transport.WebsocketAddr)
		pub, err := transport.NewPublisher(transport.PublisherConfig{
			Bars:      cfg.Display.Bars,
			Interval:  time.Second / time.Duration(frameRate),
			Smoothing: cfg.Display.Smoothing,
			Peaks:     analysis.NewPeakTracker(cfg.Display.PeakHold, cfg.Display.PeakFall),
		}, coordinator, wst)
		if err != nil {
			wst.Close()
			return closers, err
		}
		pub.Start()
		closers = append(closers, pub, wst)
	}

	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			return closers, err
		}
		pub, err := udp.NewPublisher(cfg.UDPInterval(), cfg.Display.Bars,
			cfg.Display.Smoothing, sender, coordinator)
		if err != nil {
			sender.Close()
			return closers, err
		}
		pub.Start()
		closers = append(closers, pub, sender)
	}

	return closers, nil
}

// executeCommand handles one-off commands that don't require the pipeline,
// such as listing available audio devices.
func executeCommand(command string) error {
	switch command {
	case "list":
		return audio.ListDevices()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}
