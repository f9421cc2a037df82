// SPDX-License-Identifier: MIT
package config

// Core configuration constants that define the boundaries and defaults
// for the analysis pipeline.
const (
	// Default values for the capture and analysis configuration
	DefaultChannels        = 1             // Mono capture
	DefaultDeviceID        = MinDeviceID   // System default device
	DefaultSampleRate      = 44100         // CD-quality audio
	DefaultFramesPerBuffer = 512           // Balanced latency/performance
	DefaultLowLatency      = false         // Standard latency mode
	DefaultFFTSize         = 2048          // Analysis frame length
	DefaultWindow          = "hann"        // FFT window function
	DefaultScale           = "logarithmic" // Frequency axis for display
	DefaultBands           = 128           // Converter band count (warped scales)
	DefaultBars            = 64            // Renderer bar count
	DefaultOverflow        = "drop-oldest" // Ingest backpressure policy

	// Gain and display defaults
	DefaultMinDb         = -130.0
	DefaultMaxDb         = -20.0
	DefaultAmplification = 2.0
	DefaultSmoothing     = 0.35
	DefaultPeakHold      = 1.1 // seconds
	DefaultPeakFall      = 1.5 // normalized units per second

	// Hardware and processing limits
	MinDeviceID   = -1     // -1 represents system default device
	MinSampleRate = 8000   // Minimum usable sample rate (Hz)
	MaxSampleRate = 192000 // Maximum supported sample rate (Hz)
	MaxFFTSize    = 16384  // Largest supported analysis frame
)

// Config is the main application configuration, loaded from YAML with env
// overrides, then layered with CLI flags in cmd.
type Config struct {
	Debug    bool   `yaml:"debug"`             // Verbose logging and debug features.
	LogLevel string `yaml:"log_level"`         // Logging level ("debug", "info", "warn", "error").
	Command  string `yaml:"command,omitempty"` // One-off command instead of running the pipeline (e.g. "list").
	TUIMode  bool   `yaml:"-"`                 // Run the terminal renderer (set by cmd, not the file).

	Audio     AudioConfig     `yaml:"audio"`     // Capture settings.
	Analysis  AnalysisConfig  `yaml:"analysis"`  // Spectral pipeline settings.
	Display   DisplayConfig   `yaml:"display"`   // Render-side settings.
	Recording RecordingConfig `yaml:"recording"` // Input-tap recording settings.
	Transport TransportConfig `yaml:"transport"` // Network publishing settings.
}

// AudioConfig holds capture device settings.
type AudioConfig struct {
	InputDevice     int     `yaml:"input_device"`      // PortAudio device index (-1 for default).
	SampleRate      float64 `yaml:"sample_rate"`       // Sample rate in Hz.
	FramesPerBuffer int     `yaml:"frames_per_buffer"` // Capture block size in frames.
	LowLatency      bool    `yaml:"low_latency"`       // Request low latency from the device.
	Channels        int     `yaml:"channels"`          // Input channels (1 mono, 2 stereo).
	GateThreshold   float64 `yaml:"gate_threshold"`    // Amplitude gate [0,1]; 0 disables.
}

// AnalysisConfig holds the spectral pipeline settings.
type AnalysisConfig struct {
	FFTSize       int     `yaml:"fft_size"`       // Analysis frame length, forced to a power of two.
	Window        string  `yaml:"window"`         // Window function name (bartlett/blackman/hann/hamming/kaiser).
	KaiserBeta    float64 `yaml:"kaiser_beta"`    // Kaiser shape parameter (0 = default).
	Scale         string  `yaml:"scale"`          // Frequency scale (linear/logarithmic/mel/bark/erb).
	Bands         int     `yaml:"bands"`          // Band count for warped scales.
	MinDb         float64 `yaml:"min_db"`         // Lower dB clamp.
	MaxDb         float64 `yaml:"max_db"`         // Upper dB clamp.
	Amplification float64 `yaml:"amplification"`  // Post-normalization boost (>= 0).
	Overflow      string  `yaml:"overflow"`       // Backpressure policy (drop-oldest/block).
	QueueDepth    int     `yaml:"queue_depth"`    // Ingest queue capacity (0 = default).
}

// DisplayConfig holds render-side settings consumed by the TUI and transports.
type DisplayConfig struct {
	Bars      int     `yaml:"bars"`       // Number of rendered bars.
	Smoothing float64 `yaml:"smoothing"`  // Exponential smoothing factor [0,1].
	PeakHold  float64 `yaml:"peak_hold"`  // Seconds a peak cap holds before decay.
	PeakFall  float64 `yaml:"peak_fall"`  // Peak decay speed once falling.
	FrameRate int     `yaml:"frame_rate"` // Render pull cadence in Hz (0 = 60).
}

// RecordingConfig holds settings for recording the raw input tap.
type RecordingConfig struct {
	Enabled   bool   `yaml:"enabled"`    // Record captured audio to file.
	OutputDir string `yaml:"output_dir"` // Directory for recorded files.
	BitDepth  int    `yaml:"bit_depth"`  // Bit depth for recordings (16 or 24).
}

// TransportConfig holds settings for publishing spectra over the network.
type TransportConfig struct {
	WebsocketEnabled bool   `yaml:"websocket_enabled"` // Serve spectra over websocket.
	WebsocketAddr    string `yaml:"websocket_addr"`    // Listen address (e.g. ":8080").
	UDPEnabled       bool   `yaml:"udp_enabled"`       // Send binary spectrum packets over UDP.
	UDPTargetAddress string `yaml:"udp_target_address"` // Target "host:port".
	UDPSendInterval  string `yaml:"udp_send_interval"` // Interval between packets (Go duration).
}

// NewConfig creates a Config with default values. This is the base
// configuration before file, env and flag layers apply.
func NewConfig() *Config {
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Audio: AudioConfig{
			InputDevice:     DefaultDeviceID,
			SampleRate:      DefaultSampleRate,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Channels:        DefaultChannels,
			GateThreshold:   0,
		},
		Analysis: AnalysisConfig{
			FFTSize:       DefaultFFTSize,
			Window:        DefaultWindow,
			Scale:         DefaultScale,
			Bands:         DefaultBands,
			MinDb:         DefaultMinDb,
			MaxDb:         DefaultMaxDb,
			Amplification: DefaultAmplification,
			Overflow:      DefaultOverflow,
		},
		Display: DisplayConfig{
			Bars:      DefaultBars,
			Smoothing: DefaultSmoothing,
			PeakHold:  DefaultPeakHold,
			PeakFall:  DefaultPeakFall,
			FrameRate: 60,
		},
		Recording: RecordingConfig{
			Enabled:   false,
			OutputDir: "./recordings",
			BitDepth:  16,
		},
		Transport: TransportConfig{
			WebsocketEnabled: false,
			WebsocketAddr:    ":8080",
			UDPEnabled:       false,
			UDPTargetAddress: "127.0.0.1:9090",
			UDPSendInterval:  "33ms",
		},
	}
}
