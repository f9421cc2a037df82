package cmd

import (
	"os"

	"spectra/internal/config"
	"spectra/pkg/build"

	"github.com/spf13/cobra"
)

// configPathArg pre-scans the arguments for --config so the file layer can
// load before flag defaults bind to the loaded values.
func configPathArg(args []string) string {
	for i, arg := range args {
		if arg == "--config" && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

// ParseArgs layers the configuration: defaults, YAML file, env overrides,
// then command line flags. Flag defaults are the already-loaded values, so
// only flags the user actually passes take effect over the file.
func ParseArgs() (*config.Config, error) {
	buildInfo := build.GetBuildFlags()

	options, err := config.LoadConfig(configPathArg(os.Args[1:]))
	if err != nil {
		return nil, err
	}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.TUIMode = true
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			options.Command = "list"
			options.TUIMode = false
		},
	}
	rootCmd.AddCommand(listCmd)

	var configPath string
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Path to a YAML configuration file")

	// Audio Device Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Audio.InputDevice, "device", "d", options.Audio.InputDevice,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.Channels, "channels", "c", options.Audio.Channels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&options.Audio.SampleRate, "sample-rate", "s", options.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&options.Audio.FramesPerBuffer, "frames-per-buffer", "b", options.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&options.Audio.LowLatency, "low-latency", "l", options.Audio.LowLatency,
		"Use low latency mode for real-time processing")
	rootCmd.PersistentFlags().Float64Var(&options.Audio.GateThreshold, "gate", options.Audio.GateThreshold,
		"Amplitude gate threshold in [0,1]; 0 disables the gate")

	// Analysis Configuration
	rootCmd.PersistentFlags().IntVarP(&options.Analysis.FFTSize, "fft-size", "f", options.Analysis.FFTSize,
		"Analysis frame length; rounded up to a power of two")
	rootCmd.PersistentFlags().StringVarP(&options.Analysis.Window, "window", "w", options.Analysis.Window,
		"Window function (bartlett, blackman, hann, hamming, kaiser)")
	rootCmd.PersistentFlags().StringVar(&options.Analysis.Scale, "scale", options.Analysis.Scale,
		"Frequency scale (linear, logarithmic, mel, bark, erb)")
	rootCmd.PersistentFlags().IntVar(&options.Analysis.Bands, "bands", options.Analysis.Bands,
		"Band count for warped frequency scales")
	rootCmd.PersistentFlags().Float64Var(&options.Analysis.MinDb, "min-db", options.Analysis.MinDb,
		"Lower dB clamp for magnitude compression")
	rootCmd.PersistentFlags().Float64Var(&options.Analysis.MaxDb, "max-db", options.Analysis.MaxDb,
		"Upper dB clamp for magnitude compression")
	rootCmd.PersistentFlags().Float64VarP(&options.Analysis.Amplification, "amplification", "a", options.Analysis.Amplification,
		"Post-normalization amplification (>= 0)")
	rootCmd.PersistentFlags().StringVar(&options.Analysis.Overflow, "overflow", options.Analysis.Overflow,
		"Ingest backpressure policy (drop-oldest, block)")
	rootCmd.PersistentFlags().Float64Var(&options.Analysis.KaiserBeta, "kaiser-beta", options.Analysis.KaiserBeta,
		"Kaiser window shape parameter (0 = default)")

	// Display Configuration
	rootCmd.PersistentFlags().IntVar(&options.Display.Bars, "bars", options.Display.Bars,
		"Number of rendered spectrum bars")
	rootCmd.PersistentFlags().Float64Var(&options.Display.Smoothing, "smoothing", options.Display.Smoothing,
		"Exponential smoothing factor in [0,1]")
	rootCmd.PersistentFlags().IntVar(&options.Display.FrameRate, "fps", options.Display.FrameRate,
		"Render pull cadence in frames per second")
	rootCmd.PersistentFlags().Float64Var(&options.Display.PeakHold, "peak-hold", options.Display.PeakHold,
		"Seconds a peak cap holds before it starts to fall")
	rootCmd.PersistentFlags().Float64Var(&options.Display.PeakFall, "peak-fall", options.Display.PeakFall,
		"Peak cap fall speed in normalized units per second")

	// Recording Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Recording.Enabled, "record", "r", options.Recording.Enabled,
		"Record captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&options.Recording.OutputDir, "output-dir", "o", options.Recording.OutputDir,
		"Directory recorded WAV files are written to")

	// Transport Configuration
	rootCmd.PersistentFlags().BoolVar(&options.Transport.WebsocketEnabled, "ws", options.Transport.WebsocketEnabled,
		"Serve processed spectra over WebSocket")
	rootCmd.PersistentFlags().StringVar(&options.Transport.WebsocketAddr, "ws-addr", options.Transport.WebsocketAddr,
		"WebSocket listen address")
	rootCmd.PersistentFlags().BoolVar(&options.Transport.UDPEnabled, "udp", options.Transport.UDPEnabled,
		"Send binary spectrum packets over UDP")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPTargetAddress, "udp-target", options.Transport.UDPTargetAddress,
		"UDP target address (host:port)")
	rootCmd.PersistentFlags().StringVar(&options.Transport.UDPSendInterval, "udp-interval", options.Transport.UDPSendInterval,
		"Interval between UDP packets (Go duration)")

	// Debug Configuration
	rootCmd.PersistentFlags().BoolVarP(&options.Debug, "verbose", "v", options.Debug,
		"Show verbose output")
	rootCmd.PersistentFlags().StringVar(&options.LogLevel, "log-level", options.LogLevel,
		"Logging level (debug, info, warn, error)")

	// Execute the CLI
	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	return options, nil
}
