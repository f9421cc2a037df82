// SPDX-License-Identifier: MIT
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file specified by path. If path
// is empty, it searches default locations ("config.yaml"). If no file is
// found, built-in defaults are used. Environment variable overrides apply
// after the file layer, then the result is validated.
func LoadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{"config.yaml"}
		found := false
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				found = true
				break
			}
		}
		if !found {
			cfg.applyEnvOverrides()
			if err := cfg.Validate(); err != nil {
				return nil, fmt.Errorf("invalid default configuration: %w", err)
			}
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Env overrides apply AFTER the file layer.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with. Invalid
// gain and smoothing settings are caught here, before any component is
// constructed with them.
func (c *Config) Validate() error {
	if c.Audio.SampleRate < MinSampleRate || c.Audio.SampleRate > MaxSampleRate {
		return fmt.Errorf("audio.sample_rate %.0f outside [%d, %d]", c.Audio.SampleRate, MinSampleRate, MaxSampleRate)
	}
	if c.Audio.FramesPerBuffer <= 0 {
		return fmt.Errorf("audio.frames_per_buffer must be positive, got %d", c.Audio.FramesPerBuffer)
	}
	if c.Audio.Channels < 1 || c.Audio.Channels > 2 {
		return fmt.Errorf("audio.channels must be 1 or 2, got %d", c.Audio.Channels)
	}
	if c.Analysis.FFTSize < 2 || c.Analysis.FFTSize > MaxFFTSize {
		return fmt.Errorf("analysis.fft_size %d outside [2, %d]", c.Analysis.FFTSize, MaxFFTSize)
	}
	if c.Analysis.MinDb >= c.Analysis.MaxDb {
		return fmt.Errorf("analysis.min_db %.1f must be below analysis.max_db %.1f", c.Analysis.MinDb, c.Analysis.MaxDb)
	}
	if c.Analysis.Amplification < 0 {
		return fmt.Errorf("analysis.amplification must be >= 0, got %.2f", c.Analysis.Amplification)
	}
	if c.Display.Smoothing < 0 || c.Display.Smoothing > 1 {
		return fmt.Errorf("display.smoothing %.2f outside [0, 1]", c.Display.Smoothing)
	}
	if c.Display.Bars <= 0 {
		return fmt.Errorf("display.bars must be positive, got %d", c.Display.Bars)
	}
	if c.Transport.UDPEnabled {
		if _, err := time.ParseDuration(c.Transport.UDPSendInterval); err != nil {
			return fmt.Errorf("transport.udp_send_interval: %w", err)
		}
	}
	return nil
}

// UDPInterval returns the parsed UDP send interval, defaulting to ~30Hz on
// a missing or malformed value (Validate rejects malformed values when UDP
// is enabled, so the fallback only covers the disabled case).
func (c *Config) UDPInterval() time.Duration {
	d, err := time.ParseDuration(c.Transport.UDPSendInterval)
	if err != nil || d <= 0 {
		return 33 * time.Millisecond
	}
	return d
}

// applyEnvOverrides layers ENV_* variables over the loaded configuration.
func (c *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Debug = bVal
		}
	}

	// ENV_UDP_{...} overrides for the transport layer.
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.UDPEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		c.Transport.UDPTargetAddress = val
	}
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if _, err := time.ParseDuration(val); err == nil {
			c.Transport.UDPSendInterval = val
		}
	}

	// ENV_WS_{...} overrides for the websocket broadcaster.
	if val, ok := os.LookupEnv("ENV_WS_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			c.Transport.WebsocketEnabled = bVal
		}
	}
	if val, ok := os.LookupEnv("ENV_WS_ADDR"); ok {
		c.Transport.WebsocketAddr = val
	}
}
