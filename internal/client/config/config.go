// Package config assembles runtime settings for the voiceroll CLI from
// defaults, an optional JSON file, and command-line flags, in that order of
// precedence (later sources win).
package config

import "time"

// Config holds runtime settings for the voiceroll CLI.
type Config struct {
	// Endpoint is the base URL of the attendance service.
	Endpoint string

	// StateDBPath is the local sqlite file holding the persisted session.
	StateDBPath string

	// SamplePath is the audio file the CLI recorder reads its sample from.
	SamplePath string

	// ScanPath is the file the CLI scanner reads a session payload from
	// when 'scan' is invoked without an inline code.
	ScanPath string

	// RequestTimeout bounds each network call.
	RequestTimeout time.Duration

	// RetryMax and RetryBaseDelay shape the transient-failure policy.
	RetryMax       uint64
	RetryBaseDelay time.Duration

	// MinCaptureSeconds and MaxCaptureSeconds bound the recording timer.
	MinCaptureSeconds int
	MaxCaptureSeconds int
}

// LoadDefaults populates c with the product defaults.
func (c *Config) LoadDefaults() {
	c.Endpoint = "http://localhost:8000"
	c.StateDBPath = "voiceroll.db"
	c.SamplePath = "sample.wav"
	c.ScanPath = "scan.json"
	c.RequestTimeout = 30 * time.Second
	c.RetryMax = 3
	c.RetryBaseDelay = time.Second
	c.MinCaptureSeconds = 5
	c.MaxCaptureSeconds = 30
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from JSON (if present) and command-line flags (if present).
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
