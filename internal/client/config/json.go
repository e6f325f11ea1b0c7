package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/voiceroll/voiceroll/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations are
// given in whole units (seconds, milliseconds) so the file stays editable by
// hand.
type JsonConfig struct {
	Endpoint              string `json:"endpoint"`
	StateDBPath           string `json:"state_db_path"`
	SamplePath            string `json:"sample_path"`
	ScanPath              string `json:"scan_path"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	RetryMax              uint64 `json:"retry_max"`
	RetryBaseDelayMs      int    `json:"retry_base_delay_ms"`
	MinCaptureSeconds     int    `json:"min_capture_seconds"`
	MaxCaptureSeconds     int    `json:"max_capture_seconds"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path is resolved from the -c/-config flags; when absent, nothing is
// loaded. Only fields present in the file override the current values.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Endpoint != "" {
		cfg.Endpoint = jc.Endpoint
	}
	if jc.StateDBPath != "" {
		cfg.StateDBPath = jc.StateDBPath
	}
	if jc.SamplePath != "" {
		cfg.SamplePath = jc.SamplePath
	}
	if jc.ScanPath != "" {
		cfg.ScanPath = jc.ScanPath
	}
	if jc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(jc.RequestTimeoutSeconds) * time.Second
	}
	if jc.RetryMax > 0 {
		cfg.RetryMax = jc.RetryMax
	}
	if jc.RetryBaseDelayMs > 0 {
		cfg.RetryBaseDelay = time.Duration(jc.RetryBaseDelayMs) * time.Millisecond
	}
	if jc.MinCaptureSeconds > 0 {
		cfg.MinCaptureSeconds = jc.MinCaptureSeconds
	}
	if jc.MaxCaptureSeconds > 0 {
		cfg.MaxCaptureSeconds = jc.MaxCaptureSeconds
	}
}
