package scanflow

import (
	"github.com/ghalamif/ScanFlow/internal/adapters/device"
	"github.com/ghalamif/ScanFlow/internal/app/config"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// Config re-exports the root configuration struct so downstream projects can
// construct or modify it programmatically.
type Config = config.Config

type (
	// CaptureConfig selects the capture device and the capture policy.
	CaptureConfig = config.CaptureConfig
	// DeviceConfig maps facing modes to device paths.
	DeviceConfig = device.Config
	// Policy holds the formats and timeouts used by capture and decode.
	Policy = ports.Policy
	// HistoryConfig bounds the in-memory history.
	HistoryConfig = config.HistoryConfig
	// SinkConfig describes one configured dispatch destination.
	SinkConfig = config.SinkConfig
	// MetricsConfig configures the metrics HTTP server.
	MetricsConfig = config.MetricsConfig
	// HTTPConfig configures the scan API server.
	HTTPConfig = config.HTTPConfig
)

const (
	SinkHTTP      = config.SinkHTTP
	SinkDatastore = config.SinkDatastore
	SinkFunction  = config.SinkFunction
)

// LoadConfig loads YAML from disk using the internal config reader.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}
