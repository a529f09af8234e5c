package scanflow

import (
	"context"
	"fmt"
	"time"

	"github.com/ghalamif/ScanFlow/internal/app/decode"
)

// Station describes one scan point: the configuration it loads, the device
// it captures from and the sinks that receive each accepted record.
type Station struct {
	cfg  *Config
	opts []RuntimeOption
}

// StationOption adjusts a Station right after its config is loaded.
type StationOption func(*Station)

// DeviceOption selects or replaces the capture device.
type DeviceOption func(*Station)

// SinkOption adds a destination for scan records.
type SinkOption func(*Station)

// Open loads the YAML config at path.
func Open(path string, opts ...StationOption) (*Station, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg, opts...)
}

func FromConfig(cfg *Config, opts ...StationOption) (*Station, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	s := &Station{cfg: cfg}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Config is shared with the station; edits made before Deliver take effect.
func (s *Station) Config() *Config {
	if s == nil {
		return nil
	}
	return s.cfg
}

// Device applies capture-side choices. Without a UseCamera option the
// station opens the device file mapped to the configured facing mode.
func (s *Station) Device(opts ...DeviceOption) *Station {
	if s == nil {
		return nil
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Deliver builds the Runtime. Any SinkOption replaces the sinks listed in
// the config file.
func (s *Station) Deliver(opts ...SinkOption) (*Runtime, error) {
	if s == nil {
		return nil, fmt.Errorf("station is nil")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return NewRuntime(s.cfg, s.opts...)
}

// Run serves the scan API until ctx is done.
func (s *Station) Run(ctx context.Context, opts ...SinkOption) error {
	rt, err := s.Deliver(opts...)
	if err != nil {
		return err
	}
	return rt.Run(ctx)
}

func (s *Station) add(opts ...RuntimeOption) {
	for _, opt := range opts {
		if opt != nil {
			s.opts = append(s.opts, opt)
		}
	}
}

// WithRuntimeOptions passes RuntimeOption values straight to NewRuntime.
func WithRuntimeOptions(opts ...RuntimeOption) StationOption {
	return func(s *Station) {
		if s != nil {
			s.add(opts...)
		}
	}
}

// ReportTo replaces the Prometheus logger and metrics.
func ReportTo(obs Observability) StationOption {
	return func(s *Station) {
		if s != nil && obs != nil {
			s.add(WithObservability(obs))
		}
	}
}

// UseCamera swaps the device-file camera. A custom camera needs UseScanner too.
func UseCamera(cam Camera) DeviceOption {
	return func(s *Station) {
		if s != nil && cam != nil {
			s.add(WithCamera(cam))
		}
	}
}

func UseScanner(sc Scanner) DeviceOption {
	return func(s *Station) {
		if s != nil && sc != nil {
			s.add(WithScanner(sc))
		}
	}
}

// Facing picks the environment or user camera.
func Facing(mode FacingMode) DeviceOption {
	return func(s *Station) {
		if s != nil && mode != "" {
			s.cfg.Capture.FacingMode = mode
		}
	}
}

// OnlyFormats narrows the symbologies the scanner reports. Names are folded
// the same way as decoded formats, so "qr" and "QR_CODE" both select QR.
func OnlyFormats(formats ...Symbology) DeviceOption {
	return func(s *Station) {
		if s == nil || len(formats) == 0 {
			return
		}
		folded := make([]Symbology, 0, len(formats))
		for _, f := range formats {
			folded = append(folded, decode.CanonicalSymbology(string(f)))
		}
		s.cfg.Capture.Formats = folded
	}
}

// StampWith sets the clock used for CapturedAt.
func StampWith(now func() time.Time) DeviceOption {
	return func(s *Station) {
		if s != nil && now != nil {
			s.add(WithClock(now))
		}
	}
}

// ToSink delivers to s. Critical sinks decide whether an attempt succeeded.
func ToSink(sk Sink, critical bool) SinkOption {
	return func(s *Station) {
		if s != nil && sk != nil {
			s.add(WithSink(sk, critical))
		}
	}
}

// ToTarget delivers with an explicit timeout.
func ToTarget(t SinkTarget) SinkOption {
	return func(s *Station) {
		if s != nil {
			s.add(WithSinkTarget(t))
		}
	}
}

func ToCallback(name string, critical bool, fn RecordHandler) SinkOption {
	return func(s *Station) {
		if s != nil && fn != nil {
			s.add(WithSink(NewCallbackSink(name, fn), critical))
		}
	}
}
