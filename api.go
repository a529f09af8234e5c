package scanflow

import (
	"time"

	base "github.com/ghalamif/ScanFlow/pkg/scanflow"
)

// Re-exported errors for convenience.
var (
	ErrPermissionDenied     = base.ErrPermissionDenied
	ErrCameraUnavailable    = base.ErrCameraUnavailable
	ErrSessionAlreadyActive = base.ErrSessionAlreadyActive
	ErrMalformedDecode      = base.ErrMalformedDecode
	ErrSinkDeliveryFailed   = base.ErrSinkDeliveryFailed
	ErrScanTimedOut         = base.ErrScanTimedOut
	ErrScanCancelled        = base.ErrScanCancelled
	ErrNoDecode             = base.ErrNoDecode
	ErrChannelSinkClosed    = base.ErrChannelSinkClosed
)

// Type aliases so consumers can import github.com/ghalamif/ScanFlow directly.
type (
	Config            = base.Config
	CaptureConfig     = base.CaptureConfig
	DeviceConfig      = base.DeviceConfig
	Policy            = base.Policy
	HistoryConfig     = base.HistoryConfig
	SinkConfig        = base.SinkConfig
	MetricsConfig     = base.MetricsConfig
	HTTPConfig        = base.HTTPConfig
	Station           = base.Station
	StationOption     = base.StationOption
	DeviceOption      = base.DeviceOption
	SinkOption        = base.SinkOption
	Runtime           = base.Runtime
	RuntimeOption     = base.RuntimeOption
	ScanRecord        = base.ScanRecord
	Symbology         = base.Symbology
	RawDecode         = base.RawDecode
	SinkResult        = base.SinkResult
	SinkTarget        = base.SinkTarget
	Status            = base.Status
	Outcome           = base.Outcome
	AttemptState      = base.AttemptState
	CaptureState      = base.CaptureState
	Sink              = base.Sink
	Camera            = base.Camera
	Stream            = base.Stream
	Scanner           = base.Scanner
	Permission        = base.Permission
	FacingMode        = base.FacingMode
	Observability     = base.Observability
	Field             = base.Field
	RecordHandler     = base.RecordHandler
)

// Config helpers.
func LoadConfig(path string) (*Config, error) {
	return base.LoadConfig(path)
}

// Station builder helpers.
func Open(path string, opts ...StationOption) (*Station, error) {
	return base.Open(path, opts...)
}

func FromConfig(cfg *Config, opts ...StationOption) (*Station, error) {
	return base.FromConfig(cfg, opts...)
}

func WithRuntimeOptions(opts ...RuntimeOption) StationOption {
	return base.WithRuntimeOptions(opts...)
}

func ReportTo(obs Observability) StationOption {
	return base.ReportTo(obs)
}

func UseCamera(cam Camera) DeviceOption {
	return base.UseCamera(cam)
}

func UseScanner(sc Scanner) DeviceOption {
	return base.UseScanner(sc)
}

func Facing(mode FacingMode) DeviceOption {
	return base.Facing(mode)
}

func OnlyFormats(formats ...Symbology) DeviceOption {
	return base.OnlyFormats(formats...)
}

func StampWith(now func() time.Time) DeviceOption {
	return base.StampWith(now)
}

func ToSink(s Sink, critical bool) SinkOption {
	return base.ToSink(s, critical)
}

func ToTarget(t SinkTarget) SinkOption {
	return base.ToTarget(t)
}

func ToCallback(name string, critical bool, fn RecordHandler) SinkOption {
	return base.ToCallback(name, critical, fn)
}

// Runtime and options.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

func WithCamera(cam Camera) RuntimeOption {
	return base.WithCamera(cam)
}

func WithScanner(sc Scanner) RuntimeOption {
	return base.WithScanner(sc)
}

func WithSink(s Sink, critical bool) RuntimeOption {
	return base.WithSink(s, critical)
}

func WithSinkTarget(t SinkTarget) RuntimeOption {
	return base.WithSinkTarget(t)
}

func WithObservability(obs Observability) RuntimeOption {
	return base.WithObservability(obs)
}

func WithClock(now func() time.Time) RuntimeOption {
	return base.WithClock(now)
}

// Sink adapters.
func NewCallbackSink(name string, fn RecordHandler) Sink {
	return base.NewCallbackSink(name, fn)
}

func NewChannelSink(name string, buffer int) (Sink, <-chan ScanRecord, func()) {
	return base.NewChannelSink(name, buffer)
}
