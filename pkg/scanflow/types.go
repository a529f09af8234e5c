package scanflow

import (
	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/app/dispatch"
	"github.com/ghalamif/ScanFlow/internal/app/workflow"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// ScanRecord is one accepted code: value, symbology and capture time.
type ScanRecord = domain.ScanRecord

// Symbology names the encoding scheme of a decoded code.
type Symbology = domain.Symbology

// RawDecode is what a Scanner reports for one decoded frame.
type RawDecode = domain.RawDecode

// SinkResult reports how delivery to one sink went.
type SinkResult = domain.SinkResult

// Sink receives scan records. Implement it to push codes into any API or database.
type Sink = ports.Sink

// SinkTarget pairs a Sink with its criticality and delivery timeout.
type SinkTarget = dispatch.Target

// Status summarizes an attempt's sink results.
type Status = dispatch.Status

// Outcome is the settled result of one scan or manual entry.
type Outcome = workflow.Outcome

// AttemptState tracks a scan attempt from capture to settlement.
type AttemptState = workflow.AttemptState

// CaptureState is the camera session lifecycle state.
type CaptureState = capture.State

// Camera hands out exclusive video streams.
type Camera = ports.Camera

// Stream is one acquired camera stream.
type Stream = ports.Stream

// Scanner is the platform decoding capability.
type Scanner = ports.Scanner

// Permission is the result of a camera permission request.
type Permission = ports.Permission

// FacingMode selects which camera to acquire.
type FacingMode = ports.FacingMode

// Observability emits logs and metrics about scans and sink deliveries.
type Observability = ports.Observability

// Field is a structured log field used by Observability implementations.
type Field = ports.Field

const (
	StatusDelivered = dispatch.StatusDelivered
	StatusPartial   = dispatch.StatusPartial
	StatusFailed    = dispatch.StatusFailed

	FacingEnvironment = ports.FacingEnvironment
	FacingUser        = ports.FacingUser

	PermissionGranted = ports.PermissionGranted
	PermissionDenied  = ports.PermissionDenied

	SymbologyQR      = domain.SymbologyQR
	SymbologyCode128 = domain.SymbologyCode128
	SymbologyCode39  = domain.SymbologyCode39
	SymbologyCode93  = domain.SymbologyCode93
	SymbologyEAN13   = domain.SymbologyEAN13
	SymbologyEAN8    = domain.SymbologyEAN8
	SymbologyUPCA    = domain.SymbologyUPCA
	SymbologyUPCE    = domain.SymbologyUPCE
	SymbologyManual  = domain.SymbologyManual
)

var (
	ErrPermissionDenied     = domain.ErrPermissionDenied
	ErrCameraUnavailable    = domain.ErrCameraUnavailable
	ErrSessionAlreadyActive = domain.ErrSessionAlreadyActive
	ErrMalformedDecode      = domain.ErrMalformedDecode
	ErrSinkDeliveryFailed   = domain.ErrSinkDeliveryFailed
	ErrScanTimedOut         = domain.ErrScanTimedOut
	ErrScanCancelled        = domain.ErrScanCancelled
	ErrNoDecode             = domain.ErrNoDecode
)
