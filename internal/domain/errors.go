package domain

import "errors"

var (
	// ErrPermissionDenied means the user or platform refused camera access.
	ErrPermissionDenied = errors.New("scanflow: camera permission denied")
	// ErrCameraUnavailable means the stream could not be acquired after permission was granted.
	ErrCameraUnavailable = errors.New("scanflow: camera unavailable")
	// ErrSessionAlreadyActive rejects a second start while a session is streaming or decoding.
	ErrSessionAlreadyActive = errors.New("scanflow: capture session already active")
	// ErrMalformedDecode means a decode event or manual entry carried no usable payload.
	ErrMalformedDecode = errors.New("scanflow: malformed decode")
	// ErrSinkDeliveryFailed is wrapped by every sink failure recorded in a SinkResult.
	ErrSinkDeliveryFailed = errors.New("scanflow: sink delivery failed")
	// ErrScanTimedOut means no valid decode arrived within the configured scan timeout.
	ErrScanTimedOut = errors.New("scanflow: scan timed out")
	// ErrScanCancelled means the session was stopped before a decode arrived.
	ErrScanCancelled = errors.New("scanflow: scan cancelled")
	// ErrNoDecode means the decode channel closed without producing any code.
	ErrNoDecode = errors.New("scanflow: no code decoded")
)
