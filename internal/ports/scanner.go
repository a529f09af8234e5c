package ports

import (
	"context"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

// Permission is the platform's answer to a camera access request.
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Scanner is the external decoding capability. StartDecode may deliver a
// single result and close the channel (single-shot) or keep delivering
// attempts until StopDecode is called or ctx ends (continuous).
type Scanner interface {
	RequestPermission(ctx context.Context) (Permission, error)
	StartDecode(ctx context.Context, stream Stream, formats []domain.Symbology) (<-chan domain.RawDecode, error)
	StopDecode() error
}
