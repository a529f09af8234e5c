package ports

import (
	"context"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

type Sink interface {
	Deliver(ctx context.Context, rec domain.ScanRecord) error
	Name() string
}
