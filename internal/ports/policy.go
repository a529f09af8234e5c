package ports

import (
	"time"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

// Policy bounds a single capture attempt.
type Policy struct {
	Formats        []domain.Symbology `yaml:"formats"`
	FacingMode     FacingMode         `yaml:"facing_mode"`
	AcquireTimeout time.Duration      `yaml:"acquire_timeout"`
	ScanTimeout    time.Duration      `yaml:"scan_timeout"` // 0 waits until stop
}
