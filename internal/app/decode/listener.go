package decode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// Listener subscribes to the scanner's decode channel for one session and
// yields at most one record.
type Listener struct {
	scanner ports.Scanner
	obs     ports.Observability
	now     func() time.Time
	timeout time.Duration
	formats []domain.Symbology
}

func NewListener(sc ports.Scanner, pol ports.Policy, obs ports.Observability, now func() time.Time) *Listener {
	if now == nil {
		now = time.Now
	}
	formats := pol.Formats
	if len(formats) == 0 {
		formats = domain.CanonicalSymbologies
	}
	return &Listener{scanner: sc, obs: obs, now: now, timeout: pol.ScanTimeout, formats: formats}
}

// Listen waits for the first non-empty decode on sess. Empty decodes are
// counted and skipped. The caller must stop sess once Listen returns.
func (l *Listener) Listen(ctx context.Context, sess *capture.Session) (domain.ScanRecord, error) {
	if err := sess.BeginDecode(); err != nil {
		return domain.ScanRecord{}, fmt.Errorf("%w: %v", domain.ErrScanCancelled, err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if l.timeout > 0 {
		runCtx, cancel = context.WithTimeout(runCtx, l.timeout)
		defer cancel()
	}

	events, err := l.scanner.StartDecode(runCtx, sess.Stream(), l.formats)
	if err != nil {
		return domain.ScanRecord{}, fmt.Errorf("%w: start decode: %v", domain.ErrCameraUnavailable, err)
	}

	for {
		select {
		case raw, ok := <-events:
			if !ok {
				return domain.ScanRecord{}, domain.ErrNoDecode
			}
			rec, err := Normalize(raw, l.now())
			if err != nil {
				l.obs.IncCounter("scanflow_malformed_decodes_total", 1)
				l.obs.LogError("decode_malformed", err, ports.Field{Key: "session", Value: sess.ID()})
				continue
			}
			return rec, nil
		case <-sess.Done():
			return domain.ScanRecord{}, fmt.Errorf("%w: session %s stopped", domain.ErrScanCancelled, sess.ID())
		case <-runCtx.Done():
			if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return domain.ScanRecord{}, fmt.Errorf("%w after %s", domain.ErrScanTimedOut, l.timeout)
			}
			return domain.ScanRecord{}, fmt.Errorf("%w: %v", domain.ErrScanCancelled, ctx.Err())
		}
	}
}
