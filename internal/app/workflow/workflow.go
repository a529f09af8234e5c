package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/app/decode"
	"github.com/ghalamif/ScanFlow/internal/app/dispatch"
	"github.com/ghalamif/ScanFlow/internal/app/history"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// AttemptState tracks the most recent scan attempt.
type AttemptState string

const (
	AttemptIdle        AttemptState = "idle"
	AttemptCapturing   AttemptState = "capturing"
	AttemptDecoded     AttemptState = "decoded"
	AttemptDispatching AttemptState = "dispatching"
	AttemptSettled     AttemptState = "settled"
)

// Outcome is what one settled attempt produced.
type Outcome struct {
	AttemptID string              `json:"attempt_id"`
	Record    domain.ScanRecord   `json:"record"`
	Results   []domain.SinkResult `json:"results"`
	Status    dispatch.Status     `json:"status"`
}

func (o Outcome) OK() bool { return o.Status.OK() }

// Workflow runs capture → decode → dispatch for camera scans and
// dispatch-only for manual entries, then records the result for display.
type Workflow struct {
	ctrl     *capture.Controller
	listener *decode.Listener
	pipeline *dispatch.Pipeline
	history  *history.History
	obs      ports.Observability
	now      func() time.Time

	mu        sync.Mutex
	state     AttemptState
	capturing bool
	last      *Outcome
}

func New(ctrl *capture.Controller, l *decode.Listener, p *dispatch.Pipeline, h *history.History, obs ports.Observability, now func() time.Time) *Workflow {
	if now == nil {
		now = time.Now
	}
	return &Workflow{
		ctrl:     ctrl,
		listener: l,
		pipeline: p,
		history:  h,
		obs:      obs,
		now:      now,
		state:    AttemptIdle,
	}
}

// Scan captures one code from the camera and dispatches it. Capture errors
// end the attempt and return control to Idle; sink errors only show up in
// the Outcome.
func (w *Workflow) Scan(ctx context.Context) (Outcome, error) {
	prev, prevCapturing := w.beginCapture()

	sess, err := w.ctrl.Start(ctx)
	if errors.Is(err, domain.ErrSessionAlreadyActive) {
		// the running attempt still owns the state
		w.mu.Lock()
		w.state, w.capturing = prev, prevCapturing
		w.mu.Unlock()
		w.obs.LogInfo("scan_start_rejected", ports.Field{Key: "reason", Value: err.Error()})
		return Outcome{}, err
	}
	if err != nil {
		return Outcome{}, w.abort(err)
	}
	defer sess.Stop()

	rec, err := w.listener.Listen(ctx, sess)
	if stopErr := sess.Stop(); stopErr != nil {
		w.obs.LogError("scan_session_release_failed", stopErr, ports.Field{Key: "session", Value: sess.ID()})
	}
	if err != nil {
		return Outcome{}, w.abort(err)
	}

	w.mu.Lock()
	w.state, w.capturing = AttemptDecoded, false
	w.mu.Unlock()
	return w.settle(ctx, rec, true), nil
}

// Manual dispatches operator-entered test data without touching the camera.
// An empty value is rejected before dispatch and leaves history unchanged.
// While a camera scan is capturing, the attempt state stays with that scan.
func (w *Workflow) Manual(ctx context.Context, value string) (Outcome, error) {
	rec, err := decode.Manual(value, w.now())
	if err != nil {
		w.obs.IncCounter("scanflow_malformed_decodes_total", 1)
		w.obs.LogError("manual_entry_rejected", err)
		return Outcome{}, err
	}
	w.obs.IncCounter("scanflow_manual_entries_total", 1)
	w.advance(AttemptDecoded, false)
	return w.settle(ctx, rec, false), nil
}

// Cancel stops the running capture session, if any. Dispatches already in
// flight are not affected.
func (w *Workflow) Cancel() error {
	return w.ctrl.StopActive()
}

func (w *Workflow) State() AttemptState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *Workflow) CaptureState() capture.State {
	return w.ctrl.State()
}

// Last returns the most recently settled outcome.
func (w *Workflow) Last() (Outcome, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.last == nil {
		return Outcome{}, false
	}
	return *w.last, true
}

func (w *Workflow) History() []domain.ScanRecord {
	return w.history.Snapshot()
}

func (w *Workflow) settle(ctx context.Context, rec domain.ScanRecord, fromCamera bool) Outcome {
	w.advance(AttemptDispatching, fromCamera)

	out := Outcome{
		AttemptID: uuid.Must(uuid.NewV7()).String(),
		Record:    rec,
		Results:   w.pipeline.Dispatch(context.WithoutCancel(ctx), rec),
	}
	out.Status = dispatch.Summarize(out.Results)

	w.history.Push(rec)

	w.mu.Lock()
	w.last = &out
	w.mu.Unlock()
	w.advance(AttemptSettled, fromCamera)

	w.obs.IncCounter("scanflow_scans_total", 1)
	w.obs.SetGauge("scanflow_history_length", float64(w.history.Len()))
	fields := []ports.Field{
		{Key: "attempt", Value: out.AttemptID},
		{Key: "symbology", Value: rec.Symbology},
		{Key: "sinks", Value: len(out.Results)},
		{Key: "status", Value: out.Status},
	}
	if out.OK() {
		w.obs.LogInfo("scan_dispatched", fields...)
	} else {
		w.obs.LogError("scan_dispatch_failed", errors.New("no critical sink accepted the record"), fields...)
	}
	return out
}

func (w *Workflow) abort(err error) error {
	w.mu.Lock()
	w.state, w.capturing = AttemptIdle, false
	w.mu.Unlock()
	w.obs.IncCounter("scanflow_capture_failures_total", 1)
	switch {
	case errors.Is(err, domain.ErrScanCancelled):
		w.obs.LogInfo("scan_attempt_ended", ports.Field{Key: "reason", Value: err.Error()})
	default:
		w.obs.LogError("scan_attempt_failed", err)
	}
	return err
}

func (w *Workflow) beginCapture() (AttemptState, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	prev, prevCapturing := w.state, w.capturing
	w.state, w.capturing = AttemptCapturing, true
	return prev, prevCapturing
}

// advance moves the attempt state unless a manual entry would overwrite a
// scan that is still capturing.
func (w *Workflow) advance(s AttemptState, fromCamera bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !fromCamera && w.capturing {
		return
	}
	w.state = s
}
