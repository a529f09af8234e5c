package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// Target is one configured sink plus its delivery policy.
type Target struct {
	Sink     ports.Sink
	Critical bool
	Timeout  time.Duration // 0 means no per-sink deadline
}

// Status summarises a dispatch for the user-facing notification.
type Status string

const (
	StatusDelivered Status = "delivered"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// OK reports whether the attempt should be shown as a success.
func (s Status) OK() bool { return s == StatusDelivered || s == StatusPartial }

// Pipeline fans a record out to its targets. A sink failure is captured in
// that sink's SinkResult and never escapes Dispatch.
type Pipeline struct {
	targets []Target
	obs     ports.Observability
}

func New(targets []Target, obs ports.Observability) *Pipeline {
	return &Pipeline{targets: append([]Target(nil), targets...), obs: obs}
}

func (p *Pipeline) Targets() []Target {
	return append([]Target(nil), p.targets...)
}

// Dispatch issues every delivery in configured order and returns once all of
// them have settled. results[i] always belongs to targets[i].
func (p *Pipeline) Dispatch(ctx context.Context, rec domain.ScanRecord) []domain.SinkResult {
	results := make([]domain.SinkResult, len(p.targets))

	var wg sync.WaitGroup
	for i, t := range p.targets {
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			results[i] = p.deliver(ctx, t, rec)
		}(i, t)
	}
	wg.Wait()

	return results
}

func (p *Pipeline) deliver(ctx context.Context, t Target, rec domain.ScanRecord) (res domain.SinkResult) {
	name := t.Sink.Name()
	res = domain.SinkResult{SinkName: name, Critical: t.Critical}

	if t.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.Timeout)
		defer cancel()
	}

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = p.failed(res, rec, fmt.Errorf("panic: %v", r))
		}
		res.Latency = time.Since(start)
		p.obs.ObserveLatency("scanflow_sink_latency_seconds", res.Latency.Seconds())
	}()

	if err := t.Sink.Deliver(ctx, rec); err != nil {
		return p.failed(res, rec, err)
	}
	res.Success = true
	return res
}

func (p *Pipeline) failed(res domain.SinkResult, rec domain.ScanRecord, err error) domain.SinkResult {
	err = fmt.Errorf("%w: %s: %w", domain.ErrSinkDeliveryFailed, res.SinkName, err)
	res.Success = false
	res.Err = err
	res.ErrorDetail = err.Error()
	p.obs.RecordSinkFailure(res.SinkName, &rec, err)
	return res
}

// Summarize folds per-sink results into a Status. A critical failure fails
// the attempt; with no critical sinks configured every sink counts as
// critical only when all of them failed.
func Summarize(results []domain.SinkResult) Status {
	var (
		anyCritical bool
		anyFailed   bool
		anySuccess  bool
	)
	for _, r := range results {
		if r.Critical {
			anyCritical = true
			if !r.Success {
				return StatusFailed
			}
		}
		if r.Success {
			anySuccess = true
		} else {
			anyFailed = true
		}
	}
	switch {
	case !anyFailed:
		return StatusDelivered
	case !anyCritical && !anySuccess:
		return StatusFailed
	default:
		return StatusPartial
	}
}
