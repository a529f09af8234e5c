package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

type funcSink struct {
	name string
	fn   func(context.Context, domain.ScanRecord) error
}

func (s *funcSink) Name() string { return s.name }
func (s *funcSink) Deliver(ctx context.Context, rec domain.ScanRecord) error {
	return s.fn(ctx, rec)
}

type recordingObs struct {
	mu       sync.Mutex
	failures []string
}

func (o *recordingObs) LogInfo(string, ...ports.Field)             {}
func (o *recordingObs) LogError(string, error, ...ports.Field)     {}
func (o *recordingObs) LogCritical(string, error, ...ports.Field)  {}
func (o *recordingObs) IncCounter(string, float64)                 {}
func (o *recordingObs) ObserveLatency(string, float64)             {}
func (o *recordingObs) SetGauge(string, float64)                   {}
func (o *recordingObs) RecordSinkFailure(sink string, _ *domain.ScanRecord, _ error) {
	o.mu.Lock()
	o.failures = append(o.failures, sink)
	o.mu.Unlock()
}

var record = domain.ScanRecord{Value: "0123456789012", Symbology: domain.SymbologyEAN13, CapturedAt: time.Now()}

func ok(name string) *funcSink {
	return &funcSink{name: name, fn: func(context.Context, domain.ScanRecord) error { return nil }}
}

func failing(name string, err error) *funcSink {
	return &funcSink{name: name, fn: func(context.Context, domain.ScanRecord) error { return err }}
}

func TestDispatchScenarioHTTPFailsDatastoreSucceeds(t *testing.T) {
	obs := &recordingObs{}
	p := New([]Target{
		{Sink: failing("http", errors.New("dial tcp: connection refused"))},
		{Sink: ok("datastore"), Critical: true},
	}, obs)

	results := p.Dispatch(context.Background(), record)

	require.Len(t, results, 2)
	assert.Equal(t, "http", results[0].SinkName)
	assert.False(t, results[0].Success)
	assert.ErrorIs(t, results[0].Err, domain.ErrSinkDeliveryFailed)
	assert.Contains(t, results[0].ErrorDetail, "connection refused")
	assert.Equal(t, "datastore", results[1].SinkName)
	assert.True(t, results[1].Success)
	assert.Empty(t, results[1].ErrorDetail)

	status := Summarize(results)
	assert.Equal(t, StatusPartial, status)
	assert.True(t, status.OK())
	assert.Equal(t, []string{"http"}, obs.failures)
}

func TestDispatchReturnsOneResultPerSinkInOrder(t *testing.T) {
	var targets []Target
	names := []string{"a", "b", "c", "d", "e"}
	for i, n := range names {
		n := n // per-iteration copy; go directive is 1.21
		delay := time.Duration(len(names)-i) * 5 * time.Millisecond
		targets = append(targets, Target{Sink: &funcSink{name: n, fn: func(context.Context, domain.ScanRecord) error {
			time.Sleep(delay)
			if n == "c" {
				return errors.New("rejected")
			}
			return nil
		}}})
	}

	results := New(targets, &recordingObs{}).Dispatch(context.Background(), record)

	require.Len(t, results, len(names))
	for i, n := range names {
		assert.Equal(t, n, results[i].SinkName)
		assert.Equal(t, n != "c", results[i].Success)
	}
}

func TestDispatchIsolatesPanics(t *testing.T) {
	p := New([]Target{
		{Sink: &funcSink{name: "boom", fn: func(context.Context, domain.ScanRecord) error { panic("nil map") }}},
		{Sink: ok("after"), Critical: true},
	}, &recordingObs{})

	results := p.Dispatch(context.Background(), record)
	require.Len(t, results, 2)
	assert.False(t, results[0].Success)
	assert.Contains(t, results[0].ErrorDetail, "panic: nil map")
	assert.True(t, results[1].Success)
}

func TestDispatchAppliesPerSinkTimeout(t *testing.T) {
	slow := &funcSink{name: "slow", fn: func(ctx context.Context, _ domain.ScanRecord) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	}}
	results := New([]Target{{Sink: slow, Timeout: 10 * time.Millisecond}}, &recordingObs{}).
		Dispatch(context.Background(), record)

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
	assert.Less(t, results[0].Latency, time.Second)
}

func TestDispatchNoSinks(t *testing.T) {
	results := New(nil, &recordingObs{}).Dispatch(context.Background(), record)
	assert.Empty(t, results)
	assert.Equal(t, StatusDelivered, Summarize(results))
}

func TestSummarize(t *testing.T) {
	res := func(critical, success bool) domain.SinkResult {
		return domain.SinkResult{Critical: critical, Success: success}
	}
	cases := []struct {
		name    string
		results []domain.SinkResult
		want    Status
	}{
		{"all ok", []domain.SinkResult{res(true, true), res(false, true)}, StatusDelivered},
		{"non-critical fails", []domain.SinkResult{res(false, false), res(true, true)}, StatusPartial},
		{"critical fails", []domain.SinkResult{res(true, false), res(true, true)}, StatusFailed},
		{"no critical, some ok", []domain.SinkResult{res(false, false), res(false, true)}, StatusPartial},
		{"no critical, all fail", []domain.SinkResult{res(false, false), res(false, false)}, StatusFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Summarize(tc.results))
		})
	}
	assert.False(t, StatusFailed.OK())
}
