package observability

import (
	"fmt"
	"log"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
	logger   *log.Logger
}

// NewPromObs registers the ScanFlow metrics on the default registerer.
func NewPromObs() *PromObs {
	return NewPromObsWith(prometheus.DefaultRegisterer)
}

func NewPromObsWith(reg prometheus.Registerer) *PromObs {
	scans := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_scans_total",
		Help: "Scan records dispatched, camera and manual combined.",
	})
	manual := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_manual_entries_total",
		Help: "Scan records created by manual entry.",
	})
	malformed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_malformed_decodes_total",
		Help: "Decode events or manual entries rejected for carrying no payload.",
	})
	sinkFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_sink_failures_total",
		Help: "Sink deliveries that failed.",
	})
	captureFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "scanflow_capture_failures_total",
		Help: "Capture attempts that ended without a record (denied, unavailable, timed out).",
	})
	historyLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scanflow_history_length",
		Help: "Records currently held in the scan history buffer.",
	})
	sessionActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "scanflow_session_active",
		Help: "1 while a capture session owns the camera stream.",
	})
	latency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "scanflow_sink_latency_seconds",
		Help:    "Per-sink delivery latency.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})

	reg.MustRegister(scans, manual, malformed, sinkFailures, captureFailures, historyLen, sessionActive, latency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"scanflow_scans_total":             scans,
			"scanflow_manual_entries_total":    manual,
			"scanflow_malformed_decodes_total": malformed,
			"scanflow_sink_failures_total":     sinkFailures,
			"scanflow_capture_failures_total":  captureFailures,
		},
		gauges: map[string]prometheus.Gauge{
			"scanflow_history_length": historyLen,
			"scanflow_session_active": sessionActive,
		},
		histos: map[string]prometheus.Observer{
			"scanflow_sink_latency_seconds": latency,
		},
		logger: log.Default(),
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	p.logger.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) LogCritical(msg string, err error, fields ...ports.Field) {
	if err != nil {
		p.logger.Printf("CRITICAL: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) RecordSinkFailure(sink string, rec *domain.ScanRecord, err error) {
	p.IncCounter("scanflow_sink_failures_total", 1)
	if err == nil {
		return
	}
	if rec != nil {
		p.logger.Printf("ERROR: sink_delivery_failed: %v sink=%s value=%q symbology=%s", err, sink, rec.Value, rec.Symbology)
		return
	}
	p.logger.Printf("ERROR: sink_delivery_failed: %v sink=%s", err, sink)
}

func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

var _ ports.Observability = (*PromObs)(nil)
