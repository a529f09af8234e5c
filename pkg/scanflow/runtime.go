package scanflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "modernc.org/sqlite"

	"github.com/ghalamif/ScanFlow/internal/adapters/device"
	"github.com/ghalamif/ScanFlow/internal/adapters/observability"
	"github.com/ghalamif/ScanFlow/internal/adapters/sink"
	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/app/config"
	"github.com/ghalamif/ScanFlow/internal/app/decode"
	"github.com/ghalamif/ScanFlow/internal/app/dispatch"
	"github.com/ghalamif/ScanFlow/internal/app/history"
	"github.com/ghalamif/ScanFlow/internal/app/workflow"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/httpapi"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// RuntimeOption customizes the dependencies used by Runtime.
type RuntimeOption func(*runtimeOverrides)

type runtimeOverrides struct {
	camera        Camera
	scanner       Scanner
	targets       []SinkTarget
	observability Observability
	now           func() time.Time
}

// WithCamera injects a custom camera (video capture API, test double, etc.).
func WithCamera(cam Camera) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.camera = cam
	}
}

// WithScanner injects a custom decoding capability.
func WithScanner(sc Scanner) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.scanner = sc
	}
}

// WithSink adds a sink. Once any sink is injected, the sinks listed in the
// config file are not built.
func WithSink(s Sink, critical bool) RuntimeOption {
	return WithSinkTarget(SinkTarget{Sink: s, Critical: critical})
}

// WithSinkTarget adds a sink with an explicit delivery timeout.
func WithSinkTarget(t SinkTarget) RuntimeOption {
	return func(o *runtimeOverrides) {
		if t.Sink != nil {
			o.targets = append(o.targets, t)
		}
	}
}

// WithObservability plugs in a custom observability backend.
func WithObservability(obs Observability) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.observability = obs
	}
}

// WithClock overrides the capture timestamp source.
func WithClock(now func() time.Time) RuntimeOption {
	return func(o *runtimeOverrides) {
		o.now = now
	}
}

// Runtime wires camera → decode → dispatch and exposes the scan operations
// plus the HTTP and metrics servers.
type Runtime struct {
	cfg        *Config
	obs        ports.Observability
	camera     ports.Camera
	scanner    ports.Scanner
	targets    []dispatch.Target
	workflow   *workflow.Workflow
	dbs        []*sql.DB
	metricsSrv *http.Server
	apiSrv     *http.Server
}

// NewRuntime bootstraps the default adapters (device camera, keyboard-wedge
// scanner, configured sinks, Prometheus observability). RuntimeOption values
// override any of them.
func NewRuntime(cfg *Config, opts ...RuntimeOption) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var overrides runtimeOverrides
	for _, opt := range opts {
		if opt != nil {
			opt(&overrides)
		}
	}

	obs := overrides.observability
	if obs == nil {
		obs = observability.NewPromObs()
	}

	rt := &Runtime{cfg: cfg, obs: obs}

	cam := overrides.camera
	if cam == nil {
		fc, err := device.NewFileCamera(cfg.Capture.Config)
		if err != nil {
			return nil, err
		}
		cam = fc
		if overrides.scanner == nil {
			overrides.scanner = device.NewWedgeScanner(fc.Path(cfg.Capture.FacingMode))
		}
	}
	if overrides.scanner == nil {
		return nil, fmt.Errorf("scanner is required with a custom camera")
	}
	rt.camera = cam
	rt.scanner = overrides.scanner

	if len(overrides.targets) > 0 {
		rt.targets = overrides.targets
	} else {
		targets, err := rt.buildTargets(cfg.Sinks)
		if err != nil {
			_ = rt.closeDBs()
			return nil, err
		}
		rt.targets = targets
	}

	capacity := cfg.History.Capacity
	if capacity <= 0 {
		capacity = history.DefaultCapacity
	}

	ctrl := capture.NewController(rt.camera, rt.scanner, cfg.Capture.Policy, obs)
	listener := decode.NewListener(rt.scanner, cfg.Capture.Policy, obs, overrides.now)
	rt.workflow = workflow.New(ctrl, listener, dispatch.New(rt.targets, obs), history.New(capacity), obs, overrides.now)
	return rt, nil
}

func (r *Runtime) buildTargets(sinks []config.SinkConfig) ([]dispatch.Target, error) {
	targets := make([]dispatch.Target, 0, len(sinks))
	for _, sc := range sinks {
		var s ports.Sink
		switch sc.Kind {
		case config.SinkHTTP:
			s = sink.NewHTTPSink(sc.Name, sc.URL, sc.ValueKey, nil)
		case config.SinkFunction:
			s = sink.NewFunctionSink(sc.Name, sc.URL, sc.Token(), nil)
		case config.SinkDatastore:
			db, err := sql.Open(sc.Driver, sc.DSN)
			if err != nil {
				return nil, fmt.Errorf("open %s datastore %q: %w", sc.Driver, sc.Name, err)
			}
			r.dbs = append(r.dbs, db)
			s = sink.NewDatastoreSink(sc.Name, db, sc.Driver, sc.Table)
		default:
			return nil, fmt.Errorf("unknown sink kind %q", sc.Kind)
		}
		targets = append(targets, dispatch.Target{
			Sink:     s,
			Critical: sc.Critical && sc.Kind != config.SinkFunction,
			Timeout:  sc.Timeout,
		})
	}
	return targets, nil
}

// Scan captures one code from the camera and dispatches it to every sink.
func (r *Runtime) Scan(ctx context.Context) (Outcome, error) {
	return r.workflow.Scan(ctx)
}

// Manual dispatches a hand-typed value as a "manual" record.
func (r *Runtime) Manual(ctx context.Context, value string) (Outcome, error) {
	return r.workflow.Manual(ctx, value)
}

// Cancel stops the running capture, if any.
func (r *Runtime) Cancel() error { return r.workflow.Cancel() }

// History returns the recent records, newest first.
func (r *Runtime) History() []ScanRecord { return r.workflow.History() }

// Last returns the most recently settled outcome.
func (r *Runtime) Last() (Outcome, bool) { return r.workflow.Last() }

func (r *Runtime) State() AttemptState { return r.workflow.State() }

func (r *Runtime) CaptureState() CaptureState { return r.workflow.CaptureState() }

// Targets lists the sinks in dispatch order.
func (r *Runtime) Targets() []SinkTarget { return append([]SinkTarget(nil), r.targets...) }

// Start launches the metrics and scan API servers. It returns immediately;
// call Run to block on a context instead.
func (r *Runtime) Start() error {
	if r == nil {
		return fmt.Errorf("runtime is nil")
	}
	r.startMetrics()
	r.startAPI()
	return nil
}

// Run starts the runtime and blocks until the provided context is cancelled.
// Upon cancellation it attempts a graceful shutdown.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return r.Shutdown(shutdownCtx)
}

// Shutdown stops any active capture, the servers and the datastore connections.
func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error

	if err := r.workflow.Cancel(); err != nil {
		errs = append(errs, err)
	}

	for _, srv := range []*http.Server{r.apiSrv, r.metricsSrv} {
		if srv == nil {
			continue
		}
		if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs = append(errs, err)
		}
	}

	if err := r.closeDBs(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (r *Runtime) closeDBs() error {
	var errs []error
	for _, db := range r.dbs {
		if err := db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.dbs = nil
	return errors.Join(errs...)
}

func (r *Runtime) startMetrics() {
	if r.cfg.Metrics.Addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{
		Addr:    r.cfg.Metrics.Addr,
		Handler: mux,
	}
	serve(r.metricsSrv, "metrics")
}

func (r *Runtime) startAPI() {
	if r.cfg.HTTP.Addr == "" {
		return
	}
	r.apiSrv = &http.Server{
		Addr:    r.cfg.HTTP.Addr,
		Handler: httpapi.NewRouter(httpapi.NewHandler(r.workflow)),
	}
	serve(r.apiSrv, "scan api")
	r.obs.LogInfo("scanflow_started",
		ports.Field{Key: "api", Value: r.cfg.HTTP.Addr},
		ports.Field{Key: "sinks", Value: len(r.targets)},
		ports.Field{Key: "formats", Value: formatList(r.cfg.Capture.Formats)})
}

func serve(srv *http.Server, name string) {
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("%s server exited: %v", name, err)
		}
	}()
}

func formatList(formats []domain.Symbology) string {
	if len(formats) == 0 {
		return "default"
	}
	names := make([]string, len(formats))
	for i, f := range formats {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
