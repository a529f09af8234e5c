package sink

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"

	"github.com/ghalamif/ScanFlow/internal/domain"
)

var fixedRecord = domain.ScanRecord{
	Value:      "0123456789012",
	Symbology:  domain.SymbologyEAN13,
	CapturedAt: time.Date(2024, 5, 1, 12, 30, 45, 123_000_000, time.UTC),
}

type capturedRequest struct {
	method      string
	contentType string
	auth        string
	body        []byte
}

func newCaptureServer(t *testing.T, status int) (*httptest.Server, <-chan capturedRequest) {
	t.Helper()
	ch := make(chan capturedRequest, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		ch <- capturedRequest{
			method:      r.Method,
			contentType: r.Header.Get("Content-Type"),
			auth:        r.Header.Get("Authorization"),
			body:        body,
		}
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, ch
}

func TestHTTPSinkPayload(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusCreated)

	sink := NewHTTPSink("api", srv.URL, "", srv.Client())
	if err := sink.Deliver(context.Background(), fixedRecord); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	req := <-reqs
	if req.method != http.MethodPost {
		t.Fatalf("expected POST, got %s", req.method)
	}
	if req.contentType != "application/json" {
		t.Fatalf("expected json content type, got %q", req.contentType)
	}

	g := goldie.New(t)
	g.Assert(t, "http_sink_payload", req.body)
}

func TestHTTPSinkValueKey(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusOK)

	sink := NewHTTPSink("api", srv.URL, "value", srv.Client())
	if err := sink.Deliver(context.Background(), fixedRecord); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	req := <-reqs
	if !strings.Contains(string(req.body), `"value":"0123456789012"`) {
		t.Fatalf("expected value key in body, got %s", req.body)
	}
}

func TestHTTPSinkNon2xx(t *testing.T) {
	srv, _ := newCaptureServer(t, http.StatusBadGateway)

	sink := NewHTTPSink("api", srv.URL, "", srv.Client())
	err := sink.Deliver(context.Background(), fixedRecord)
	if err == nil || !strings.Contains(err.Error(), "502") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestHTTPSinkNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	sink := NewHTTPSink("api", url, "", nil)
	if err := sink.Deliver(context.Background(), fixedRecord); err == nil {
		t.Fatalf("expected network error from closed server")
	}
}

func TestFunctionSinkPayloadAndBearer(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusOK)

	sink := NewFunctionSink("process", srv.URL, "s3cret", srv.Client())
	if err := sink.Deliver(context.Background(), fixedRecord); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	req := <-reqs
	if req.auth != "Bearer s3cret" {
		t.Fatalf("expected bearer credential, got %q", req.auth)
	}

	g := goldie.New(t)
	g.Assert(t, "function_sink_payload", req.body)
}

func TestFunctionSinkWithoutToken(t *testing.T) {
	srv, reqs := newCaptureServer(t, http.StatusOK)

	sink := NewFunctionSink("", srv.URL, "", srv.Client())
	if sink.Name() != "function" {
		t.Fatalf("expected default name function, got %s", sink.Name())
	}
	if err := sink.Deliver(context.Background(), fixedRecord); err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if req := <-reqs; req.auth != "" {
		t.Fatalf("expected no authorization header, got %q", req.auth)
	}
}
