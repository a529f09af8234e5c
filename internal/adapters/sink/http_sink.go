package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// TimestampLayout matches what browsers emit for Date.toJSON.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HTTPSink POSTs {code|value, format, timestamp} to a JSON endpoint.
type HTTPSink struct {
	name     string
	url      string
	valueKey string
	client   *http.Client
}

func NewHTTPSink(name, url, valueKey string, client *http.Client) *HTTPSink {
	if name == "" {
		name = "http"
	}
	if valueKey == "" {
		valueKey = "code"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSink{name: name, url: url, valueKey: valueKey, client: client}
}

func (h *HTTPSink) Name() string { return h.name }

func (h *HTTPSink) Deliver(ctx context.Context, rec domain.ScanRecord) error {
	body, err := json.Marshal(map[string]string{
		h.valueKey:  rec.Value,
		"format":    string(rec.Symbology),
		"timestamp": rec.CapturedAt.UTC().Format(TimestampLayout),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return postJSON(ctx, h.client, h.url, body, nil)
}

func postJSON(ctx context.Context, client *http.Client, url string, body []byte, header http.Header) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return nil
}

var _ ports.Sink = (*HTTPSink)(nil)
