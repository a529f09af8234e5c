package decode

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghalamif/ScanFlow/internal/app/capture"
	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestNormalizeKnownAndPassThrough(t *testing.T) {
	cases := []struct {
		format string
		want   domain.Symbology
	}{
		{"QR_CODE", domain.SymbologyQR},
		{"qrcode", domain.SymbologyQR},
		{"CODE_128", domain.SymbologyCode128},
		{"code39", domain.SymbologyCode39},
		{"Code 93", domain.SymbologyCode93},
		{"EAN_13", domain.SymbologyEAN13},
		{"ean8", domain.SymbologyEAN8},
		{"UPC_A", domain.SymbologyUPCA},
		{"upc-e", domain.SymbologyUPCE},
		{"EAN-13", domain.SymbologyEAN13},
		{"DATA_MATRIX", domain.Symbology("DATA_MATRIX")},
		{"  PDF417 ", domain.Symbology("PDF417")},
		{"", domain.SymbologyUnknown},
	}
	for _, tc := range cases {
		rec, err := Normalize(domain.RawDecode{Text: "payload", Format: tc.format}, fixedNow)
		require.NoError(t, err, tc.format)
		assert.Equal(t, "payload", rec.Value)
		assert.Equal(t, tc.want, rec.Symbology, tc.format)
		assert.Equal(t, fixedNow, rec.CapturedAt)
	}
}

func TestNormalizeRejectsEmptyPayload(t *testing.T) {
	for _, text := range []string{"", "   ", "\r\n"} {
		_, err := Normalize(domain.RawDecode{Text: text, Format: "QR_CODE"}, fixedNow)
		assert.ErrorIs(t, err, domain.ErrMalformedDecode, "%q", text)
	}
}

func TestNormalizeAppliesNFC(t *testing.T) {
	rec, err := Normalize(domain.RawDecode{Text: "Cafe\u0301", Format: "QR_CODE"}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", rec.Value)
}

func TestManualEntry(t *testing.T) {
	rec, err := Manual(" TEST-001 ", fixedNow)
	require.NoError(t, err)
	assert.Equal(t, "TEST-001", rec.Value)
	assert.Equal(t, domain.SymbologyManual, rec.Symbology)
	assert.True(t, rec.Symbology.Known())

	_, err = Manual("", fixedNow)
	assert.ErrorIs(t, err, domain.ErrMalformedDecode)
}

type stream struct{}

func (stream) Read([]byte) (int, error) { return 0, nil }
func (stream) ID() string               { return "s" }

type camera struct{}

func (camera) AcquireStream(context.Context, ports.FacingMode) (ports.Stream, error) {
	return stream{}, nil
}
func (camera) ReleaseStream(ports.Stream) error { return nil }

type chanScanner struct {
	events  chan domain.RawDecode
	formats []domain.Symbology
	stopped int
}

func (s *chanScanner) RequestPermission(context.Context) (ports.Permission, error) {
	return ports.PermissionGranted, nil
}

func (s *chanScanner) StartDecode(_ context.Context, _ ports.Stream, formats []domain.Symbology) (<-chan domain.RawDecode, error) {
	s.formats = formats
	return s.events, nil
}

func (s *chanScanner) StopDecode() error {
	s.stopped++
	return nil
}

type countingObs struct {
	counters map[string]float64
}

func (o *countingObs) LogInfo(string, ...ports.Field)                      {}
func (o *countingObs) LogError(string, error, ...ports.Field)              {}
func (o *countingObs) LogCritical(string, error, ...ports.Field)           {}
func (o *countingObs) IncCounter(name string, v float64)                   { o.counters[name] += v }
func (o *countingObs) ObserveLatency(string, float64)                      {}
func (o *countingObs) SetGauge(string, float64)                            {}
func (o *countingObs) RecordSinkFailure(string, *domain.ScanRecord, error) {}

func startSession(t *testing.T, sc *chanScanner, pol ports.Policy) (*capture.Session, *Listener, *countingObs) {
	t.Helper()
	obs := &countingObs{counters: map[string]float64{}}
	ctrl := capture.NewController(camera{}, sc, pol, obs)
	sess, err := ctrl.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sess.Stop() })
	return sess, NewListener(sc, pol, obs, func() time.Time { return fixedNow }), obs
}

func TestListenContinuousTakesFirstValidDecode(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode, 4)}
	sc.events <- domain.RawDecode{Text: "", Format: "QR_CODE"}
	sc.events <- domain.RawDecode{Text: "0123456789012", Format: "EAN_13"}
	sc.events <- domain.RawDecode{Text: "second", Format: "QR_CODE"}

	sess, l, obs := startSession(t, sc, ports.Policy{})

	rec, err := l.Listen(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, "0123456789012", rec.Value)
	assert.Equal(t, domain.SymbologyEAN13, rec.Symbology)
	assert.Equal(t, capture.StateDecoding, sess.State())
	assert.Equal(t, 1.0, obs.counters["scanflow_malformed_decodes_total"])
	assert.Equal(t, domain.CanonicalSymbologies, sc.formats)

	require.NoError(t, sess.Stop())
	assert.Equal(t, 1, sc.stopped, "stopping a decoding session unsubscribes")
	assert.Len(t, sc.events, 1, "later decodes are never consumed")
}

func TestListenSingleShotWithoutResult(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode)}
	close(sc.events)
	sess, l, _ := startSession(t, sc, ports.Policy{})

	_, err := l.Listen(context.Background(), sess)
	assert.ErrorIs(t, err, domain.ErrNoDecode)
}

func TestListenTimesOut(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode)}
	sess, l, _ := startSession(t, sc, ports.Policy{ScanTimeout: 20 * time.Millisecond})

	_, err := l.Listen(context.Background(), sess)
	assert.ErrorIs(t, err, domain.ErrScanTimedOut)
}

func TestListenCancelledByStop(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode)}
	sess, l, _ := startSession(t, sc, ports.Policy{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = sess.Stop()
	}()

	_, err := l.Listen(context.Background(), sess)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
}

func TestListenOnStoppedSession(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode)}
	sess, l, _ := startSession(t, sc, ports.Policy{})
	require.NoError(t, sess.Stop())

	_, err := l.Listen(context.Background(), sess)
	assert.ErrorIs(t, err, domain.ErrScanCancelled)
}

func TestListenRespectsConfiguredFormats(t *testing.T) {
	sc := &chanScanner{events: make(chan domain.RawDecode, 1)}
	sc.events <- domain.RawDecode{Text: "x", Format: "QR_CODE"}
	sess, l, _ := startSession(t, sc, ports.Policy{Formats: []domain.Symbology{domain.SymbologyQR}})

	_, err := l.Listen(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, []domain.Symbology{domain.SymbologyQR}, sc.formats)
}
