package scanflow

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewCallbackSink(t *testing.T) {
	var received []ScanRecord
	sink := NewCallbackSink("cb", func(_ context.Context, rec ScanRecord) error {
		received = append(received, rec)
		return nil
	})

	input := ScanRecord{Value: "https://example.com/item/42", Symbology: "QR", CapturedAt: time.Unix(1, 0)}

	if err := sink.Deliver(context.Background(), input); err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if len(received) != 1 || received[0] != input {
		t.Fatalf("unexpected records: %+v", received)
	}
	if sink.Name() != "cb" {
		t.Fatalf("unexpected name %q", sink.Name())
	}
}

func TestNewCallbackSinkNilHandler(t *testing.T) {
	sink := NewCallbackSink("", nil)
	if sink.Name() != "callback" {
		t.Fatalf("expected default name, got %q", sink.Name())
	}
	if err := sink.Deliver(context.Background(), ScanRecord{Value: "x"}); err == nil {
		t.Fatalf("expected error when callback is nil")
	}
}

func TestNewChannelSink(t *testing.T) {
	sink, ch, closeFn := NewChannelSink("chan", 1)
	defer closeFn()

	input := ScanRecord{Value: "ABC-123", Symbology: "Code128"}
	errCh := make(chan error, 1)

	go func() {
		errCh <- sink.Deliver(context.Background(), input)
	}()

	var rec ScanRecord
	select {
	case rec = <-ch:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel record")
	}

	if err := <-errCh; err != nil {
		t.Fatalf("Deliver returned error: %v", err)
	}
	if rec.Value != input.Value {
		t.Fatalf("unexpected record: %+v", rec)
	}

	closeFn()
	if err := sink.Deliver(context.Background(), input); !errors.Is(err, ErrChannelSinkClosed) {
		t.Fatalf("expected ErrChannelSinkClosed, got %v", err)
	}
}

func TestChannelSinkHonoursContext(t *testing.T) {
	sink, _, closeFn := NewChannelSink("chan", 0)
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := sink.Deliver(ctx, ScanRecord{Value: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}
