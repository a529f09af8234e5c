package scanflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrChannelSinkClosed is returned when a channel sink is written to after being closed.
var ErrChannelSinkClosed = errors.New("scanflow: channel sink closed")

// RecordHandler receives one scan record; returning an error marks the
// delivery as failed.
type RecordHandler func(ctx context.Context, rec ScanRecord) error

// NewCallbackSink adapts a RecordHandler into a full Sink implementation so callers
// can plug arbitrary functions without defining structs.
func NewCallbackSink(name string, fn RecordHandler) Sink {
	if name == "" {
		name = "callback"
	}
	return &callbackSink{name: name, fn: fn}
}

// NewChannelSink exposes records via a channel; it returns the sink, the read-only channel,
// and a close function that the caller should invoke during shutdown.
// Delivery blocks until the record is received, the sink is closed, or the
// delivery context ends.
func NewChannelSink(name string, buffer int) (Sink, <-chan ScanRecord, func()) {
	if name == "" {
		name = "channel"
	}
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan ScanRecord, buffer)
	s := &channelSink{
		name:   name,
		ch:     ch,
		closed: make(chan struct{}),
	}
	return s, ch, func() { s.close() }
}

type callbackSink struct {
	name string
	fn   RecordHandler
}

func (s *callbackSink) Deliver(ctx context.Context, rec ScanRecord) error {
	if s.fn == nil {
		return fmt.Errorf("callback sink %q: nil handler", s.name)
	}
	return s.fn(ctx, rec)
}

func (s *callbackSink) Name() string { return s.name }

type channelSink struct {
	name   string
	mu     sync.RWMutex
	ch     chan ScanRecord
	closed chan struct{}
	once   sync.Once
}

func (s *channelSink) Deliver(ctx context.Context, rec ScanRecord) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	default:
	}

	select {
	case <-s.closed:
		return ErrChannelSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- rec:
		return nil
	}
}

func (s *channelSink) Name() string { return s.name }

// close signals pending deliveries first, then waits for them to leave
// before closing the channel.
func (s *channelSink) close() {
	s.once.Do(func() {
		close(s.closed)
		s.mu.Lock()
		close(s.ch)
		s.mu.Unlock()
	})
}
