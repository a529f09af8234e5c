package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/ScanFlow/internal/ports"
)

type State string

const (
	StateIdle                 State = "idle"
	StateRequestingPermission State = "requesting_permission"
	StateStreaming            State = "streaming"
	StateDecoding             State = "decoding"
	StateStopped              State = "stopped"
)

// Session owns one camera stream for one scan attempt. Stop releases it and
// is safe to call any number of times.
type Session struct {
	id   string
	ctrl *Controller

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	state  State
	stream ports.Stream

	stopOnce sync.Once
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stream returns the camera stream; nil until the session is streaming.
func (s *Session) Stream() ports.Stream {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream
}

// Done is closed once Stop has been called.
func (s *Session) Done() <-chan struct{} { return s.ctx.Done() }

// BeginDecode moves a streaming session into the decoding state.
func (s *Session) BeginDecode() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case StateStreaming:
		s.state = StateDecoding
		return nil
	case StateDecoding:
		return nil
	default:
		return fmt.Errorf("session %s is %s", s.id, s.state)
	}
}

func (s *Session) active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateStopped
}

// Stop unsubscribes from the decoder and releases the camera stream.
func (s *Session) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		err = s.release()
	})
	return err
}

func (s *Session) release() error {
	s.cancel()

	s.mu.Lock()
	stream := s.stream
	decoding := s.state == StateDecoding
	s.stream = nil
	s.state = StateStopped
	s.mu.Unlock()

	var errs []error
	if decoding {
		if err := s.ctrl.scanner.StopDecode(); err != nil {
			errs = append(errs, fmt.Errorf("stop decode: %w", err))
		}
	}
	if stream != nil {
		if err := s.ctrl.camera.ReleaseStream(stream); err != nil {
			errs = append(errs, fmt.Errorf("release stream: %w", err))
		}
	}

	s.ctrl.detach(s)
	return errors.Join(errs...)
}
