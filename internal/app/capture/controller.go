package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ghalamif/ScanFlow/internal/domain"
	"github.com/ghalamif/ScanFlow/internal/ports"
)

// Controller manages the camera lifecycle and allows one session at a time.
type Controller struct {
	camera  ports.Camera
	scanner ports.Scanner
	policy  ports.Policy
	obs     ports.Observability

	mu     sync.Mutex
	active *Session
}

func NewController(cam ports.Camera, sc ports.Scanner, pol ports.Policy, obs ports.Observability) *Controller {
	if pol.FacingMode == "" {
		pol.FacingMode = ports.FacingEnvironment
	}
	return &Controller{camera: cam, scanner: sc, policy: pol, obs: obs}
}

func (c *Controller) Scanner() ports.Scanner { return c.scanner }

func (c *Controller) Policy() ports.Policy { return c.policy }

// RequestPermission asks the scanning capability for camera access.
// Platform errors count as a denial.
func (c *Controller) RequestPermission(ctx context.Context) (ports.Permission, error) {
	perm, err := c.scanner.RequestPermission(ctx)
	if err != nil {
		return ports.PermissionDenied, fmt.Errorf("%w: %v", domain.ErrPermissionDenied, err)
	}
	if perm != ports.PermissionGranted {
		return ports.PermissionDenied, domain.ErrPermissionDenied
	}
	return ports.PermissionGranted, nil
}

// Start requests permission and acquires an exclusive stream. The returned
// session is Streaming; on any failure nothing is left alive.
func (c *Controller) Start(ctx context.Context) (*Session, error) {
	sessCtx, cancel := context.WithCancel(ctx)
	s := &Session{
		id:     uuid.Must(uuid.NewV7()).String(),
		ctrl:   c,
		ctx:    sessCtx,
		cancel: cancel,
		state:  StateRequestingPermission,
	}

	c.mu.Lock()
	if c.active != nil && c.active.active() {
		existing := c.active.id
		c.mu.Unlock()
		cancel()
		return nil, fmt.Errorf("%w: session %s", domain.ErrSessionAlreadyActive, existing)
	}
	c.active = s
	c.mu.Unlock()

	acquireCtx := sessCtx
	if c.policy.AcquireTimeout > 0 {
		var acquireCancel context.CancelFunc
		acquireCtx, acquireCancel = context.WithTimeout(sessCtx, c.policy.AcquireTimeout)
		defer acquireCancel()
	}

	if _, err := c.RequestPermission(acquireCtx); err != nil {
		if s.State() == StateStopped {
			return nil, fmt.Errorf("%w: session %s stopped during start", domain.ErrScanCancelled, s.id)
		}
		if errors.Is(acquireCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%w: permission request exceeded %s", domain.ErrCameraUnavailable, c.policy.AcquireTimeout)
			c.obs.LogError("scan_camera_unavailable", err, ports.Field{Key: "session", Value: s.id})
		} else {
			c.obs.LogError("scan_permission_denied", err, ports.Field{Key: "session", Value: s.id})
		}
		_ = s.Stop()
		return nil, err
	}

	stream, err := c.camera.AcquireStream(acquireCtx, c.policy.FacingMode)
	if err != nil {
		if s.State() == StateStopped {
			return nil, fmt.Errorf("%w: session %s stopped during start", domain.ErrScanCancelled, s.id)
		}
		err = fmt.Errorf("%w: %v", domain.ErrCameraUnavailable, err)
		c.obs.LogError("scan_camera_unavailable", err, ports.Field{Key: "session", Value: s.id})
		_ = s.Stop()
		return nil, err
	}

	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		_ = c.camera.ReleaseStream(stream)
		return nil, fmt.Errorf("%w: session %s stopped during start", domain.ErrScanCancelled, s.id)
	}
	s.stream = stream
	s.state = StateStreaming
	s.mu.Unlock()

	c.obs.SetGauge("scanflow_session_active", 1)
	c.obs.LogInfo("scan_session_started",
		ports.Field{Key: "session", Value: s.id},
		ports.Field{Key: "stream", Value: stream.ID()},
		ports.Field{Key: "facing", Value: c.policy.FacingMode})
	return s, nil
}

// Stop releases the session; stopping a stopped or nil session is a no-op.
func (c *Controller) Stop(s *Session) error {
	if s == nil {
		return nil
	}
	return s.Stop()
}

// Active returns the session currently holding the camera, if any.
func (c *Controller) Active() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// StopActive cancels whatever session is running.
func (c *Controller) StopActive() error {
	return c.Stop(c.Active())
}

func (c *Controller) detach(s *Session) {
	c.mu.Lock()
	wasActive := c.active == s
	if wasActive {
		c.active = nil
	}
	c.mu.Unlock()
	if wasActive {
		c.obs.SetGauge("scanflow_session_active", 0)
	}
}

// State reports the active session's state, or Idle when none is running.
func (c *Controller) State() State {
	if s := c.Active(); s != nil {
		return s.State()
	}
	return StateIdle
}
