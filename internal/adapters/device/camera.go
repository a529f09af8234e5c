package device

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/ghalamif/ScanFlow/internal/ports"
)

// StdinDevice selects the process's standard input as the stream source.
const StdinDevice = "-"

// Config maps facing modes onto device paths. Scanners that behave as a
// keyboard (wedge mode) expose a character device or tty; "-" reads stdin.
type Config struct {
	Device  string                      `yaml:"device"`
	Devices map[ports.FacingMode]string `yaml:"devices"`
}

func (c *Config) ApplyDefaults() {
	if c.Device == "" {
		c.Device = StdinDevice
	}
}

func (c *Config) Validate() error {
	if c.Device == "" && len(c.Devices) == 0 {
		return errors.New("device is required")
	}
	return nil
}

func (c Config) pathFor(facing ports.FacingMode) string {
	if p, ok := c.Devices[facing]; ok && p != "" {
		return p
	}
	return c.Device
}

// FileCamera hands out exclusive read handles on a device file. Stdin can
// not be reopened per session, so every stdin stream shares one feed.
type FileCamera struct {
	cfg  Config
	mu   sync.Mutex
	open map[string]*fileStream

	stdinOnce sync.Once
	stdin     *lineFeed
}

func NewFileCamera(cfg Config) (*FileCamera, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &FileCamera{cfg: cfg, open: make(map[string]*fileStream)}, nil
}

func (c *FileCamera) AcquireStream(ctx context.Context, facing ports.FacingMode) (ports.Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := c.cfg.pathFor(facing)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.open {
		if s.path == path {
			return nil, fmt.Errorf("device %s already in use by stream %s", path, s.id)
		}
	}

	s := &fileStream{id: uuid.NewString(), path: path, closed: make(chan struct{})}
	if path == StdinDevice {
		c.stdinOnce.Do(func() { c.stdin = newLineFeed(os.Stdin, nil) })
		s.feed = c.stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open device %s: %w", path, err)
		}
		s.file = f
		s.feed = newLineFeed(f, s.closed)
	}

	c.open[s.id] = s
	return s, nil
}

func (c *FileCamera) ReleaseStream(s ports.Stream) error {
	if s == nil {
		return nil
	}
	c.mu.Lock()
	fs, ok := c.open[s.ID()]
	delete(c.open, s.ID())
	c.mu.Unlock()
	if !ok {
		return nil
	}
	close(fs.closed)
	if fs.file == nil {
		return nil
	}
	return fs.file.Close()
}

// Path reports the device a facing mode resolves to.
func (c *FileCamera) Path(facing ports.FacingMode) string {
	return c.cfg.pathFor(facing)
}

type fileStream struct {
	id     string
	path   string
	file   *os.File // nil for stdin
	feed   *lineFeed
	closed chan struct{}

	pending []byte
}

// Read replays the feed as newline-terminated bytes until the stream is
// released.
func (s *fileStream) Read(p []byte) (int, error) {
	if len(s.pending) == 0 {
		select {
		case line, ok := <-s.feed.lines:
			if !ok {
				return 0, io.EOF
			}
			s.pending = append([]byte(line), '\n')
		case <-s.closed:
			return 0, io.EOF
		}
	}
	n := copy(p, s.pending)
	s.pending = s.pending[n:]
	return n, nil
}

func (s *fileStream) Lines() <-chan string { return s.feed.lines }
func (s *fileStream) ID() string           { return s.id }

var _ ports.Camera = (*FileCamera)(nil)
