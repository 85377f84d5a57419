package camera

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync/atomic"
)

// Handler builds the capture command for a concrete camera tool.
type Handler interface {
	Cmd(ctx context.Context, path string) *exec.Cmd
	Model() string
}

// WithLogger sets the logger for the camera
func WithLogger(logger *slog.Logger) func(c *StillCamera) {
	return func(c *StillCamera) {
		c.logger = logger.With(
			slog.String("camera", c.handler.Model()),
			slog.String("cameraID", c.id),
		)
	}
}

// StillCamera drives an external capture tool through a Handler. Only one
// capture may be in flight at a time and Close releases the device for
// the rest of the process lifetime.
type StillCamera struct {
	id      string
	handler Handler

	busy   atomic.Bool
	closed atomic.Bool

	logger *slog.Logger
}

// New creates a new StillCamera instance with a discard logger
func New(id string, h Handler, options ...func(c *StillCamera)) *StillCamera {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	c := StillCamera{
		id:      id,
		handler: h,
		logger:  logger,
	}

	for _, option := range options {
		option(&c)
	}

	return &c
}

func (c *StillCamera) ID() string { return c.id }

func (c *StillCamera) Model() string { return c.handler.Model() }

// Capture runs the capture tool and blocks until the image file at path
// is complete or the command fails.
func (c *StillCamera) Capture(ctx context.Context, path string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if !c.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.busy.Store(false)

	cmd := c.handler.Cmd(ctx, path)
	c.logger.Debug("capturing still",
		slog.String("path", path),
		slog.String("cmd", strings.Join(cmd.Args, " ")))

	out, err := cmd.CombinedOutput()
	if err != nil {
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				c.logger.Warn(fmt.Sprintf("%s >> %s", c.handler.Model(), line))
			}
		}
		return fmt.Errorf("capture command: %w", err)
	}

	return nil
}

// Close releases the device. Further captures return ErrClosed.
func (c *StillCamera) Close() error {
	c.closed.Store(true)
	return nil
}
