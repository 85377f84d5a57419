package capture

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/skyfield/groundtrack/internal/camera"
)

const filenameLayout = "20060102_150405"

// Image is one captured frame on disk.
type Image struct {
	Path      string
	Timestamp time.Time
	SizeBytes int64
}

// Config bounds a capture session. A session stops at whichever budget is
// exhausted first: total storage, image count or elapsed time.
type Config struct {
	Directory    string        // Where image files are written
	MaxStorageMB int64         // Total storage budget
	MaxImages    int           // Image count budget
	MaxDuration  time.Duration // Session duration budget, checked at capture boundaries
	Interval     time.Duration // Blocking pause between captures
}

func (c *Config) Validate() error {
	if c.Directory == "" {
		return fmt.Errorf("capture.Config: directory is required")
	}
	if c.MaxStorageMB <= 0 {
		return fmt.Errorf("capture.Config: storage budget must be positive: %d", c.MaxStorageMB)
	}
	if c.MaxImages <= 0 {
		return fmt.Errorf("capture.Config: image budget must be positive: %d", c.MaxImages)
	}
	if c.MaxDuration < 0 {
		return fmt.Errorf("capture.Config: duration budget must not be negative: %s", c.MaxDuration)
	}
	if c.Interval < 0 {
		return fmt.Errorf("capture.Config: interval must not be negative: %s", c.Interval)
	}
	return nil
}

// WithLogger sets the logger for the scheduler
func WithLogger(logger *slog.Logger) func(s *Scheduler) {
	return func(s *Scheduler) {
		s.logger = logger.With(slog.String("cameraID", s.dev.ID()))
	}
}

// WithClock overrides the wall clock, for tests
func WithClock(now func() time.Time) func(s *Scheduler) {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithSleep overrides the inter-capture pause, for tests
func WithSleep(sleep func(d time.Duration)) func(s *Scheduler) {
	return func(s *Scheduler) {
		s.sleep = sleep
	}
}

// Scheduler drives the bounded acquisition loop against a camera device.
type Scheduler struct {
	dev    camera.Device
	config Config

	now   func() time.Time
	sleep func(d time.Duration)

	logger *slog.Logger
}

// NewScheduler creates a Scheduler for the given device and budgets.
func NewScheduler(dev camera.Device, config Config, options ...func(s *Scheduler)) (*Scheduler, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	s := Scheduler{
		dev:    dev,
		config: config,
		now:    time.Now,
		sleep:  time.Sleep,
		logger: logger,
	}

	for _, option := range options {
		option(&s)
	}

	return &s, nil
}

// Run captures images until a budget is exhausted and returns them in
// capture order. The device is released on every exit path. On a device
// fault the session yields no images: the caller must treat the result
// as "no session data" and skip downstream processing.
//
// Budgets are checked only after a capture completes, so the elapsed time
// may overshoot MaxDuration by up to one capture-plus-interval cycle. The
// interval pause is suppressed once a stop condition is met.
func (s *Scheduler) Run(ctx context.Context) (images []Image, err error) {
	defer func() {
		if cErr := s.dev.Close(); cErr != nil && err == nil {
			images, err = nil, fmt.Errorf("releasing camera: %w", cErr)
		}
	}()

	start := s.now()
	maxBytes := s.config.MaxStorageMB * 1024 * 1024
	var totalBytes int64

	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("capture session cancelled: %w", err)
		}

		timestamp := s.now()
		name := fmt.Sprintf("image_%s.jpg", timestamp.Format(filenameLayout))
		path := filepath.Join(s.config.Directory, name)

		if err := s.dev.Capture(ctx, path); err != nil {
			return nil, fmt.Errorf("capturing %s: %w", name, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stating captured image: %w", err)
		}

		img := Image{Path: path, Timestamp: timestamp, SizeBytes: info.Size()}
		images = append(images, img)
		totalBytes += img.SizeBytes

		s.logger.Info("image captured",
			slog.String("name", name),
			slog.String("size", humanize.IBytes(uint64(img.SizeBytes))),
			slog.String("total", humanize.IBytes(uint64(totalBytes))),
			slog.Int("count", len(images)))

		if totalBytes >= maxBytes {
			s.logger.Info("storage budget exhausted",
				slog.String("limit", humanize.IBytes(uint64(maxBytes))))
			return images, nil
		}
		if len(images) >= s.config.MaxImages {
			s.logger.Info("image budget exhausted", slog.Int("limit", s.config.MaxImages))
			return images, nil
		}
		if elapsed := s.now().Sub(start); elapsed > s.config.MaxDuration {
			s.logger.Info("duration budget exhausted", slog.Duration("elapsed", elapsed))
			return images, nil
		}

		s.sleep(s.config.Interval)
	}
}
