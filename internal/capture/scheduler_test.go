package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

type fakeDevice struct {
	imageSize int64
	failAt    int // fail on the n-th capture (1-based), 0 for never
	captures  int
	closed    bool
}

func (d *fakeDevice) Capture(_ context.Context, path string) error {
	d.captures++
	if d.failAt > 0 && d.captures >= d.failAt {
		return errors.New("device fault")
	}
	return os.WriteFile(path, make([]byte, d.imageSize), 0o644)
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func (d *fakeDevice) ID() string    { return "cam0" }
func (d *fakeDevice) Model() string { return "fake" }

// fakeClock advances by step on every reading so filenames stay unique
// and elapsed time moves without sleeping.
type fakeClock struct {
	t    time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	now := c.t
	c.t = c.t.Add(c.step)
	return now
}

func newTestScheduler(t *testing.T, dev *fakeDevice, config Config) *Scheduler {
	t.Helper()

	config.Directory = t.TempDir()
	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), step: time.Second}

	s, err := NewScheduler(dev, config,
		WithClock(clock.Now),
		WithSleep(func(d time.Duration) { clock.t = clock.t.Add(d) }))
	if err != nil {
		t.Fatalf("creating scheduler: %v", err)
	}
	return s
}

func TestSchedulerImageBudget(t *testing.T) {
	dev := &fakeDevice{imageSize: 1024}
	s := newTestScheduler(t, dev, Config{
		MaxStorageMB: 1000,
		MaxImages:    3,
		MaxDuration:  time.Hour,
		Interval:     5 * time.Second,
	})

	images, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(images))
	}
	if dev.captures != 3 {
		t.Errorf("expected 3 device captures, got %d", dev.captures)
	}
	if !dev.closed {
		t.Error("device must be released after the session")
	}

	namePattern := regexp.MustCompile(`^image_\d{8}_\d{6}\.jpg$`)
	for i, img := range images {
		if !namePattern.MatchString(filepath.Base(img.Path)) {
			t.Errorf("image %d name %q does not match pattern", i, filepath.Base(img.Path))
		}
		if img.SizeBytes != 1024 {
			t.Errorf("image %d size = %d, want 1024", i, img.SizeBytes)
		}
		if i > 0 && images[i].Timestamp.Before(images[i-1].Timestamp) {
			t.Errorf("timestamps must be non-decreasing: %v before %v", images[i].Timestamp, images[i-1].Timestamp)
		}
	}
}

func TestSchedulerZeroDurationBudget(t *testing.T) {
	dev := &fakeDevice{imageSize: 1024}
	s := newTestScheduler(t, dev, Config{
		MaxStorageMB: 1000,
		MaxImages:    100,
		MaxDuration:  0,
		Interval:     5 * time.Second,
	})

	images, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 1 {
		t.Fatalf("expected exactly 1 image with a zero duration budget, got %d", len(images))
	}
}

func TestSchedulerStorageBudget(t *testing.T) {
	// 600 KiB per image against a 1 MB budget stops after the second capture.
	dev := &fakeDevice{imageSize: 600 * 1024}
	s := newTestScheduler(t, dev, Config{
		MaxStorageMB: 1,
		MaxImages:    100,
		MaxDuration:  time.Hour,
		Interval:     5 * time.Second,
	})

	images, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
}

func TestSchedulerDeviceFailure(t *testing.T) {
	dev := &fakeDevice{imageSize: 1024, failAt: 2}
	s := newTestScheduler(t, dev, Config{
		MaxStorageMB: 1000,
		MaxImages:    10,
		MaxDuration:  time.Hour,
		Interval:     5 * time.Second,
	})

	images, err := s.Run(context.Background())
	if err == nil {
		t.Fatal("expected error on device fault")
	}
	if images != nil {
		t.Errorf("failed session must yield no images, got %d", len(images))
	}
	if !dev.closed {
		t.Error("device must be released on failure")
	}
}

func TestSchedulerSuppressesTrailingPause(t *testing.T) {
	dev := &fakeDevice{imageSize: 1024}
	config := Config{
		Directory:    t.TempDir(),
		MaxStorageMB: 1000,
		MaxImages:    3,
		MaxDuration:  time.Hour,
		Interval:     5 * time.Second,
	}

	clock := &fakeClock{t: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), step: time.Second}
	var sleeps int
	s, err := NewScheduler(dev, config,
		WithClock(clock.Now),
		WithSleep(func(d time.Duration) {
			if d != config.Interval {
				t.Errorf("slept %v, want %v", d, config.Interval)
			}
			sleeps++
			clock.t = clock.t.Add(d)
		}))
	if err != nil {
		t.Fatalf("creating scheduler: %v", err)
	}

	if _, err := s.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sleeps != 2 {
		t.Errorf("expected 2 pauses for 3 captures, got %d", sleeps)
	}
}

func TestSchedulerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dev := &fakeDevice{imageSize: 1024}
	s := newTestScheduler(t, dev, Config{
		MaxStorageMB: 1000,
		MaxImages:    10,
		MaxDuration:  time.Hour,
	})

	if _, err := s.Run(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if !dev.closed {
		t.Error("device must be released on cancellation")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"missing directory", Config{MaxStorageMB: 1, MaxImages: 1}},
		{"zero storage", Config{Directory: "d", MaxImages: 1}},
		{"zero images", Config{Directory: "d", MaxStorageMB: 1}},
		{"negative duration", Config{Directory: "d", MaxStorageMB: 1, MaxImages: 1, MaxDuration: -time.Second}},
		{"negative interval", Config{Directory: "d", MaxStorageMB: 1, MaxImages: 1, Interval: -time.Second}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewScheduler(&fakeDevice{}, tc.config); err == nil {
				t.Error("expected error for invalid config")
			}
		})
	}
}

func TestPrune(t *testing.T) {
	makeImages := func(t *testing.T, n int) []Image {
		t.Helper()
		dir := t.TempDir()

		images := make([]Image, n)
		for i := range images {
			path := filepath.Join(dir, fmt.Sprintf("image_%02d.jpg", i))
			if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
				t.Fatalf("writing fixture: %v", err)
			}
			images[i] = Image{Path: path, Timestamp: time.Unix(int64(i), 0)}
		}
		return images
	}

	t.Run("over cap removes oldest", func(t *testing.T) {
		images := makeImages(t, 5)

		kept, err := Prune(images, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kept) != 3 {
			t.Fatalf("expected 3 survivors, got %d", len(kept))
		}
		if kept[0].Path != images[2].Path {
			t.Errorf("oldest images must go first, survivors start at %s", kept[0].Path)
		}

		for _, img := range images[:2] {
			if _, err := os.Stat(img.Path); !os.IsNotExist(err) {
				t.Errorf("%s should have been deleted", img.Path)
			}
		}
		for _, img := range kept {
			if _, err := os.Stat(img.Path); err != nil {
				t.Errorf("%s should have survived: %v", img.Path, err)
			}
		}
	})

	t.Run("at cap removes nothing", func(t *testing.T) {
		images := makeImages(t, 3)

		kept, err := Prune(images, 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kept) != 3 {
			t.Fatalf("expected 3 survivors, got %d", len(kept))
		}
	})

	t.Run("under cap removes nothing", func(t *testing.T) {
		images := makeImages(t, 2)

		kept, err := Prune(images, 42)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(kept) != 2 {
			t.Fatalf("expected 2 survivors, got %d", len(kept))
		}
	})
}
