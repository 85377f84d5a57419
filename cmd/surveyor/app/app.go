package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/skyfield/groundtrack/internal/camera"
	"github.com/skyfield/groundtrack/internal/camera/libcamera"
	"github.com/skyfield/groundtrack/internal/capture"
	"github.com/skyfield/groundtrack/internal/geotag"
	"github.com/skyfield/groundtrack/internal/storage"
	"github.com/skyfield/groundtrack/internal/track"
)

const storageDir = "data"

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	store, err := createStorage(&config.Storage)
	if err != nil {
		return fmt.Errorf("failed to create storage: %w", err)
	}
	defer store.Close()

	handler, err := libcamera.New(config.Camera.Config)
	if err != nil {
		return fmt.Errorf("creating camera: %w", err)
	}
	cam := camera.New(config.Camera.Name, handler, camera.WithLogger(logger))

	sessionID, err := store.CreateSession(ctx, cam.Model(), cam.ID(), config.Camera.Config)
	if err != nil {
		return fmt.Errorf("creating session: %w", err)
	}

	if err = os.MkdirAll(config.Capture.Directory, 0o755); err != nil {
		return fmt.Errorf("creating capture directory: %w", err)
	}

	scheduler, err := capture.NewScheduler(cam, capture.Config{
		Directory:    config.Capture.Directory,
		MaxStorageMB: config.Capture.MaxStorageMB,
		MaxImages:    config.Capture.MaxImages,
		MaxDuration:  time.Duration(config.Capture.MaxDurationSec * float64(time.Second)),
		Interval:     time.Duration(config.Capture.IntervalSec * float64(time.Second)),
	}, capture.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("creating scheduler: %w", err)
	}

	images, err := scheduler.Run(ctx)
	if err != nil {
		return fmt.Errorf("capture session failed: %w", err)
	}

	for _, img := range images {
		if _, err = store.StoreCapture(ctx, sessionID, img); err != nil {
			logger.Error(err.Error())
		}
	}

	aggregator := track.NewAggregator(geotag.NewExtractor(geotag.ExifReader{}),
		track.WithLogger(logger),
		track.WithAltitude(config.Speed.AltitudeKm),
		track.WithCorrectionFactor(config.Speed.CorrectionFactor))

	result, err := aggregator.Aggregate(images)
	if err != nil {
		return fmt.Errorf("aggregating session %d: %w", sessionID, err)
	}

	if err = store.StoreSamples(ctx, sessionID, result.Samples); err != nil {
		logger.Error(err.Error())
	}
	if err = store.StoreResult(ctx, sessionID, result); err != nil {
		logger.Error(err.Error())
	}

	if err = writeResult(result, config.Output.ResultFile); err != nil {
		return fmt.Errorf("writing result artifact: %w", err)
	}

	logger.Info("session complete",
		slog.Int64("sessionID", sessionID),
		slog.Int("samples", len(result.Samples)),
		slog.String("averageSpeed", fmt.Sprintf("%.3f km/s", result.AverageSpeed)),
		slog.String("correctedSpeed", fmt.Sprintf("%.3f km/s", result.CorrectedSpeed)))

	kept, err := capture.Prune(images, config.Capture.RetentionCap)
	if err != nil {
		// Partial cleanup is non-corrupting; the session result stands.
		logger.Warn(fmt.Sprintf("retention cleanup incomplete: %s", err.Error()))
		return nil
	}

	logger.Info("retention cleanup complete",
		slog.Int("kept", len(kept)),
		slog.Int("deleted", len(images)-len(kept)))

	return nil
}

func writeResult(result *track.Result, path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cErr := f.Close(); cErr != nil && err == nil {
			err = cErr
		}
	}()

	return result.Write(f)
}

func createStorage(config *StorageConfig) (storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("checking storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("groundtrack_session_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.NewSqliteStore(dbPath), nil
}
