package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/skyfield/groundtrack/internal/storage"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.NewSqliteStore(config.DBPath)
	defer store.Close()

	return renderTrack(ctx, store, config, logger)
}

func renderTrack(ctx context.Context, store storage.Store, config *Config, logger *slog.Logger) error {
	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return err
	}
	if session == nil {
		return fmt.Errorf("session %d not found", config.SessionID)
	}

	samples, err := store.Samples(ctx, config.SessionID)
	if err != nil {
		return err
	}

	result, err := store.Result(ctx, config.SessionID)
	if err != nil {
		return err
	}

	data, err := NewChartData(samples, result)
	if err != nil {
		return err
	}

	logger.Info("loaded session",
		slog.Int64("sessionID", session.ID),
		slog.String("camera", session.CameraModel),
		slog.Int("samples", len(samples)),
		slog.Group("stats",
			slog.String("minTimestamp", data.TimestampStart.Local().Format(time.DateTime)),
			slog.String("maxTimestamp", data.TimestampEnd.Local().Format(time.DateTime)),
			slog.String("minSpeed", fmt.Sprintf("%.2f km/s", data.SpeedMin)),
			slog.String("maxSpeed", fmt.Sprintf("%.2f km/s", data.SpeedMax)),
		))

	renderer, err := NewTrackRenderer(RenderConfig{
		FontPath: config.FontPath,
	})
	if err != nil {
		return fmt.Errorf("creating track renderer: %w", err)
	}

	logger.Info("rendering track",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
		))

	img, err := renderer.Render(data)
	if err != nil {
		return fmt.Errorf("rendering track: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
