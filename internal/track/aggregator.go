package track

import (
	"errors"
	"io"
	"log/slog"

	"github.com/skyfield/groundtrack/internal/capture"
	"github.com/skyfield/groundtrack/internal/geo"
	"github.com/skyfield/groundtrack/internal/geotag"
)

// DefaultCorrectionFactor compensates for the gap between the spherical
// distance model and the actual orbital geometry.
const DefaultCorrectionFactor = 0.05

// ErrNoSamples is returned when no consecutive image pair yields a usable
// speed sample, so no average can be computed.
var ErrNoSamples = errors.New("track: no usable image pairs")

// WithLogger sets the logger for the aggregator
func WithLogger(logger *slog.Logger) func(a *Aggregator) {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithAltitude sets the assumed platform altitude in kilometers
func WithAltitude(altitudeKm float64) func(a *Aggregator) {
	return func(a *Aggregator) {
		a.altitudeKm = altitudeKm
	}
}

// WithCorrectionFactor sets the calibration factor applied to the average
func WithCorrectionFactor(factor float64) func(a *Aggregator) {
	return func(a *Aggregator) {
		a.correction = factor
	}
}

// Aggregator turns a session's captured images into speed samples and an
// averaged, calibrated result.
type Aggregator struct {
	extractor  *geotag.Extractor
	altitudeKm float64
	correction float64
	logger     *slog.Logger
}

// NewAggregator creates an Aggregator with the default altitude and
// correction factor.
func NewAggregator(extractor *geotag.Extractor, options ...func(a *Aggregator)) *Aggregator {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // nil logger

	a := Aggregator{
		extractor:  extractor,
		altitudeKm: geo.DefaultAltitudeKm,
		correction: DefaultCorrectionFactor,
		logger:     logger,
	}

	for _, option := range options {
		option(&a)
	}

	return &a
}

// Aggregate walks consecutive image pairs in capture order and produces
// the session result. Pairs are skipped without producing a sample when
// either geotag is missing, the two images are identical, or the distance
// or elapsed time between them is zero. Returns ErrNoSamples when every
// pair was skipped.
func (a *Aggregator) Aggregate(images []capture.Image) (*Result, error) {
	var samples []Sample

	for i := 1; i < len(images); i++ {
		prev, curr := images[i-1], images[i]
		if prev.Path == curr.Path {
			continue
		}

		tagA, ok := a.extract(prev.Path)
		if !ok {
			continue
		}
		tagB, ok := a.extract(curr.Path)
		if !ok {
			continue
		}

		distance := geo.ShellDistanceKm(tagA.Latitude, tagA.Longitude, tagB.Latitude, tagB.Longitude, a.altitudeKm)
		duration := tagB.Timestamp.Sub(tagA.Timestamp).Seconds()
		if distance == 0 || duration == 0 {
			continue
		}

		speed, err := geo.SpeedKmPerSec(distance, duration)
		if err != nil {
			continue
		}

		samples = append(samples, Sample{
			ImageA:        prev.Path,
			ImageB:        curr.Path,
			Timestamp:     tagB.Timestamp,
			DistanceKm:    distance,
			DurationSec:   duration,
			SpeedKmPerSec: speed,
		})
	}

	if len(samples) == 0 {
		return nil, ErrNoSamples
	}

	var sum float64
	for _, s := range samples {
		sum += s.SpeedKmPerSec
	}
	average := sum / float64(len(samples))

	return &Result{
		Samples:        samples,
		AverageSpeed:   average,
		CorrectedSpeed: average * (1 + a.correction),
	}, nil
}

func (a *Aggregator) extract(path string) (*geotag.GeoTag, bool) {
	tag, err := a.extractor.Extract(path)
	if err != nil {
		a.logger.Warn("skipping image without usable metadata",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, false
	}
	return tag, true
}
