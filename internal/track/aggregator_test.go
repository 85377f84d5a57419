package track

import (
	"bytes"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/skyfield/groundtrack/internal/capture"
	"github.com/skyfield/groundtrack/internal/geo"
	"github.com/skyfield/groundtrack/internal/geotag"
)

type fakeReader struct {
	fields map[string]*geotag.Fields
}

func (f *fakeReader) ReadTags(path string) (*geotag.Fields, error) {
	fields, ok := f.fields[path]
	if !ok {
		return &geotag.Fields{}, nil
	}
	return fields, nil
}

func taggedAt(lonDeg float64, ts string) *geotag.Fields {
	return &geotag.Fields{
		HasGPS:           true,
		Latitude:         geotag.DMS{},
		LatitudeRef:      "N",
		Longitude:        geotag.DMS{Degrees: lonDeg},
		LongitudeRef:     "E",
		HasDateTime:      true,
		DateTimeOriginal: ts,
	}
}

func sessionImages(paths ...string) []capture.Image {
	images := make([]capture.Image, len(paths))
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	for i, p := range paths {
		images[i] = capture.Image{Path: p, Timestamp: base.Add(time.Duration(i) * 10 * time.Second)}
	}
	return images
}

func TestAggregateEquatorialTrack(t *testing.T) {
	// Three frames along the equator, one degree and ten seconds apart.
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(0, "2024:03:01 10:00:00"),
		"b.jpg": taggedAt(1, "2024:03:01 10:00:10"),
		"c.jpg": taggedAt(2, "2024:03:01 10:00:20"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader))
	result, err := agg.Aggregate(sessionImages("a.jpg", "b.jpg", "c.jpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(result.Samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(result.Samples))
	}

	wantSpeed := (geo.EarthRadiusKm + geo.DefaultAltitudeKm) * math.Pi / 180 / 10
	for i, s := range result.Samples {
		if math.Abs(s.SpeedKmPerSec-wantSpeed) > 1e-6 {
			t.Errorf("sample %d speed = %v, want %v", i, s.SpeedKmPerSec, wantSpeed)
		}
		if s.DurationSec != 10 {
			t.Errorf("sample %d duration = %v, want 10", i, s.DurationSec)
		}
	}

	if math.Abs(result.AverageSpeed-wantSpeed) > 1e-6 {
		t.Errorf("average = %v, want %v", result.AverageSpeed, wantSpeed)
	}
	wantCorrected := result.AverageSpeed * 1.05
	if math.Abs(result.CorrectedSpeed-wantCorrected) > 1e-9 {
		t.Errorf("corrected = %v, want %v", result.CorrectedSpeed, wantCorrected)
	}

	var buf bytes.Buffer
	if err := result.Write(&buf); err != nil {
		t.Fatalf("writing result: %v", err)
	}
	if got := buf.String(); got != "12.42 km/s\n" {
		t.Errorf("artifact line = %q, want %q", got, "12.42 km/s\n")
	}
}

func TestAggregateAllPairsDegenerate(t *testing.T) {
	// Every frame at the identical coordinate: zero distance throughout.
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(5, "2024:03:01 10:00:00"),
		"b.jpg": taggedAt(5, "2024:03:01 10:00:10"),
		"c.jpg": taggedAt(5, "2024:03:01 10:00:20"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader))
	_, err := agg.Aggregate(sessionImages("a.jpg", "b.jpg", "c.jpg"))
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestAggregateSkipsFailedExtraction(t *testing.T) {
	// The middle frame has no GPS block, so neither pair is usable.
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(0, "2024:03:01 10:00:00"),
		"c.jpg": taggedAt(2, "2024:03:01 10:00:20"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader))
	_, err := agg.Aggregate(sessionImages("a.jpg", "b.jpg", "c.jpg"))
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestAggregateSkipsIdenticalImages(t *testing.T) {
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(0, "2024:03:01 10:00:00"),
		"b.jpg": taggedAt(1, "2024:03:01 10:00:10"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader))
	result, err := agg.Aggregate(sessionImages("a.jpg", "a.jpg", "b.jpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Samples) != 1 {
		t.Fatalf("expected 1 sample after skipping the duplicate pair, got %d", len(result.Samples))
	}
}

func TestAggregateSkipsZeroDuration(t *testing.T) {
	// Distinct positions with identical capture instants.
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(0, "2024:03:01 10:00:00"),
		"b.jpg": taggedAt(1, "2024:03:01 10:00:00"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader))
	_, err := agg.Aggregate(sessionImages("a.jpg", "b.jpg"))
	if !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples, got %v", err)
	}
}

func TestAggregateCustomCorrection(t *testing.T) {
	reader := &fakeReader{fields: map[string]*geotag.Fields{
		"a.jpg": taggedAt(0, "2024:03:01 10:00:00"),
		"b.jpg": taggedAt(1, "2024:03:01 10:00:10"),
	}}

	agg := NewAggregator(geotag.NewExtractor(reader), WithCorrectionFactor(0))
	result, err := agg.Aggregate(sessionImages("a.jpg", "b.jpg"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CorrectedSpeed != result.AverageSpeed {
		t.Errorf("zero correction must leave the average unchanged: %v vs %v",
			result.CorrectedSpeed, result.AverageSpeed)
	}
}

func TestAggregateEmptySession(t *testing.T) {
	agg := NewAggregator(geotag.NewExtractor(&fakeReader{}))

	if _, err := agg.Aggregate(nil); !errors.Is(err, ErrNoSamples) {
		t.Fatalf("expected ErrNoSamples for an empty session, got %v", err)
	}
}
