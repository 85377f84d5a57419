package geotag

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoGPS is returned when the image carries no GPS coordinate block.
	ErrNoGPS = errors.New("geotag: no GPS coordinate block")

	// ErrNoTimestamp is returned when the image carries no original
	// capture timestamp.
	ErrNoTimestamp = errors.New("geotag: no original capture timestamp")
)

// Extractor decodes GeoTags from image metadata. An extraction failure is
// soft: the caller logs it, skips the image and carries on with the rest
// of the session.
type Extractor struct {
	reader TagReader
}

// NewExtractor creates an Extractor on top of the given tag reader.
func NewExtractor(reader TagReader) *Extractor {
	return &Extractor{reader: reader}
}

// Extract reads the GPS coordinate block and the original capture
// timestamp from the image at path. Both must be present and well-formed,
// otherwise an error is returned and the image yields no GeoTag.
func (e *Extractor) Extract(path string) (*GeoTag, error) {
	fields, err := e.reader.ReadTags(path)
	if err != nil {
		return nil, fmt.Errorf("reading tags of %s: %w", path, err)
	}
	if !fields.HasGPS {
		return nil, ErrNoGPS
	}
	if !fields.HasDateTime {
		return nil, ErrNoTimestamp
	}

	lat := fields.Latitude.Decimal()
	if fields.LatitudeRef == "S" {
		lat = -lat
	}
	lon := fields.Longitude.Decimal()
	if fields.LongitudeRef == "W" {
		lon = -lon
	}

	if lat < -90 || lat > 90 {
		return nil, fmt.Errorf("geotag: latitude out of range: %f", lat)
	}
	if lon < -180 || lon > 180 {
		return nil, fmt.Errorf("geotag: longitude out of range: %f", lon)
	}

	timestamp, err := time.Parse(TimestampLayout, fields.DateTimeOriginal)
	if err != nil {
		return nil, fmt.Errorf("parsing capture timestamp %q: %w", fields.DateTimeOriginal, err)
	}

	return &GeoTag{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: timestamp,
	}, nil
}
