package geotag

import "time"

// TimestampLayout is the textual pattern of the EXIF DateTimeOriginal tag.
const TimestampLayout = "2006:01:02 15:04:05"

// GeoTag is a decimal-degree position and the instant the frame was taken,
// decoded from an image's embedded metadata.
type GeoTag struct {
	Latitude  float64 // Decimal degrees, south negative
	Longitude float64 // Decimal degrees, west negative
	Timestamp time.Time
}

// DMS is a degrees/minutes/seconds coordinate triple as stored in the
// GPS coordinate block.
type DMS struct {
	Degrees float64
	Minutes float64
	Seconds float64
}

// Decimal converts the triple to decimal degrees.
func (d DMS) Decimal() float64 {
	return d.Degrees + d.Minutes/60 + d.Seconds/3600
}

// Fields are the raw tag values extraction works from. Presence flags
// distinguish a missing block from zero values.
type Fields struct {
	HasGPS       bool
	Latitude     DMS
	LatitudeRef  string // "N" or "S"
	Longitude    DMS
	LongitudeRef string // "E" or "W"

	HasDateTime      bool
	DateTimeOriginal string
}

// TagReader reads embedded tag values from an image file.
type TagReader interface {
	ReadTags(path string) (*Fields, error)
}
