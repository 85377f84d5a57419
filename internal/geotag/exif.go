package geotag

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// ExifReader reads tag values from an image's EXIF segment.
type ExifReader struct{}

func (ExifReader) ReadTags(path string) (*Fields, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening image: %w", err)
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding exif: %w", err)
	}

	var fields Fields

	lat, latErr := dmsTag(x, exif.GPSLatitude)
	latRef, latRefErr := stringTag(x, exif.GPSLatitudeRef)
	lon, lonErr := dmsTag(x, exif.GPSLongitude)
	lonRef, lonRefErr := stringTag(x, exif.GPSLongitudeRef)

	// The GPS block counts as present only when all four tags decode.
	if latErr == nil && latRefErr == nil && lonErr == nil && lonRefErr == nil {
		fields.HasGPS = true
		fields.Latitude = lat
		fields.LatitudeRef = latRef
		fields.Longitude = lon
		fields.LongitudeRef = lonRef
	}

	if s, err := stringTag(x, exif.DateTimeOriginal); err == nil {
		fields.HasDateTime = true
		fields.DateTimeOriginal = s
	}

	return &fields, nil
}

func dmsTag(x *exif.Exif, name exif.FieldName) (DMS, error) {
	tag, err := x.Get(name)
	if err != nil {
		return DMS{}, err
	}

	var parts [3]float64
	for i := range parts {
		num, den, err := tag.Rat2(i)
		if err != nil {
			return DMS{}, err
		}
		if den == 0 {
			return DMS{}, fmt.Errorf("%s: zero denominator in component %d", name, i)
		}
		parts[i] = float64(num) / float64(den)
	}

	return DMS{Degrees: parts[0], Minutes: parts[1], Seconds: parts[2]}, nil
}

func stringTag(x *exif.Exif, name exif.FieldName) (string, error) {
	tag, err := x.Get(name)
	if err != nil {
		return "", err
	}
	return tag.StringVal()
}
