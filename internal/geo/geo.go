package geo

import (
	"errors"
	"math"
)

const (
	// EarthRadiusKm is the Earth's equatorial radius in kilometers.
	EarthRadiusKm = 6378.137

	// DefaultAltitudeKm is the assumed platform altitude above the surface.
	DefaultAltitudeKm = 400
)

// ErrZeroDuration is returned when a speed is requested over a zero time
// interval. Callers are expected to filter such pairs before asking.
var ErrZeroDuration = errors.New("geo: zero duration")

// HaversineKm returns the great-circle distance in kilometers between two
// points given in decimal degrees, measured on the Earth's surface.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, EarthRadiusKm)
}

// ShellDistanceKm returns the great-circle distance between two points
// measured along the platform's flight shell: a sphere of the Earth's
// radius plus the assumed altitude. This models distance travelled by an
// orbiting or high-altitude platform rather than its ground track.
func ShellDistanceKm(lat1, lon1, lat2, lon2, altitudeKm float64) float64 {
	return haversine(lat1, lon1, lat2, lon2, EarthRadiusKm+altitudeKm)
}

// SpeedKmPerSec returns the absolute speed in km/s over the given interval.
func SpeedKmPerSec(distanceKm, durationSec float64) (float64, error) {
	if durationSec == 0 {
		return 0, ErrZeroDuration
	}
	return math.Abs(distanceKm / durationSec), nil
}

func haversine(lat1, lon1, lat2, lon2, radiusKm float64) float64 {
	lat1 = lat1 * math.Pi / 180
	lon1 = lon1 * math.Pi / 180
	lat2 = lat2 * math.Pi / 180
	lon2 = lon2 * math.Pi / 180

	dLat := lat2 - lat1
	dLon := lon2 - lon1

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return radiusKm * c
}
