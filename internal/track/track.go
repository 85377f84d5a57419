package track

import (
	"fmt"
	"io"
	"time"
)

// Sample is the speed estimate derived from one consecutive image pair.
type Sample struct {
	ImageA        string    // Path of the earlier image
	ImageB        string    // Path of the later image
	Timestamp     time.Time // Capture instant of the later image
	DistanceKm    float64
	DurationSec   float64
	SpeedKmPerSec float64
}

// Result is the aggregated outcome of a capture session.
type Result struct {
	Samples        []Sample
	AverageSpeed   float64 // Mean of the sample speeds, km/s
	CorrectedSpeed float64 // AverageSpeed with the calibration factor applied
}

// Write writes the result artifact line: the corrected speed to two
// decimal places with the km/s unit suffix.
func (r *Result) Write(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%.2f km/s\n", r.CorrectedSpeed); err != nil {
		return fmt.Errorf("writing result: %w", err)
	}
	return nil
}
