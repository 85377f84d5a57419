package storage

import "time"

// Session is one recorded capture session.
type Session struct {
	ID          int64
	StartTime   time.Time
	CameraModel string
	CameraID    string
	Config      *string
}

// SampleRecord is one stored speed sample.
type SampleRecord struct {
	ID            int64
	SessionID     int64
	ImageA        string
	ImageB        string
	Timestamp     time.Time
	DistanceKm    float64
	DurationSec   float64
	SpeedKmPerSec float64
}

// ResultRecord is a session's stored aggregation outcome.
type ResultRecord struct {
	SessionID         int64
	SampleCount       int
	AverageKmPerSec   float64
	CorrectedKmPerSec float64
}
