package app

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/skyfield/groundtrack/internal/camera/libcamera"
	"github.com/skyfield/groundtrack/internal/geo"
	"github.com/skyfield/groundtrack/internal/track"
)

// Config represents the main application configuration
type Config struct {
	Settings Settings      `yaml:"settings"`
	Camera   CameraConfig  `yaml:"camera"`
	Capture  CaptureConfig `yaml:"capture"`
	Speed    SpeedConfig   `yaml:"speed"`
	Storage  StorageConfig `yaml:"storage"`
	Output   OutputConfig  `yaml:"output"`
}

// Settings represents global application settings
type Settings struct {
	LogLevel string `yaml:"logLevel"`
}

// SlogLevel maps the configured level name onto a slog.Level
func (s Settings) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(s.LogLevel) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s.LogLevel)
	}
}

// CameraConfig represents the capture device configuration
type CameraConfig struct {
	Name   string            `yaml:"name"`
	Config *libcamera.Config `yaml:"config"`
}

// CaptureConfig bounds the acquisition loop
type CaptureConfig struct {
	Directory      string  `yaml:"directory"`
	MaxStorageMB   int64   `yaml:"maxStorageMB"`
	MaxImages      int     `yaml:"maxImages"`
	MaxDurationSec float64 `yaml:"maxDurationSec"`
	IntervalSec    float64 `yaml:"intervalSec"`
	RetentionCap   int     `yaml:"retentionCap"`
}

// SpeedConfig holds the physical and calibration constants
type SpeedConfig struct {
	AltitudeKm       float64 `yaml:"altitudeKm"`
	CorrectionFactor float64 `yaml:"correctionFactor"`
}

// StorageConfig represents storage settings
type StorageConfig struct {
	DataDirectory string `yaml:"dataDirectory"`
}

// OutputConfig locates the result artifact
type OutputConfig struct {
	ResultFile string `yaml:"resultFile"`
}

// NewConfig returns a configuration populated with the defaults. Values
// present in the configuration file override them.
func NewConfig() *Config {
	return &Config{
		Settings: Settings{LogLevel: "info"},
		Camera:   CameraConfig{Name: "cam0"},
		Capture: CaptureConfig{
			Directory:      "images",
			MaxStorageMB:   250,
			MaxImages:      42,
			MaxDurationSec: 480,
			IntervalSec:    5,
			RetentionCap:   42,
		},
		Speed: SpeedConfig{
			AltitudeKm:       geo.DefaultAltitudeKm,
			CorrectionFactor: track.DefaultCorrectionFactor,
		},
		Storage: StorageConfig{DataDirectory: "data"},
		Output:  OutputConfig{ResultFile: "result.txt"},
	}
}

// LoadConfig reads and validates the configuration file at path
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading configuration: %w", err)
	}

	config := NewConfig()
	if err = yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if _, err := c.Settings.SlogLevel(); err != nil {
		return err
	}

	if c.Capture.Directory == "" {
		return fmt.Errorf("capture directory is required")
	}
	if c.Capture.MaxStorageMB <= 0 {
		return fmt.Errorf("capture storage budget must be positive: %d", c.Capture.MaxStorageMB)
	}
	if c.Capture.MaxImages <= 0 {
		return fmt.Errorf("capture image budget must be positive: %d", c.Capture.MaxImages)
	}
	if c.Capture.MaxDurationSec < 0 {
		return fmt.Errorf("capture duration budget must not be negative: %f", c.Capture.MaxDurationSec)
	}
	if c.Capture.IntervalSec < 0 {
		return fmt.Errorf("capture interval must not be negative: %f", c.Capture.IntervalSec)
	}
	if c.Capture.RetentionCap < 0 {
		return fmt.Errorf("retention cap must not be negative: %d", c.Capture.RetentionCap)
	}

	if c.Speed.AltitudeKm < 0 {
		return fmt.Errorf("platform altitude must not be negative: %f", c.Speed.AltitudeKm)
	}

	if c.Camera.Config != nil {
		if err := c.Camera.Config.Validate(); err != nil {
			return err
		}
	}

	if c.Output.ResultFile == "" {
		return fmt.Errorf("result file is required")
	}

	return nil
}
