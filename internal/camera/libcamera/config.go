package libcamera

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// Runtime is the default capture binary
	Runtime = "libcamera-still"

	QualityMin = 1
	QualityMax = 100

	// AWBAuto is the default white balance mode
	AWBAuto         AWBMode = "auto"
	AWBIncandescent AWBMode = "incandescent"
	AWBTungsten     AWBMode = "tungsten"
	AWBFluorescent  AWBMode = "fluorescent"
	AWBIndoor       AWBMode = "indoor"
	AWBDaylight     AWBMode = "daylight"
	AWBCloudy       AWBMode = "cloudy"

	// ExposureNormal is the default exposure mode
	ExposureNormal ExposureMode = "normal"
	ExposureSport  ExposureMode = "sport"
	ExposureLong   ExposureMode = "long"
)

var (
	validAWBModes = map[AWBMode]struct{}{
		AWBAuto:         {},
		AWBIncandescent: {},
		AWBTungsten:     {},
		AWBFluorescent:  {},
		AWBIndoor:       {},
		AWBDaylight:     {},
		AWBCloudy:       {},
	}

	validExposureModes = map[ExposureMode]struct{}{
		ExposureNormal: {},
		ExposureSport:  {},
		ExposureLong:   {},
	}
)

type AWBMode string

func (m AWBMode) String() string {
	return string(m)
}

type ExposureMode string

func (m ExposureMode) String() string {
	return string(m)
}

// Config is the `libcamera-still` tool configuration
type Config struct {
	// Command overrides the capture binary, e.g. to use `raspistill`
	// on a legacy camera stack (default: libcamera-still)
	Command string `yaml:"command" json:"command"`

	Width  int `yaml:"width" json:"width"`   // --width capture width in pixels (default: 2592)
	Height int `yaml:"height" json:"height"` // --height capture height in pixels (default: 1944)

	Quality int `yaml:"quality" json:"quality"` // -q JPEG quality 1-100 (default: 93)

	TimeoutMs int `yaml:"timeoutMs" json:"timeoutMs"` // -t delay before capture in milliseconds (default: tool default)

	AWB      AWBMode      `yaml:"awb" json:"awb"`           // --awb white balance mode (default: auto)
	Exposure ExposureMode `yaml:"exposure" json:"exposure"` // --exposure exposure mode (default: normal)

	HFlip bool `yaml:"hflip" json:"hflip"` // --hflip horizontal flip (default: off)
	VFlip bool `yaml:"vflip" json:"vflip"` // --vflip vertical flip (default: off)
}

func (c *Config) Validate() error {
	if c.Width < 0 || c.Height < 0 {
		return fmt.Errorf("libcamera.Config: dimensions must not be negative: %dx%d", c.Width, c.Height)
	}
	if (c.Width == 0) != (c.Height == 0) {
		return fmt.Errorf("libcamera.Config: width and height must be set together: %dx%d", c.Width, c.Height)
	}

	if c.Quality != 0 && (c.Quality < QualityMin || c.Quality > QualityMax) {
		return fmt.Errorf("libcamera.Config: invalid quality: %d, must be between %d and %d", c.Quality, QualityMin, QualityMax)
	}

	if c.TimeoutMs < 0 {
		return fmt.Errorf("libcamera.Config: timeout must not be negative: %d", c.TimeoutMs)
	}

	if c.AWB != "" {
		if _, ok := validAWBModes[c.AWB]; !ok {
			return fmt.Errorf("libcamera.Config: invalid AWB mode: %s", c.AWB)
		}
	}

	if c.Exposure != "" {
		if _, ok := validExposureModes[c.Exposure]; !ok {
			return fmt.Errorf("libcamera.Config: invalid exposure mode: %s", c.Exposure)
		}
	}

	return nil
}

// Args returns the command line arguments for the capture tool, without
// the output path which is appended per capture.
func (c *Config) Args() ([]string, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var args []string

	if c.Width > 0 {
		args = append(args, "--width", strconv.Itoa(c.Width), "--height", strconv.Itoa(c.Height))
	}

	if c.Quality > 0 {
		args = append(args, "-q", strconv.Itoa(c.Quality))
	}

	if c.TimeoutMs > 0 {
		args = append(args, "-t", strconv.Itoa(c.TimeoutMs))
	}

	if c.AWB != "" {
		args = append(args, "--awb", c.AWB.String())
	}

	if c.Exposure != "" {
		args = append(args, "--exposure", c.Exposure.String())
	}

	if c.HFlip {
		args = append(args, "--hflip")
	}

	if c.VFlip {
		args = append(args, "--vflip")
	}

	args = append(args, "-n") // no preview window

	return args, nil
}

func (c *Config) String() string {
	args, err := c.Args()
	if err != nil {
		return fmt.Sprintf("libcamera.Config: failed to build args: %s", err)
	}

	command := c.Command
	if command == "" {
		command = Runtime
	}
	return fmt.Sprintf("%s %s", command, strings.Join(args, " "))
}
