package app

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/skyfield/groundtrack/internal/storage"
)

const (
	dpi      = 120.0
	fontSize = 12.0

	plotWidth  = 900
	plotHeight = 480

	tickMarkLength = 5
	timeLabels     = 8
	speedLabels    = 6

	defaultTopBorder    = 40
	defaultLeftBorder   = 100
	defaultBottomBorder = 70
	defaultRightBorder  = 40

	defaultTimeFormat     = "15:04:05"
	defaultDatetimeFormat = time.DateTime
)

var (
	colorGrid      = color.RGBA{R: 0xd0, G: 0xd0, B: 0xd0, A: 0xff}
	colorTrack     = color.RGBA{R: 0x1f, G: 0x4e, B: 0x9c, A: 0xff}
	colorAverage   = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	colorCorrected = color.RGBA{R: 0xc0, G: 0x3a, B: 0x2b, A: 0xff}
)

// BorderConfig defines the sizes of white space around the plot
type BorderConfig struct {
	Top    int // Top padding
	Left   int // Space for the speed scale
	Bottom int // Space for the time scale and information bar
	Right  int // Right padding
}

// RenderConfig holds all configuration options for track visualization
type RenderConfig struct {
	TimeFormat     string         // Format string for time display (e.g. "15:04:05")
	DatetimeFormat string         // Format string for date/time display
	Location       *time.Location // Timezone for time display

	FontPath string  // TTF font used for annotations
	FontSize float64 // Font size in points

	BorderConfig BorderConfig
}

// ChartData is the session data the renderer plots.
type ChartData struct {
	Samples []storage.SampleRecord
	Result  *storage.ResultRecord

	TimestampStart time.Time
	TimestampEnd   time.Time
	SpeedMin       float64
	SpeedMax       float64
	TrackKm        float64
}

// NewChartData derives plot bounds from a session's stored samples.
func NewChartData(samples []storage.SampleRecord, result *storage.ResultRecord) (*ChartData, error) {
	if len(samples) == 0 {
		return nil, errors.New("session has no speed samples")
	}

	d := ChartData{
		Samples:        samples,
		Result:         result,
		TimestampStart: samples[0].Timestamp,
		TimestampEnd:   samples[len(samples)-1].Timestamp,
		SpeedMin:       math.Inf(1),
		SpeedMax:       math.Inf(-1),
	}

	for _, s := range samples {
		d.SpeedMin = math.Min(d.SpeedMin, s.SpeedKmPerSec)
		d.SpeedMax = math.Max(d.SpeedMax, s.SpeedKmPerSec)
		d.TrackKm += s.DistanceKm
	}
	if result != nil {
		d.SpeedMin = math.Min(d.SpeedMin, result.AverageKmPerSec)
		d.SpeedMax = math.Max(d.SpeedMax, result.CorrectedKmPerSec)
	}

	// Pad the speed range so a flat track still renders away from the edges.
	pad := (d.SpeedMax - d.SpeedMin) * 0.1
	if pad == 0 {
		pad = math.Max(d.SpeedMax*0.1, 0.1)
	}
	d.SpeedMin -= pad
	d.SpeedMax += pad

	return &d, nil
}

// TrackRenderer handles the visualization of a session's speed samples
type TrackRenderer struct {
	config RenderConfig
}

// NewTrackRenderer creates a new track renderer with the given configuration
func NewTrackRenderer(config RenderConfig) (*TrackRenderer, error) {
	if config.TimeFormat == "" {
		config.TimeFormat = defaultTimeFormat
	}
	if config.DatetimeFormat == "" {
		config.DatetimeFormat = defaultDatetimeFormat
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.FontSize == 0 {
		config.FontSize = fontSize
	}
	if config.BorderConfig.Top == 0 {
		config.BorderConfig.Top = defaultTopBorder
	}
	if config.BorderConfig.Left == 0 {
		config.BorderConfig.Left = defaultLeftBorder
	}
	if config.BorderConfig.Bottom == 0 {
		config.BorderConfig.Bottom = defaultBottomBorder
	}
	if config.BorderConfig.Right == 0 {
		config.BorderConfig.Right = defaultRightBorder
	}

	return &TrackRenderer{config: config}, nil
}

// Render creates an image of the session's speed track with annotations
func (r *TrackRenderer) Render(data *ChartData) (*image.RGBA, error) {
	fullWidth := plotWidth + r.config.BorderConfig.Left + r.config.BorderConfig.Right
	fullHeight := plotHeight + r.config.BorderConfig.Top + r.config.BorderConfig.Bottom
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	plotArea := image.Rect(
		r.config.BorderConfig.Left,
		r.config.BorderConfig.Top,
		r.config.BorderConfig.Left+plotWidth,
		r.config.BorderConfig.Top+plotHeight,
	)

	ann, err := newAnnotator(annotatorConfig{
		TimeFormat:     r.config.TimeFormat,
		DatetimeFormat: r.config.DatetimeFormat,
		Location:       r.config.Location,
		FontPath:       r.config.FontPath,
		FontSize:       r.config.FontSize,
		Borders:        r.config.BorderConfig,
	})
	if err != nil {
		return nil, fmt.Errorf("creating annotator: %w", err)
	}
	defer ann.Close()

	drawFrame(img, plotArea)

	if err = ann.annotate(img, plotArea, data); err != nil {
		return nil, fmt.Errorf("drawing annotations: %w", err)
	}

	r.renderGuides(img, plotArea, data)
	r.renderTrack(img, plotArea, data)

	return img, nil
}

// renderTrack draws the speed polyline with a marker per sample
func (r *TrackRenderer) renderTrack(img *image.RGBA, area image.Rectangle, data *ChartData) {
	var prevX, prevY int
	for i, s := range data.Samples {
		x := timeToX(area, data, s.Timestamp)
		y := speedToY(area, data, s.SpeedKmPerSec)

		if i > 0 {
			drawLine(img, prevX, prevY, x, y, colorTrack)
		}
		drawMarker(img, x, y, colorTrack)

		prevX, prevY = x, y
	}
}

// renderGuides draws horizontal lines at the average and corrected speeds
func (r *TrackRenderer) renderGuides(img *image.RGBA, area image.Rectangle, data *ChartData) {
	if data.Result == nil {
		return
	}

	yAvg := speedToY(area, data, data.Result.AverageKmPerSec)
	yCorr := speedToY(area, data, data.Result.CorrectedKmPerSec)
	for x := area.Min.X; x < area.Max.X; x += 4 {
		img.Set(x, yAvg, colorAverage)
		img.Set(x+1, yAvg, colorAverage)
		img.Set(x, yCorr, colorCorrected)
		img.Set(x+1, yCorr, colorCorrected)
	}
}

func timeToX(area image.Rectangle, data *ChartData, t time.Time) int {
	span := data.TimestampEnd.Sub(data.TimestampStart)
	if span <= 0 {
		return area.Min.X + area.Dx()/2
	}
	ratio := float64(t.Sub(data.TimestampStart)) / float64(span)
	return area.Min.X + int(ratio*float64(area.Dx()-1))
}

func speedToY(area image.Rectangle, data *ChartData, v float64) int {
	ratio := (v - data.SpeedMin) / (data.SpeedMax - data.SpeedMin)
	return area.Max.Y - 1 - int(ratio*float64(area.Dy()-1))
}

func drawFrame(img *image.RGBA, area image.Rectangle) {
	for x := area.Min.X; x < area.Max.X; x++ {
		img.Set(x, area.Min.Y, colorGrid)
		img.Set(x, area.Max.Y-1, colorGrid)
	}
	for y := area.Min.Y; y < area.Max.Y; y++ {
		img.Set(area.Min.X, y, colorGrid)
		img.Set(area.Max.X-1, y, colorGrid)
	}
}

func drawMarker(img *image.RGBA, x, y int, c color.Color) {
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			img.Set(x+dx, y+dy, c)
		}
	}
}

// drawLine draws a straight segment using a simple DDA walk
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := x1-x0, y1-y0
	steps := max(abs(dx), abs(dy))
	if steps == 0 {
		img.Set(x0, y0, c)
		return
	}

	for i := 0; i <= steps; i++ {
		x := x0 + dx*i/steps
		y := y0 + dy*i/steps
		img.Set(x, y, c)
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Internal annotator implementation

type annotatorConfig struct {
	TimeFormat     string
	DatetimeFormat string
	Location       *time.Location
	FontPath       string
	FontSize       float64
	Borders        BorderConfig
}

type annotator struct {
	context  *freetype.Context
	config   annotatorConfig
	fontFace font.Face
}

func newAnnotator(config annotatorConfig) (*annotator, error) {
	fontBytes, err := os.ReadFile(config.FontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(config.FontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.Black)

	return &annotator{
		context: ctx,
		config:  config,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    config.FontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, data *ChartData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawSpeedScale(img, area, data); err != nil {
		return fmt.Errorf("drawing speed scale: %w", err)
	}
	if err := a.drawTimeScale(img, area, data); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, data); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}

	return nil
}

func (a *annotator) drawSpeedScale(img *image.RGBA, area image.Rectangle, data *ChartData) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	step := (data.SpeedMax - data.SpeedMin) / speedLabels
	for i := 0; i <= speedLabels; i++ {
		v := data.SpeedMin + float64(i)*step
		y := speedToY(area, data, v)

		for x := area.Min.X - tickMarkLength; x < area.Min.X; x++ {
			img.Set(x, y, color.Black)
		}

		label := fmt.Sprintf("%.2f", v)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(area.Min.X-tickMarkLength-width.Round()-4, y+fontHeight/2-metrics.Descent.Round())
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing speed label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, area image.Rectangle, data *ChartData) error {
	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := area.Max.Y + tickMarkLength + fontHeight

	span := data.TimestampEnd.Sub(data.TimestampStart)
	for i := 0; i <= timeLabels; i++ {
		t := data.TimestampStart.Add(span * time.Duration(i) / timeLabels)
		x := timeToX(area, data, t)

		for y := area.Max.Y; y < area.Max.Y+tickMarkLength; y++ {
			img.Set(x, y, color.Black)
		}

		label := t.In(a.config.Location).Format(a.config.TimeFormat)
		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-width.Round()/2, textY)
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}

		if span == 0 {
			break // a single instant gets a single label
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, data *ChartData) error {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Samples: %s", humanize.Comma(int64(len(data.Samples)))))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Time: %s - %s",
		data.TimestampStart.In(a.config.Location).Format(a.config.DatetimeFormat),
		data.TimestampEnd.In(a.config.Location).Format(a.config.DatetimeFormat)))
	sb.WriteString("; ")
	sb.WriteString(fmt.Sprintf("Track: %s", humanize.SIWithDigits(data.TrackKm*1000, 1, "m")))

	if data.Result != nil {
		sb.WriteString("; ")
		sb.WriteString(fmt.Sprintf("Avg: %.2f km/s, corrected: %.2f km/s",
			data.Result.AverageKmPerSec, data.Result.CorrectedKmPerSec))
	}

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()
	textY := img.Bounds().Max.Y - fontHeight/2

	pt := freetype.Pt(a.config.Borders.Left, textY)
	if _, err := a.context.DrawString(sb.String(), pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}

	return nil
}
