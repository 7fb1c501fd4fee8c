// Package plot renders the energy/latency trade-off chart from a results table.
package plot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iafilius/AdaptivePolling/src/logging"
	"github.com/iafilius/AdaptivePolling/src/results"
)

// DefaultPlotFile is where the chart is written when no path is given.
const DefaultPlotFile = "adaptive_polling_plot.png"

// ErrNoData is returned when a series has no finite point to draw.
var ErrNoData = errors.New("plot: no data points")

// Matplotlib's single-letter colors and default grid tint.
var (
	ColorBlue = drawing.Color{R: 0, G: 0, B: 255, A: 255}
	ColorRed  = drawing.Color{R: 255, G: 0, B: 0, A: 255}
	gridColor = drawing.Color{R: 176, G: 176, B: 176, A: 77} // alpha 0.3
)

// SeriesSpec selects a column and describes how it is drawn.
type SeriesSpec struct {
	Column string
	Label  string
	Color  drawing.Color
	// LineWidth and MarkerSize are in points.
	LineWidth  float64
	MarkerSize float64
}

// Options describe the figure. Sizes in inches and points are converted to pixels with DPI.
type Options struct {
	WidthInches  float64
	HeightInches float64
	DPI          float64

	Title         string
	TitleFontSize float64
	XColumn       string
	XLabel        string
	YLabel        string
	LabelFontSize float64
	Grid          bool
	Legend        bool

	Series []SeriesSpec
}

// DefaultOptions is the 10x6 inch, 300 DPI trade-off chart.
func DefaultOptions() Options {
	return Options{
		WidthInches:   10,
		HeightInches:  6,
		DPI:           300,
		Title:         "Adaptive Polling Energy vs Latency Trade-off",
		TitleFontSize: 14,
		XColumn:       results.ColEventRate,
		XLabel:        "Event Rate (events/sec)",
		YLabel:        "Percentage",
		LabelFontSize: 12,
		Grid:          true,
		Legend:        true,
		Series: []SeriesSpec{
			{Column: results.ColEnergySaved, Label: "Energy Saved (%)", Color: ColorBlue, LineWidth: 2, MarkerSize: 6},
			{Column: results.ColLatencyIncrease, Label: "Latency Increase (%)", Color: ColorRed, LineWidth: 2, MarkerSize: 6},
		},
	}
}

// PixelSize returns the image dimensions for o.
func (o Options) PixelSize() (int, int) {
	return int(math.Round(o.WidthInches * o.DPI)), int(math.Round(o.HeightInches * o.DPI))
}

// px converts points to pixels.
func (o Options) px(points float64) float64 { return points * o.DPI / 72 }

func (o Options) validate() error {
	w, h := o.PixelSize()
	if w <= 0 || h <= 0 {
		return fmt.Errorf("plot: invalid figure size %dx%d px", w, h)
	}
	if len(o.Series) == 0 {
		return errors.New("plot: no series configured")
	}
	return nil
}

// Build assembles the go-chart chart for tbl without rendering it.
func Build(tbl *results.Table, o Options) (*chart.Chart, error) {
	if err := o.validate(); err != nil {
		return nil, err
	}
	xs, err := tbl.Column(o.XColumn)
	if err != nil {
		return nil, err
	}

	series := make([]chart.Series, 0, len(o.Series))
	var allY, allX []float64
	for _, spec := range o.Series {
		ys, err := tbl.Column(spec.Column)
		if err != nil {
			return nil, err
		}
		sx, sy := finitePairs(xs, ys)
		if len(sx) == 0 {
			return nil, fmt.Errorf("%w in series %q", ErrNoData, spec.Label)
		}
		allX = append(allX, sx...)
		allY = append(allY, sy...)
		series = append(series, chart.ContinuousSeries{
			Name:    spec.Label,
			XValues: sx,
			YValues: sy,
			Style: chart.Style{
				StrokeColor: spec.Color,
				StrokeWidth: o.px(spec.LineWidth),
				DotColor:    spec.Color,
				DotWidth:    o.px(spec.MarkerSize) / 2,
			},
		})
	}

	xRange, xTicks := axisFor(allX, axisIntervals)
	yRange, yTicks := axisFor(allY, axisIntervals)

	w, h := o.PixelSize()
	labelStyle := chart.Style{FontSize: o.LabelFontSize}
	ch := &chart.Chart{
		Title: o.Title,
		TitleStyle: chart.Style{
			FontSize: o.TitleFontSize,
			Padding:  chart.Box{Top: int(o.px(8))},
		},
		Width:  w,
		Height: h,
		DPI:    o.DPI,
		Background: chart.Style{
			Padding: chart.Box{
				Top:    int(o.px(36)),
				Left:   int(o.px(14)),
				Right:  int(o.px(24)),
				Bottom: int(o.px(10)),
			},
		},
		XAxis: chart.XAxis{
			Name:      o.XLabel,
			NameStyle: labelStyle,
			Range:     xRange,
			Ticks:     xTicks,
		},
		YAxis: chart.YAxis{
			Name:      o.YLabel,
			NameStyle: labelStyle,
			Range:     yRange,
			Ticks:     yTicks,
		},
		Series: series,
	}
	if f, err := boldFont(); err == nil {
		ch.TitleStyle.Font = f
	} else {
		logging.Warnf("bold title font unavailable, using default face: %v", err)
	}
	if o.Grid {
		grid := chart.Style{StrokeColor: gridColor, StrokeWidth: o.px(0.8)}
		// go-chart alternates major and minor lines; style both the same.
		ch.XAxis.GridMajorStyle, ch.XAxis.GridMinorStyle = grid, grid
		ch.YAxis.GridMajorStyle, ch.YAxis.GridMinorStyle = grid, grid
	}
	if o.Legend {
		ch.Elements = []chart.Renderable{chart.Legend(ch, chart.Style{FontSize: 10})}
	}
	return ch, nil
}

// Render draws tbl and returns the decoded bitmap.
func Render(tbl *results.Table, o Options) (image.Image, error) {
	defer logging.TimeTrack(time.Now(), "render chart")
	ch, err := Build(tbl, o)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	logging.Debugf("rendered %dx%d chart with %d series over %d rows", img.Bounds().Dx(), img.Bounds().Dy(), len(ch.Series), tbl.Len())
	return img, nil
}

// finitePairs drops points where either coordinate is NaN or infinite.
func finitePairs(xs, ys []float64) ([]float64, []float64) {
	ox := make([]float64, 0, len(xs))
	oy := make([]float64, 0, len(ys))
	for i := range xs {
		if i >= len(ys) {
			break
		}
		if bad(xs[i]) || bad(ys[i]) {
			continue
		}
		ox = append(ox, xs[i])
		oy = append(oy, ys[i])
	}
	return ox, oy
}

func bad(v float64) bool { return math.IsNaN(v) || math.IsInf(v, 0) }
