package plot

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iafilius/AdaptivePolling/src/results"
)

func table(t *testing.T, csv string) *results.Table {
	t.Helper()
	tbl, err := results.Parse(strings.NewReader(csv))
	require.NoError(t, err)
	return tbl
}

const twoRows = "event_rate,energy_saved,latency_increase\n1,50,5\n10,30,15\n"

// smallOptions keeps test renders fast; layout scales with DPI.
func smallOptions() Options {
	o := DefaultOptions()
	o.WidthInches, o.HeightInches, o.DPI = 5, 3, 100
	return o
}

func TestDefaultOptions_Figure(t *testing.T) {
	o := DefaultOptions()
	w, h := o.PixelSize()
	assert.Equal(t, 3000, w)
	assert.Equal(t, 1800, h)
	assert.Equal(t, "Adaptive Polling Energy vs Latency Trade-off", o.Title)
	assert.Equal(t, "Event Rate (events/sec)", o.XLabel)
	assert.Equal(t, "Percentage", o.YLabel)
	require.Len(t, o.Series, 2)
	assert.Equal(t, "Energy Saved (%)", o.Series[0].Label)
	assert.Equal(t, "Latency Increase (%)", o.Series[1].Label)
}

func TestBuild_TwoSeries(t *testing.T) {
	ch, err := Build(table(t, twoRows), DefaultOptions())
	require.NoError(t, err)
	require.Len(t, ch.Series, 2)

	energy := ch.Series[0].(chart.ContinuousSeries)
	latency := ch.Series[1].(chart.ContinuousSeries)
	assert.Equal(t, "Energy Saved (%)", energy.GetName())
	assert.Equal(t, []float64{1, 10}, energy.XValues)
	assert.Equal(t, []float64{50, 30}, energy.YValues)
	assert.Equal(t, []float64{5, 15}, latency.YValues)
	assert.Equal(t, ColorBlue, energy.Style.StrokeColor)
	assert.Equal(t, ColorRed, latency.Style.DotColor)
	// 2pt at 300 DPI
	assert.InDelta(t, 2*300.0/72, energy.Style.StrokeWidth, 1e-9)

	assert.Equal(t, 3000, ch.Width)
	assert.Equal(t, 1800, ch.Height)
	assert.Equal(t, 300.0, ch.DPI)
	assert.NotNil(t, ch.TitleStyle.Font, "title uses the bold face")
	assert.Equal(t, 14.0, ch.TitleStyle.FontSize)
	assert.Equal(t, "Event Rate (events/sec)", ch.XAxis.Name)
	assert.Equal(t, "Percentage", ch.YAxis.Name)
	assert.Equal(t, gridColor, ch.XAxis.GridMajorStyle.StrokeColor)
	assert.Equal(t, gridColor, ch.YAxis.GridMinorStyle.StrokeColor)
	assert.Len(t, ch.Elements, 1, "legend")

	xr := ch.XAxis.Range.(*chart.ContinuousRange)
	yr := ch.YAxis.Range.(*chart.ContinuousRange)
	assert.LessOrEqual(t, xr.Min, 1.0)
	assert.GreaterOrEqual(t, xr.Max, 10.0)
	assert.LessOrEqual(t, yr.Min, 5.0)
	assert.GreaterOrEqual(t, yr.Max, 50.0)
}

func TestBuild_GridAndLegendOptional(t *testing.T) {
	o := smallOptions()
	o.Grid, o.Legend = false, false
	ch, err := Build(table(t, twoRows), o)
	require.NoError(t, err)
	assert.Empty(t, ch.Elements)
	assert.Zero(t, ch.XAxis.GridMajorStyle)
}

func TestBuild_SkipsNonFinitePoints(t *testing.T) {
	ch, err := Build(table(t, "event_rate,energy_saved,latency_increase\n1,NaN,5\n2,40,+Inf\n3,30,7\n"), smallOptions())
	require.NoError(t, err)
	energy := ch.Series[0].(chart.ContinuousSeries)
	latency := ch.Series[1].(chart.ContinuousSeries)
	assert.Equal(t, []float64{2, 3}, energy.XValues)
	assert.Equal(t, []float64{1, 3}, latency.XValues)
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(table(t, "event_rate,energy_saved,latency_increase\n"), smallOptions())
	assert.ErrorIs(t, err, ErrNoData)

	o := smallOptions()
	o.Series = append(o.Series, SeriesSpec{Column: results.ColFixedPolls, Label: "Polls"})
	_, err = Build(table(t, twoRows), o)
	assert.ErrorIs(t, err, results.ErrMissingColumn)

	o = smallOptions()
	o.DPI = 0
	_, err = Build(table(t, twoRows), o)
	assert.Error(t, err)

	o = smallOptions()
	o.Series = nil
	_, err = Build(table(t, twoRows), o)
	assert.Error(t, err)
}

// hasColor reports whether img contains a pixel close to the wanted saturated color.
func hasColor(img image.Image, match func(r, g, b uint32) bool) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if match(r>>8, g>>8, bl>>8) {
				return true
			}
		}
	}
	return false
}

func TestRender_DrawsBothSeries(t *testing.T) {
	img, err := Render(table(t, twoRows), smallOptions())
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 500, 300), img.Bounds())
	assert.True(t, hasColor(img, func(r, g, b uint32) bool { return b > 220 && r < 40 && g < 40 }), "blue series")
	assert.True(t, hasColor(img, func(r, g, b uint32) bool { return r > 220 && g < 40 && b < 40 }), "red series")
}

func TestRender_DefaultSize(t *testing.T) {
	img, err := Render(table(t, twoRows), DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 3000, img.Bounds().Dx())
	assert.Equal(t, 1800, img.Bounds().Dy())
}

func TestRender_SingleRow(t *testing.T) {
	img, err := Render(table(t, "event_rate,energy_saved,latency_increase\n0.01,12,12\n"), smallOptions())
	require.NoError(t, err)
	assert.Equal(t, 500, img.Bounds().Dx())
}

func TestEncode_WritesPHYs(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, img, 300))

	b := buf.Bytes()
	require.Greater(t, len(b), pngHeaderLen+21)
	chunk := b[pngHeaderLen:]
	assert.Equal(t, uint32(9), binary.BigEndian.Uint32(chunk[0:4]))
	assert.Equal(t, "pHYs", string(chunk[4:8]))
	ppm := binary.BigEndian.Uint32(chunk[8:12])
	assert.Equal(t, uint32(math.Round(300/0.0254)), ppm)
	assert.Equal(t, byte(1), chunk[16])

	decoded, err := png.Decode(bytes.NewReader(b))
	require.NoError(t, err, "chunk CRC and layout must stay valid")
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestEncode_NoDPI(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	var plain, ours bytes.Buffer
	require.NoError(t, png.Encode(&plain, img))
	require.NoError(t, Encode(&ours, img, 0))
	assert.Equal(t, plain.Bytes(), ours.Bytes())
}

func TestWithDPI_RejectsGarbage(t *testing.T) {
	_, err := withDPI([]byte("not a png"), 300)
	assert.Error(t, err)
}

func TestSave_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultPlotFile)
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	img, err := Render(table(t, twoRows), smallOptions())
	require.NoError(t, err)
	require.NoError(t, Save(path, img, 100))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.Width)
	assert.Equal(t, 300, cfg.Height)
}

func TestSave_UnwritablePath(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	err := Save(filepath.Join(t.TempDir(), "missing", "x.png"), img, 300)
	assert.Error(t, err)
}
