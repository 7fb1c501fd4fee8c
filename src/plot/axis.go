package plot

import (
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
)

// axisIntervals is the number of tick intervals each axis aims for.
const axisIntervals = 6

// axisMargin pads the data on both ends of an axis, like matplotlib's default margins.
const axisMargin = 0.05

// tickMantissas are the step sizes, per power of ten, an axis may tick on.
var tickMantissas = []float64{1, 2, 2.5, 5, 10}

// axisFor fits an axis around the finite values: the data range is padded by axisMargin,
// then widened outward to whole tick steps so the first and last tick sit on the axis ends.
func axisFor(values []float64, intervals int) (*chart.ContinuousRange, []chart.Tick) {
	lo, hi := dataBounds(values)
	pad := (hi - lo) * axisMargin
	lo, hi = lo-pad, hi+pad

	step := tickStep(hi-lo, intervals)
	first := math.Floor(lo / step)
	last := math.Ceil(hi / step)
	ticks := make([]chart.Tick, 0, int(last-first)+1)
	for k := first; k <= last; k++ {
		v := k * step
		if k == 0 {
			v = 0 // avoid "-0.00"
		}
		ticks = append(ticks, chart.Tick{Value: v, Label: formatTick(v, step)})
	}
	return &chart.ContinuousRange{Min: first * step, Max: last * step}, ticks
}

// dataBounds returns the finite extent of values. A single distinct value is centred in a
// unit span; no finite value at all yields [0,1].
func dataBounds(values []float64) (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if bad(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	switch {
	case math.IsInf(lo, 0):
		return 0, 1
	case hi == lo:
		return lo - 0.5, hi + 0.5
	}
	return lo, hi
}

// tickStep picks the tickMantissas multiple of a power of ten that cuts span into the
// number of intervals closest to intervals.
func tickStep(span float64, intervals int) float64 {
	mag := math.Pow(10, math.Floor(math.Log10(span/float64(intervals))))
	best, bestScore := mag, math.Inf(1)
	for _, m := range tickMantissas {
		step := m * mag
		if score := math.Abs(math.Ceil(span/step) - float64(intervals)); score < bestScore {
			best, bestScore = step, score
		}
	}
	return best
}

// formatTick prints v with as many decimals as step needs.
func formatTick(v, step float64) string {
	decimals := 0
	for s := step; decimals < 6 && math.Abs(s-math.Round(s)) > 1e-9*math.Max(1, math.Abs(s)); s *= 10 {
		decimals++
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
