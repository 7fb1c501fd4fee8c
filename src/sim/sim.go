// Package sim compares fixed-interval polling with an adaptive back-off poller over a
// Poisson event stream and produces the rows of the results table.
package sim

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/iafilius/AdaptivePolling/src/logging"
	"github.com/iafilius/AdaptivePolling/src/results"
)

// Defaults used by the adaptive-polling command.
const (
	DefaultHorizon       = 3600.0 // seconds
	DefaultSeed          = 42
	DefaultMaxEvents     = 10000
	DefaultFixedInterval = 15.0
	DefaultAdaptiveBase  = 15.0
	DefaultAdaptiveMin   = 5.0
	DefaultAdaptiveMax   = 300.0
	// emptyPollsBeforeBackoff is the number of consecutive empty polls after which the
	// adaptive interval starts doubling.
	emptyPollsBeforeBackoff = 3
)

// DefaultRates are the event rates (events/sec) swept by Run.
var DefaultRates = []float64{0.005, 0.01, 0.02, 0.03, 0.04, 0.05}

// Config controls a simulation sweep.
type Config struct {
	Horizon       float64
	Seed          uint64
	MaxEvents     int
	Rates         []float64
	FixedInterval float64
	Adaptive      AdaptiveParams
}

// AdaptiveParams bounds the adaptive poller's interval.
type AdaptiveParams struct {
	Base float64
	Min  float64
	Max  float64
}

// Outcome is the result of replaying one event stream against one polling strategy.
type Outcome struct {
	MeanLatency float64
	Polls       int
}

// DefaultConfig returns the sweep used to build results.csv.
func DefaultConfig() Config {
	rates := make([]float64, len(DefaultRates))
	copy(rates, DefaultRates)
	return Config{
		Horizon:       DefaultHorizon,
		Seed:          DefaultSeed,
		MaxEvents:     DefaultMaxEvents,
		Rates:         rates,
		FixedInterval: DefaultFixedInterval,
		Adaptive: AdaptiveParams{
			Base: DefaultAdaptiveBase,
			Min:  DefaultAdaptiveMin,
			Max:  DefaultAdaptiveMax,
		},
	}
}

var ErrInvalidConfig = errors.New("sim: invalid config")

// Validate checks that every interval and rate is a positive finite number and the adaptive
// bounds are ordered.
func (c Config) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"horizon", c.Horizon},
		{"fixed interval", c.FixedInterval},
		{"adaptive base", c.Adaptive.Base},
		{"adaptive min", c.Adaptive.Min},
		{"adaptive max", c.Adaptive.Max},
	} {
		if !positiveFinite(f.v) {
			return fmt.Errorf("%w: %s must be a positive finite number (got %v)", ErrInvalidConfig, f.name, f.v)
		}
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("%w: max events must be > 0 (got %d)", ErrInvalidConfig, c.MaxEvents)
	}
	if c.Adaptive.Max < c.Adaptive.Min {
		return fmt.Errorf("%w: adaptive max %v below min %v", ErrInvalidConfig, c.Adaptive.Max, c.Adaptive.Min)
	}
	for _, r := range c.Rates {
		if !positiveFinite(r) {
			return fmt.Errorf("%w: rate must be a positive finite number (got %v)", ErrInvalidConfig, r)
		}
	}
	return nil
}

// positiveFinite is false for NaN, which fails every comparison.
func positiveFinite(v float64) bool { return v > 0 && !math.IsInf(v, 0) }

// NewRand returns the deterministic generator for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// expRand draws an exponential variate with the given rate.
func expRand(rng *rand.Rand, lambda float64) float64 {
	u := 1 - rng.Float64() // (0,1], keeps log finite
	return -math.Log(u) / lambda
}

// GenerateEvents returns ascending arrival times of a Poisson process with rate lambda,
// strictly before horizon and at most maxEvents of them.
func GenerateEvents(rng *rand.Rand, lambda, horizon float64, maxEvents int) []float64 {
	events := make([]float64, 0, int(math.Min(float64(maxEvents), lambda*horizon*1.5)+1))
	t := 0.0
	for t < horizon && len(events) < maxEvents {
		t += expRand(rng, lambda)
		if t < horizon {
			events = append(events, t)
		}
	}
	return events
}

// SimulateFixed polls every interval seconds; each event waits for the next poll at or after it.
func SimulateFixed(interval, horizon float64, events []float64) Outcome {
	out := Outcome{Polls: int(math.Ceil(horizon / interval))}
	if len(events) == 0 {
		return out
	}
	sum := 0.0
	for _, e := range events {
		next := math.Ceil(e/interval) * interval
		sum += next - e
	}
	out.MeanLatency = sum / float64(len(events))
	return out
}

// SimulateAdaptive polls starting at t=0. A poll that finds events resets the interval to
// max(Min, Base/2); after three consecutive empty polls the interval doubles on every
// further empty poll, capped at Max. events must be sorted ascending.
func SimulateAdaptive(p AdaptiveParams, horizon float64, events []float64) Outcome {
	current := p.Base
	t := 0.0
	sum := 0.0
	idx, polls, empty := 0, 0, 0
	for t < horizon {
		polls++
		found := false
		for idx < len(events) && events[idx] <= t {
			sum += t - events[idx]
			idx++
			found = true
		}
		if found {
			empty = 0
			current = math.Max(p.Min, p.Base/2)
		} else {
			empty++
			if empty >= emptyPollsBeforeBackoff {
				current = math.Min(current*2, p.Max)
			}
		}
		t += current
	}
	out := Outcome{Polls: polls}
	if len(events) > 0 {
		out.MeanLatency = sum / float64(len(events))
	}
	return out
}

// EnergySaved is the percentage of polls the adaptive strategy avoided.
func EnergySaved(fixed, adaptive Outcome) float64 {
	if fixed.Polls == 0 {
		return 0
	}
	return 100 * (1 - float64(adaptive.Polls)/float64(fixed.Polls))
}

// LatencyIncrease is the relative growth of mean latency in percent, 0 when the fixed
// strategy saw no latency.
func LatencyIncrease(fixed, adaptive Outcome) float64 {
	if fixed.MeanLatency <= 0 {
		return 0
	}
	return 100 * (adaptive.MeanLatency/fixed.MeanLatency - 1)
}

// Run sweeps cfg.Rates with one generator seeded from cfg.Seed and returns a record per rate.
func Run(cfg Config) ([]results.Record, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	defer logging.TimeTrack(time.Now(), "simulation sweep")
	rng := NewRand(cfg.Seed)
	recs := make([]results.Record, 0, len(cfg.Rates))
	for _, lambda := range cfg.Rates {
		events := GenerateEvents(rng, lambda, cfg.Horizon, cfg.MaxEvents)
		fixed := SimulateFixed(cfg.FixedInterval, cfg.Horizon, events)
		adaptive := SimulateAdaptive(cfg.Adaptive, cfg.Horizon, events)
		logging.Debugf("rate=%.3f events=%d fixed_polls=%d adaptive_polls=%d", lambda, len(events), fixed.Polls, adaptive.Polls)
		recs = append(recs, results.Record{
			EventRate:       lambda,
			FixedLatency:    fixed.MeanLatency,
			AdaptiveLatency: adaptive.MeanLatency,
			FixedPolls:      fixed.Polls,
			AdaptivePolls:   adaptive.Polls,
			EnergySaved:     EnergySaved(fixed, adaptive),
			LatencyIncrease: LatencyIncrease(fixed, adaptive),
		})
	}
	return recs, nil
}
