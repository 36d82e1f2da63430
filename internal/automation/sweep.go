package automation

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/san-kum/forceradar/internal/config"
	"github.com/san-kum/forceradar/internal/dataset"
	"github.com/san-kum/forceradar/internal/metrics"
	"github.com/san-kum/forceradar/internal/sim"
)

// Trial is the outcome of one seeded run.
type Trial struct {
	Seed        int64
	Ticks       int
	Settled     bool
	Overlap     float64
	AnchorError float64
}

// RunTrials runs the dataset once per seed with the given config.
func RunTrials(ctx context.Context, cfg *config.Config, ds *dataset.Dataset, seeds []int64) ([]Trial, error) {
	trials := make([]Trial, 0, len(seeds))
	for _, seed := range seeds {
		s, err := sim.New(cfg.Simulation,
			sim.WithRand(rand.New(rand.NewSource(seed))),
			sim.WithChart(cfg.Chart),
		)
		if err != nil {
			return trials, err
		}
		if err := s.LoadDataset(ds); err != nil {
			return trials, err
		}
		overlap := metrics.NewOverlap(cfg.Simulation.NodePadding)
		anchor := metrics.NewAnchorError()
		s.AddMetric(overlap)
		s.AddMetric(anchor)

		result, err := s.Run(ctx, cfg.MaxTicks)
		if err != nil {
			return trials, fmt.Errorf("seed %d: %w", seed, err)
		}
		trials = append(trials, Trial{
			Seed:        seed,
			Ticks:       result.Ticks,
			Settled:     result.Settled,
			Overlap:     overlap.Value(),
			AnchorError: anchor.Value(),
		})
	}
	return trials, nil
}

// Summary averages a set of trials.
type Summary struct {
	Trials          int
	Settled         int
	MeanTicks       float64
	MeanOverlap     float64
	MeanAnchorError float64
}

func Summarize(trials []Trial) Summary {
	s := Summary{Trials: len(trials)}
	if len(trials) == 0 {
		return s
	}
	for _, t := range trials {
		if t.Settled {
			s.Settled++
		}
		s.MeanTicks += float64(t.Ticks)
		s.MeanOverlap += t.Overlap
		s.MeanAnchorError += t.AnchorError
	}
	n := float64(len(trials))
	s.MeanTicks /= n
	s.MeanOverlap /= n
	s.MeanAnchorError /= n
	return s
}

// Metric reads a summary field by name: ticks, overlap, anchor_error or
// unsettled (the share of trials that hit the tick limit).
func (s Summary) Metric(name string) (float64, error) {
	switch name {
	case "ticks":
		return s.MeanTicks, nil
	case "overlap":
		return s.MeanOverlap, nil
	case "anchor_error":
		return s.MeanAnchorError, nil
	case "unsettled":
		if s.Trials == 0 {
			return 0, nil
		}
		return float64(s.Trials-s.Settled) / float64(s.Trials), nil
	}
	return 0, fmt.Errorf("unknown metric %q", name)
}

// ParameterSweep varies one simulation tunable over [Min, Max] in Steps
// evenly spaced values, running every seed at each value.
type ParameterSweep struct {
	Param    string
	Min, Max float64
	Steps    int
	Seeds    []int64
}

type SweepResult struct {
	Value float64
	Summary
}

// RunSweep leaves base untouched.
func RunSweep(ctx context.Context, base *config.Config, ds *dataset.Dataset, sweep ParameterSweep) ([]SweepResult, error) {
	if sweep.Steps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.Steps)
	}
	if len(sweep.Seeds) == 0 {
		return nil, fmt.Errorf("sweep needs at least one seed")
	}

	step := 0.0
	if sweep.Steps > 1 {
		step = (sweep.Max - sweep.Min) / float64(sweep.Steps-1)
	}

	results := make([]SweepResult, 0, sweep.Steps)
	for i := range sweep.Steps {
		value := sweep.Min + float64(i)*step
		cfg := *base
		if err := cfg.Simulation.Set(sweep.Param, value); err != nil {
			return results, err
		}
		if err := cfg.Validate(); err != nil {
			return results, fmt.Errorf("%s=%g: %w", sweep.Param, value, err)
		}

		trials, err := RunTrials(ctx, &cfg, ds, sweep.Seeds)
		if err != nil {
			return results, err
		}
		results = append(results, SweepResult{Value: value, Summary: Summarize(trials)})
	}
	return results, nil
}

// Seeds returns n consecutive seeds starting at first.
func Seeds(first int64, n int) []int64 {
	seeds := make([]int64, n)
	for i := range seeds {
		seeds[i] = first + int64(i)
	}
	return seeds
}
