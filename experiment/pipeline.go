package experiment

import (
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/hotforest/config"
	"github.com/pthm-cable/hotforest/spark"
)

// Run is everything one experiment produced, from spark set to aggregate.
type Run struct {
	Params     config.RunConfig
	Sparks     []int
	TrialSeeds []int64
	Outcomes   []Outcome
	Aggregate  Result
	Elapsed    time.Duration
}

// Execute builds the spark distribution, draws the spark set and trial seeds
// from params.Seed, runs params.Tries trials and aggregates them.
// params.Seed is used as given; resolve a time-based seed before calling.
func Execute(params config.RunConfig) (*Run, error) {
	sparks, seeds, err := Prepare(params)
	if err != nil {
		return nil, err
	}
	return Replay(params, sparks, seeds)
}

// Prepare draws the spark set and the per-trial seeds for params. Both come
// from one RNG seeded with params.Seed, sparks first.
func Prepare(params config.RunConfig) ([]int, []int64, error) {
	p, err := spark.Distribution(params.Sites, params.CharLen)
	if err != nil {
		return nil, nil, fmt.Errorf("building spark distribution: %w", err)
	}

	rng := rand.New(rand.NewSource(params.Seed))
	sparks, err := spark.Sample(p, params.Sparks, rng)
	if err != nil {
		return nil, nil, fmt.Errorf("sampling sparks: %w", err)
	}
	return sparks, TrialSeeds(rng.Int63(), params.Tries), nil
}

// Replay runs trials with a fixed spark set and fixed trial seeds.
func Replay(params config.RunConfig, sparks []int, seeds []int64) (*Run, error) {
	if len(seeds) != params.Tries {
		return nil, fmt.Errorf("have %d trial seeds for %d tries", len(seeds), params.Tries)
	}

	start := time.Now()
	runner, err := NewRunner(params.Sites, sparks, params.Workers)
	if err != nil {
		return nil, fmt.Errorf("preparing trials: %w", err)
	}

	slog.Info("running trials",
		"sites", params.Sites,
		"char_len", params.CharLen,
		"tries", params.Tries,
		"sparks", len(sparks),
		"workers", runner.Workers(),
	)

	outcomes, err := runner.Run(seeds)
	if err != nil {
		return nil, fmt.Errorf("running trials: %w", err)
	}

	agg, err := Aggregate(Results(outcomes))
	if err != nil {
		return nil, fmt.Errorf("aggregating trials: %w", err)
	}

	return &Run{
		Params:     params,
		Sparks:     sparks,
		TrialSeeds: seeds,
		Outcomes:   outcomes,
		Aggregate:  agg,
		Elapsed:    time.Since(start),
	}, nil
}
