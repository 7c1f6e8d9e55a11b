// Package experiment runs D independent forest trials over a shared spark set
// and aggregates their yield curves.
package experiment

import (
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/pthm-cable/hotforest/forest"
)

// Outcome is one finished trial.
type Outcome struct {
	Index    int
	Seed     int64
	Duration time.Duration
	forest.Result
}

// Runner executes trials on a fixed pool of worker goroutines. Every trial
// gets its own RNG seeded from its own seed, so results do not depend on the
// worker count or scheduling.
type Runner struct {
	sites   int
	sparks  []int
	workers int
}

// NewRunner validates the spark set against sites. workers <= 0 means GOMAXPROCS.
func NewRunner(sites int, sparks []int, workers int) (*Runner, error) {
	if _, err := forest.NewTrial(sites, sparks); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Runner{sites: sites, sparks: sparks, workers: workers}, nil
}

// Workers returns the pool size.
func (r *Runner) Workers() int {
	return r.workers
}

// TrialSeeds derives d per-trial seeds from a master seed.
func TrialSeeds(seed int64, d int) []int64 {
	rng := rand.New(rand.NewSource(seed))
	seeds := make([]int64, d)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}
	return seeds
}

type job struct {
	index int
	seed  int64
}

// Run executes one trial per seed and returns outcomes in seed order.
func (r *Runner) Run(seeds []int64) ([]Outcome, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("no trials to run")
	}

	workers := r.workers
	if workers > len(seeds) {
		workers = len(seeds)
	}

	jobs := make(chan job)
	outcomes := make([]Outcome, len(seeds))
	errs := make([]error, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			// One Trial per worker, reset between sweeps
			trial, err := forest.NewTrial(r.sites, r.sparks)
			if err != nil {
				errs[workerID] = err
				for range jobs {
				}
				return
			}
			for j := range jobs {
				start := time.Now()
				res := trial.Run(rand.New(rand.NewSource(j.seed)))
				outcomes[j.index] = Outcome{
					Index:    j.index,
					Seed:     j.seed,
					Duration: time.Since(start),
					Result:   res,
				}
				slog.Debug("trial finished",
					"trial", j.index,
					"worker", workerID,
					"peak", res.Peak,
					"peak_density", res.PeakDensity(),
					"fires", len(res.Fires),
				)
			}
		}(w)
	}

	for i, s := range seeds {
		jobs <- job{index: i, seed: s}
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return outcomes, nil
}

// Results strips the bookkeeping from outcomes.
func Results(outcomes []Outcome) []forest.Result {
	out := make([]forest.Result, len(outcomes))
	for i, o := range outcomes {
		out[i] = o.Result
	}
	return out
}
