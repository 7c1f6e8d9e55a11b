package spark

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// SliceSampler draws site indices from a discrete distribution by slice
// sampling. Successive draws form a Markov chain whose stationary
// distribution is p; they are correlated, not independent.
//
// Each step draws a height under the current site's weight, steps outward
// from the current site while the neighbouring weights stay above that
// height, and jumps to a uniform site inside the resulting interval. No
// cumulative table is built.
type SliceSampler struct {
	p   []float64
	rng *rand.Rand
	cur int
}

// NewSliceSampler creates a sampler over p, which must be non-empty with
// non-negative weights and a positive sum. p need not be normalized; only
// the ratios between weights matter. The chain starts at the mode of p.
func NewSliceSampler(p []float64, rng *rand.Rand) (*SliceSampler, error) {
	if err := check(p); err != nil {
		return nil, err
	}
	return &SliceSampler{
		p:   p,
		rng: rng,
		cur: floats.MaxIdx(p),
	}, nil
}

// Current returns the site the chain currently sits on.
func (s *SliceSampler) Current() int {
	return s.cur
}

// Next advances the chain one step and returns the new site.
func (s *SliceSampler) Next() int {
	height := s.p[s.cur] * s.rng.Float64()

	lo, hi := s.cur, s.cur
	for lo > 0 && s.p[lo-1] > height {
		lo--
	}
	for hi < len(s.p)-1 && s.p[hi+1] > height {
		hi++
	}

	s.cur = lo + s.rng.Intn(hi-lo+1)
	return s.cur
}

// Sample returns the next k states of the chain.
func (s *SliceSampler) Sample(k int) ([]int, error) {
	if k < 0 {
		return nil, fmt.Errorf("spark count must be >= 0, got %d", k)
	}
	out := make([]int, k)
	for i := range out {
		out[i] = s.Next()
	}
	return out, nil
}

// Sample draws k spark sites from p with a fresh slice sampler.
func Sample(p []float64, k int, rng *rand.Rand) ([]int, error) {
	s, err := NewSliceSampler(p, rng)
	if err != nil {
		return nil, err
	}
	return s.Sample(k)
}
