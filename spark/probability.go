// Package spark builds the spatially biased ignition distribution and draws
// spark sites from it.
package spark

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ErrDegenerate is returned when a distribution has no valid sampling target:
// it is empty, sums to zero, or holds negative or non-finite weights.
var ErrDegenerate = errors.New("degenerate probability distribution")

// BuildProbability returns the unnormalized weights w[i] = exp(-i/L) for
// i in [0, n). Weight decays away from site 0; smaller L concentrates it.
func BuildProbability(n int, charLen float64) ([]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("sites must be >= 1, got %d", n)
	}
	if !(charLen > 0) || math.IsInf(charLen, 0) {
		return nil, fmt.Errorf("char length must be positive and finite, got %v", charLen)
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = math.Exp(-float64(i) / charLen)
	}
	return w, nil
}

// Normalize returns a copy of w scaled to sum to 1.
func Normalize(w []float64) ([]float64, error) {
	if err := check(w); err != nil {
		return nil, err
	}
	p := make([]float64, len(w))
	copy(p, w)
	floats.Scale(1/floats.Sum(p), p)
	return p, nil
}

// Distribution is BuildProbability followed by Normalize.
func Distribution(n int, charLen float64) ([]float64, error) {
	w, err := BuildProbability(n, charLen)
	if err != nil {
		return nil, err
	}
	return Normalize(w)
}

func check(w []float64) error {
	if len(w) == 0 {
		return fmt.Errorf("%w: no sites", ErrDegenerate)
	}
	for i, v := range w {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: weight %d is %v", ErrDegenerate, i, v)
		}
	}
	if sum := floats.Sum(w); !(sum > 0) || math.IsInf(sum, 0) {
		return fmt.Errorf("%w: weights sum to %v", ErrDegenerate, sum)
	}
	return nil
}
