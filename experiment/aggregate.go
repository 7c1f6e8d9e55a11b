package experiment

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/hotforest/forest"
)

// ErrNoTrials is returned when there is nothing to aggregate.
var ErrNoTrials = errors.New("no trial results to aggregate")

// Result is the mean yield curve over all trials with its peak.
type Result struct {
	Curve    []float64 // mean standing-tree count per density step
	Peak     float64   // max of Curve
	PeakStep int       // first argmax of Curve
	Snapshot forest.Lattice
	// SnapshotTrial is the index of the trial the snapshot was taken from.
	SnapshotTrial int
}

// Sites returns N.
func (r Result) Sites() int {
	return len(r.Curve) - 1
}

// PeakDensity is PeakStep / N.
func (r Result) PeakDensity() float64 {
	return float64(r.PeakStep) / float64(r.Sites())
}

// Aggregate averages the trial curves elementwise and picks the peak.
//
// Lattices cannot be averaged, so the snapshot comes from the trial whose own
// peak step is nearest the mean curve's peak step. Ties go to the trial with
// the higher own peak, then to the lower trial index.
func Aggregate(trials []forest.Result) (Result, error) {
	if len(trials) == 0 {
		return Result{}, ErrNoTrials
	}
	n := len(trials[0].Curve)
	if n < 2 {
		return Result{}, fmt.Errorf("trial 0: curve length %d, want at least 2", n)
	}

	mean := make([]float64, n)
	copy(mean, trials[0].Curve)
	for i, tr := range trials[1:] {
		if len(tr.Curve) != n {
			return Result{}, fmt.Errorf("trial %d: curve length %d, want %d", i+1, len(tr.Curve), n)
		}
		floats.Add(mean, tr.Curve)
	}
	if len(trials) > 1 {
		floats.Scale(1/float64(len(trials)), mean)
	}

	peakStep := floats.MaxIdx(mean)

	best := 0
	bestDist := absInt(trials[0].PeakStep - peakStep)
	for i := 1; i < len(trials); i++ {
		dist := absInt(trials[i].PeakStep - peakStep)
		if dist < bestDist || (dist == bestDist && trials[i].Peak > trials[best].Peak) {
			best, bestDist = i, dist
		}
	}

	return Result{
		Curve:         mean,
		Peak:          mean[peakStep],
		PeakStep:      peakStep,
		Snapshot:      trials[best].Snapshot.Clone(),
		SnapshotTrial: best,
	}, nil
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
