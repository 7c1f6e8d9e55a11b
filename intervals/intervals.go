// Package intervals measures the gaps between empty sites of a forest
// lattice, the statistic used for the interval-size distribution of the
// peak-yield forest.
package intervals

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hotforest/forest"
)

// Interval is one gap in rank order.
type Interval struct {
	Rank int `csv:"rank"`
	Size int `csv:"size"`
}

// EmptySites lists the indices of all non-tree sites in ascending order.
func EmptySites(l forest.Lattice) []int {
	var out []int
	for i, s := range l {
		if s != forest.Tree {
			out = append(out, i)
		}
	}
	return out
}

// Gaps returns the interval lengths of l in site order: the leading segment
// before the first empty site, the index difference between each pair of
// consecutive empty sites, and the trailing segment after the last one.
// Edge segments may be zero, and when there is at least one empty site the
// gaps sum to N-1. A lattice with no empty sites is one interval spanning all
// of it, so its single gap is N rather than N-1.
func Gaps(l forest.Lattice) []int {
	empty := EmptySites(l)
	if len(empty) == 0 {
		if len(l) == 0 {
			return nil
		}
		return []int{len(l)}
	}

	gaps := make([]int, 0, len(empty)+1)
	gaps = append(gaps, empty[0])
	for i := 1; i < len(empty); i++ {
		gaps = append(gaps, empty[i]-empty[i-1])
	}
	gaps = append(gaps, len(l)-1-empty[len(empty)-1])
	return gaps
}

// ClusterSizes returns the lengths of the maximal tree runs in site order.
func ClusterSizes(l forest.Lattice) []int {
	var sizes []int
	for _, r := range l.Runs() {
		if r.State == forest.Tree {
			sizes = append(sizes, r.Len)
		}
	}
	return sizes
}

// Rank sorts sizes ascending and numbers them from 1.
func Rank(sizes []int) []Interval {
	sorted := make([]int, len(sizes))
	copy(sorted, sizes)
	sort.Ints(sorted)

	out := make([]Interval, len(sorted))
	for i, s := range sorted {
		out[i] = Interval{Rank: i + 1, Size: s}
	}
	return out
}

// Ranked is Rank(Gaps(l)).
func Ranked(l forest.Lattice) []Interval {
	return Rank(Gaps(l))
}

// Summary describes an interval size distribution.
type Summary struct {
	Count  int
	Mean   float64
	StdDev float64
	Median float64
	P90    float64
	Max    int
}

// Summarize computes distribution statistics for sizes.
func Summarize(sizes []int) Summary {
	if len(sizes) == 0 {
		return Summary{}
	}
	x := make([]float64, len(sizes))
	for i, s := range sizes {
		x[i] = float64(s)
	}
	sort.Float64s(x)

	mean, std := stat.MeanStdDev(x, nil)
	return Summary{
		Count:  len(x),
		Mean:   mean,
		StdDev: std,
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, x, nil),
		Max:    int(x[len(x)-1]),
	}
}

// LogValue implements slog.LogValuer for structured logging.
func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("count", s.Count),
		slog.Float64("mean", s.Mean),
		slog.Float64("std", s.StdDev),
		slog.Float64("median", s.Median),
		slog.Float64("p90", s.P90),
		slog.Int("max", s.Max),
	)
}
