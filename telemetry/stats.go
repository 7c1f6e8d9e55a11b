package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/hotforest/experiment"
)

// TrialStats is one row of trials.csv.
type TrialStats struct {
	Trial       int     `csv:"trial"`
	Seed        int64   `csv:"seed"`
	PeakYield   int     `csv:"peak_yield"`
	PeakDensity float64 `csv:"peak_density"`
	FinalYield  int     `csv:"final_yield"`
	Fires       int     `csv:"fires"`
	LargestFire int     `csv:"largest_fire"`
	DurationMS  float64 `csv:"duration_ms"`
}

// NewTrialStats flattens an outcome into a CSV row.
func NewTrialStats(o experiment.Outcome) TrialStats {
	return TrialStats{
		Trial:       o.Index,
		Seed:        o.Seed,
		PeakYield:   o.Peak,
		PeakDensity: o.PeakDensity(),
		FinalYield:  o.FinalYield(),
		Fires:       len(o.Fires),
		LargestFire: o.LargestFire(),
		DurationMS:  float64(o.Duration.Microseconds()) / 1000,
	}
}

// TrialStatsFor converts all outcomes of a run.
func TrialStatsFor(outcomes []experiment.Outcome) []TrialStats {
	rows := make([]TrialStats, len(outcomes))
	for i, o := range outcomes {
		rows[i] = NewTrialStats(o)
	}
	return rows
}

// SpreadStats describes how per-trial peak yields vary across a run.
type SpreadStats struct {
	Trials   int
	PeakMean float64
	PeakStd  float64 // 0 for a single trial
	PeakMin  float64
	PeakP10  float64
	PeakP50  float64
	PeakP90  float64
	PeakMax  float64

	// Mean of the per-trial peak densities
	DensityMean float64
}

// ComputeSpread summarises per-trial peaks.
func ComputeSpread(rows []TrialStats) SpreadStats {
	n := len(rows)
	if n == 0 {
		return SpreadStats{}
	}

	peaks := make([]float64, n)
	densities := make([]float64, n)
	for i, r := range rows {
		peaks[i] = float64(r.PeakYield)
		densities[i] = r.PeakDensity
	}
	sort.Float64s(peaks)

	s := SpreadStats{
		Trials:      n,
		PeakMin:     peaks[0],
		PeakMax:     peaks[n-1],
		PeakP10:     stat.Quantile(0.10, stat.Empirical, peaks, nil),
		PeakP50:     stat.Quantile(0.50, stat.Empirical, peaks, nil),
		PeakP90:     stat.Quantile(0.90, stat.Empirical, peaks, nil),
		DensityMean: stat.Mean(densities, nil),
	}
	if n > 1 {
		s.PeakMean, s.PeakStd = stat.MeanStdDev(peaks, nil)
	} else {
		s.PeakMean = peaks[0]
	}
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s SpreadStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("trials", s.Trials),
		slog.Float64("peak_mean", s.PeakMean),
		slog.Float64("peak_std", s.PeakStd),
		slog.Float64("peak_min", s.PeakMin),
		slog.Float64("peak_p10", s.PeakP10),
		slog.Float64("peak_p50", s.PeakP50),
		slog.Float64("peak_p90", s.PeakP90),
		slog.Float64("peak_max", s.PeakMax),
		slog.Float64("density_mean", s.DensityMean),
	)
}

// LogStats logs the spread using slog.
func (s SpreadStats) LogStats() {
	slog.Info("trial spread", "spread", s)
}
