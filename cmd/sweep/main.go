// Package main sweeps the characteristic length L of the spark distribution
// and records how the peak yield and the density at which it occurs move.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hotforest/config"
	"github.com/pthm-cable/hotforest/experiment"
)

// SweepRow is one line of sweep.csv.
type SweepRow struct {
	CharLen     float64 `csv:"char_len"`
	PeakYield   float64 `csv:"peak_yield"`
	PeakDensity float64 `csv:"peak_density"`
	FinalYield  float64 `csv:"final_yield"`
	ElapsedMS   int64   `csv:"elapsed_ms"`
}

func main() {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	charLens := flag.String("charlens", "1,10,100,1000", "Comma-separated L values to sweep")
	sites := flag.Int("N", 0, "Number of sites (0 = use config)")
	tries := flag.Int("D", 0, "Trials per L value (0 = use config)")
	seed := flag.Int64("seed", 42, "Base RNG seed shared by every L value")
	workers := flag.Int("workers", runtime.NumCPU(), "number of L values run concurrently")
	outputDir := flag.String("output", "", "Output directory for sweep.csv")
	flag.Parse()

	if *outputDir == "" {
		slog.Error("--output is required")
		os.Exit(1)
	}

	lens, err := parseCharLens(*charLens)
	if err != nil {
		slog.Error("bad -charlens", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *sites > 0 {
		cfg.Run.Sites = *sites
	}
	if *tries > 0 {
		cfg.Run.Tries = *tries
	}
	cfg.Run.Seed = *seed
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		slog.Error("failed to create output directory", "error", err)
		os.Exit(1)
	}

	slog.Info("sweeping", "points", len(lens), "workers", *workers, "sites", cfg.Run.Sites, "tries", cfg.Run.Tries)
	start := time.Now()
	rows, err := sweep(cfg.Run, lens, *workers)
	if err != nil {
		slog.Error("sweep failed", "error", err)
		os.Exit(1)
	}

	path := filepath.Join(*outputDir, "sweep.csv")
	f, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create sweep.csv", "error", err)
		os.Exit(1)
	}
	defer f.Close()
	if err := writeSweep(f, rows); err != nil {
		slog.Error("failed to write sweep.csv", "error", err)
		os.Exit(1)
	}

	best := rows[0]
	for _, r := range rows[1:] {
		if r.PeakYield > best.PeakYield {
			best = r
		}
	}
	slog.Info("sweep complete",
		"path", path,
		"elapsed", time.Since(start).Round(time.Millisecond),
		"best_char_len", best.CharLen,
		"best_peak_yield", best.PeakYield,
		"best_peak_density", best.PeakDensity,
	)
}

// parseCharLens parses a comma-separated list of positive L values.
func parseCharLens(s string) ([]float64, error) {
	var out []float64
	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing %q: %w", field, err)
		}
		if !(v > 0) {
			return nil, fmt.Errorf("L must be positive, got %v", v)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no L values in %q", s)
	}
	return out, nil
}

// sweep runs one experiment per L value on a pool of workers. Every point
// uses base.Seed, so points differ only in L. Rows come back in input order.
func sweep(base config.RunConfig, lens []float64, workers int) ([]SweepRow, error) {
	if workers < 1 {
		workers = 1
	}

	rows := make([]SweepRow, len(lens))
	errs := make([]error, len(lens))
	jobs := make(chan int)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				params := base
				params.CharLen = lens[idx]
				params.Workers = 1
				run, err := experiment.Execute(params)
				if err != nil {
					errs[idx] = fmt.Errorf("L=%v: %w", lens[idx], err)
					continue
				}
				rows[idx] = newSweepRow(run)
			}
		}()
	}

	for i := range lens {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return rows, nil
}

func newSweepRow(run *experiment.Run) SweepRow {
	agg := run.Aggregate
	n := float64(agg.Sites())
	return SweepRow{
		CharLen:     run.Params.CharLen,
		PeakYield:   agg.Peak / n,
		PeakDensity: agg.PeakDensity(),
		FinalYield:  agg.Curve[len(agg.Curve)-1] / n,
		ElapsedMS:   run.Elapsed.Milliseconds(),
	}
}

func writeSweep(w io.Writer, rows []SweepRow) error {
	return gocsv.Marshal(rows, w)
}
