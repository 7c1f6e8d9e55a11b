package main

import (
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pthm-cable/hotforest/archive"
	"github.com/pthm-cable/hotforest/config"
	"github.com/pthm-cable/hotforest/experiment"
	"github.com/pthm-cable/hotforest/intervals"
	"github.com/pthm-cable/hotforest/telemetry"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	var sites, tries int
	var charLen float64
	flag.IntVar(&sites, "N", 0, "Number of sites on the lattice")
	flag.IntVar(&sites, "sites", 0, "Number of sites on the lattice (same as -N)")
	flag.Float64Var(&charLen, "L", 0, "Characteristic length of the spark distribution")
	flag.Float64Var(&charLen, "charLen", 0, "Characteristic length of the spark distribution (same as -L)")
	flag.IntVar(&tries, "D", 0, "Number of trials averaged into the yield curve")
	flag.IntVar(&tries, "tries", 0, "Number of trials averaged into the yield curve (same as -D)")
	sparks := flag.Int("sparks", 0, "Number of spark sites to sample")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	workers := flag.Int("workers", 0, "Concurrent trials (0 = GOMAXPROCS)")
	outputDir := flag.String("output", "", "Output directory for result files")
	archivePath := flag.String("archive", "", "SQLite database to archive the run into")
	replayPath := flag.String("replay", "", "Manifest of an earlier run to reproduce")
	logFormat := flag.String("log-format", "text", "Log format: text or json")
	verbose := flag.Bool("v", false, "Log every finished trial")

	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if *logFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Only flags given on the command line override the config file
	var set []string
	flag.Visit(func(f *flag.Flag) {
		set = append(set, f.Name)
		switch f.Name {
		case "N", "sites":
			cfg.Run.Sites = sites
		case "L", "charLen":
			cfg.Run.CharLen = charLen
		case "D", "tries":
			cfg.Run.Tries = tries
		case "sparks":
			cfg.Run.Sparks = *sparks
		case "seed":
			cfg.Run.Seed = *seed
		case "workers":
			cfg.Run.Workers = *workers
		case "output":
			cfg.Output.Dir = *outputDir
		case "archive":
			cfg.Archive.Path = *archivePath
		}
	})

	var manifest *telemetry.Manifest
	if *replayPath != "" {
		manifest, err = telemetry.LoadManifest(*replayPath)
		if err != nil {
			slog.Error("failed to load manifest", "path", *replayPath, "error", err)
			os.Exit(1)
		}
		if ignored := replayIgnored(set); len(ignored) > 0 {
			slog.Warn("manifest parameters override flags", "flags", ignored)
		}
		manifest.Apply(&cfg.Run)
		slog.Info("replaying run", "run_id", manifest.RunID, "path", *replayPath)
	}

	if cfg.Run.Seed == 0 {
		cfg.Run.Seed = time.Now().UnixNano()
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	cfg.ComputeDerived()

	perf := telemetry.NewPerfCollector()

	perf.StartPhase(telemetry.PhaseSparks)
	var sparkSites []int
	var seeds []int64
	if manifest != nil {
		sparkSites, seeds = manifest.Sparks, manifest.TrialSeeds
	} else {
		sparkSites, seeds, err = experiment.Prepare(cfg.Run)
		if err != nil {
			slog.Error("failed to sample sparks", "error", err)
			os.Exit(1)
		}
	}

	perf.StartPhase(telemetry.PhaseTrials)
	run, err := experiment.Replay(cfg.Run, sparkSites, seeds)
	if err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
	for _, o := range run.Outcomes {
		perf.RecordTrial(o.Duration)
	}

	perf.StartPhase(telemetry.PhaseOutput)
	runID := archive.NewRunID()
	if err := writeOutputs(cfg, runID, run); err != nil {
		slog.Error("failed to write results", "error", err)
		os.Exit(1)
	}

	if cfg.Archive.Path != "" {
		perf.StartPhase(telemetry.PhaseArchive)
		if err := archiveRun(cfg.Archive.Path, runID, run); err != nil {
			slog.Warn("run not archived", "path", cfg.Archive.Path, "error", err)
		}
	}
	perf.EndPhase()

	agg := run.Aggregate
	gaps := intervals.Gaps(agg.Snapshot)
	slog.Info("run complete",
		"run_id", runID,
		"sites", humanize.Comma(int64(cfg.Run.Sites)),
		"trials", humanize.Comma(int64(len(run.Outcomes))),
		"peak_yield", agg.Peak/float64(agg.Sites()),
		"peak_density", agg.PeakDensity(),
		"elapsed", run.Elapsed.Round(time.Millisecond),
	)
	slog.Info("peak lattice", "gaps", intervals.Summarize(gaps))
	telemetry.ComputeSpread(telemetry.TrialStatsFor(run.Outcomes)).LogStats()
	perf.Stats().LogStats()
}

// writeOutputs writes every enabled result file for run into cfg.Output.Dir.
func writeOutputs(cfg *config.Config, runID string, run *experiment.Run) error {
	om, err := telemetry.NewOutputManager(cfg.Output.Dir, cfg.Derived.FileTag)
	if err != nil {
		return err
	}
	if om == nil {
		slog.Warn("no output directory, results not saved")
		return nil
	}

	path, err := om.WriteYield(run.Aggregate)
	if err != nil {
		return err
	}
	slog.Info("yield data saved", "path", path)

	if path, err = om.WritePeak(run.Aggregate.Snapshot); err != nil {
		return err
	}
	slog.Info("peak lattice saved", "path", path)

	if cfg.Output.TrialsCSV {
		if _, err := om.WriteTrials(telemetry.TrialStatsFor(run.Outcomes)); err != nil {
			return err
		}
	}
	if cfg.Output.IntervalsCSV {
		if _, err := om.WriteIntervals(intervals.Ranked(run.Aggregate.Snapshot)); err != nil {
			return err
		}
	}
	if _, err := om.WriteConfig(cfg); err != nil {
		return err
	}
	if cfg.Output.Manifest {
		path, err := om.WriteManifest(telemetry.NewManifest(runID, run))
		if err != nil {
			return err
		}
		slog.Info("manifest saved", "path", path)
	}
	return nil
}

// replayIgnored returns the flags in set whose values a replay manifest
// replaces.
func replayIgnored(set []string) []string {
	var ignored []string
	for _, name := range set {
		switch name {
		case "N", "sites", "L", "charLen", "D", "tries", "sparks", "seed":
			ignored = append(ignored, name)
		}
	}
	return ignored
}

func archiveRun(path, runID string, run *experiment.Run) error {
	db, err := archive.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.SaveRun(runID, run)
}
