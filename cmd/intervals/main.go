// Package main reads a Peak_*.txt lattice and reports the ranked sizes of
// the gaps between its empty sites.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/pthm-cable/hotforest/intervals"
	"github.com/pthm-cable/hotforest/telemetry"
)

func main() {
	output := flag.String("output", "", "CSV file for the ranked intervals (empty = print to stdout)")
	clusters := flag.Bool("clusters", false, "Rank tree cluster sizes instead of gaps")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: intervals [-output file.csv] [-clusters] Peak_<tag>.txt")
		os.Exit(2)
	}
	path := flag.Arg(0)

	lattice, err := telemetry.ReadPeakFile(path)
	if err != nil {
		slog.Error("failed to read peak lattice", "path", path, "error", err)
		os.Exit(1)
	}

	sizes := intervals.Gaps(lattice)
	if *clusters {
		sizes = intervals.ClusterSizes(lattice)
	}
	ranked := intervals.Rank(sizes)

	if *output == "" {
		if err := printRanked(os.Stdout, ranked); err != nil {
			slog.Error("failed to print intervals", "error", err)
			os.Exit(1)
		}
	} else {
		f, err := os.Create(*output)
		if err != nil {
			slog.Error("failed to create output", "path", *output, "error", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := telemetry.WriteIntervalsCSV(f, ranked); err != nil {
			slog.Error("failed to write intervals", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("intervals",
		"path", path,
		"sites", len(lattice),
		"trees", lattice.Trees(),
		"summary", intervals.Summarize(sizes),
	)
}

func printRanked(w io.Writer, ranked []intervals.Interval) error {
	for _, iv := range ranked {
		if _, err := fmt.Fprintf(w, "%d\t%d\n", iv.Rank, iv.Size); err != nil {
			return err
		}
	}
	return nil
}
