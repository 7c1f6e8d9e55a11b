package telemetry

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pthm-cable/hotforest/forest"
)

// YieldData is the parsed content of a Yield_*.txt file.
type YieldData struct {
	Peak    float64 // peak yield as a fraction of N
	Density []float64
	Yield   []float64 // standing trees as a fraction of N
}

// WriteYield writes the mean yield curve in the Yield_*.txt layout: two
// comment lines (column names, then the peak yield to six decimals) followed
// by one "density<TAB>yield" row per density step d = 0..N. Counts are
// written as fractions of N.
func WriteYield(w io.Writer, curve []float64, peak float64) error {
	n := len(curve) - 1
	if n < 1 {
		return fmt.Errorf("yield curve needs at least 2 points, got %d", len(curve))
	}
	size := float64(n)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "# %-20s\t%s\n", "Density", "Yield")
	fmt.Fprintf(bw, "#\t%.6f\twas the peak Yield\n", peak/size)
	for d, count := range curve {
		fmt.Fprintf(bw, "%-20s\t%s\n", formatFloat(float64(d)/size), formatFloat(count/size))
	}
	return bw.Flush()
}

// ReadYield parses a Yield_*.txt file.
func ReadYield(r io.Reader) (*YieldData, error) {
	data := &YieldData{Peak: math.NaN()}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			fields := strings.Fields(text)
			if len(fields) >= 3 && fields[2] == "was" {
				peak, err := strconv.ParseFloat(fields[1], 64)
				if err != nil {
					return nil, fmt.Errorf("line %d: peak yield: %w", line, err)
				}
				data.Peak = peak
			}
			continue
		}

		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want 2 columns, got %d", line, len(fields))
		}
		density, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: density: %w", line, err)
		}
		yield, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: yield: %w", line, err)
		}
		data.Density = append(data.Density, density)
		data.Yield = append(data.Yield, yield)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading yield file: %w", err)
	}
	if math.IsNaN(data.Peak) {
		return nil, fmt.Errorf("yield file has no peak line")
	}
	return data, nil
}

// WritePeak writes one site per line, 0 for empty and 1 for tree, in the
// "%.18e" float layout of the Peak_*.txt files.
func WritePeak(w io.Writer, l forest.Lattice) error {
	bw := bufio.NewWriter(w)
	for _, v := range l.Floats() {
		fmt.Fprintf(bw, "%.18e\n", v)
	}
	return bw.Flush()
}

// ReadPeak parses a Peak_*.txt file. Any value other than 1 is an empty site.
func ReadPeak(r io.Reader) (forest.Lattice, error) {
	var values []float64
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		values = append(values, v)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading peak file: %w", err)
	}
	return forest.FromFloats(values), nil
}

// formatFloat renders v as the shortest decimal that round-trips, always
// with a fractional part ("0.0", "0.25", "1e-05").
func formatFloat(v float64) string {
	if v == 0 {
		return "0.0"
	}
	abs := math.Abs(v)
	if abs < 1e-4 || abs >= 1e16 {
		return strconv.FormatFloat(v, 'e', -1, 64)
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
