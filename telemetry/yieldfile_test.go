package telemetry

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/pthm-cable/hotforest/forest"
)

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		v    float64
		want string
	}{
		{0, "0.0"},
		{1, "1.0"},
		{0.5, "0.5"},
		{0.0001, "0.0001"},
		{0.00001, "1e-05"},
		{0.1 + 0.2, "0.30000000000000004"},
		{2000, "2000.0"},
	}
	for _, tt := range tests {
		if got := formatFloat(tt.v); got != tt.want {
			t.Errorf("formatFloat(%v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestWriteYieldLayout(t *testing.T) {
	curve := []float64{0, 1, 2, 1, 3}
	var buf bytes.Buffer
	if err := WriteYield(&buf, curve, 3); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2+len(curve) {
		t.Fatalf("got %d lines, want %d", len(lines), 2+len(curve))
	}
	if lines[0] != "# Density             \tYield" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "#\t0.750000\twas the peak Yield" {
		t.Errorf("peak line = %q", lines[1])
	}
	if lines[2] != "0.0                 \t0.0" {
		t.Errorf("first row = %q", lines[2])
	}
	if lines[3] != "0.25                \t0.25" {
		t.Errorf("second row = %q", lines[3])
	}
	if lines[6] != "1.0                 \t0.75" {
		t.Errorf("last row = %q", lines[6])
	}
}

func TestWriteYieldDividesByN(t *testing.T) {
	// 1/10 is inexact, so d*(1/N) and d/N differ in the last bit for some d
	curve := []float64{0, 1, 2, 3, 4, 5, 6, 7, 6, 5, 4}
	var buf bytes.Buffer
	if err := WriteYield(&buf, curve, 7); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != 2+len(curve) {
		t.Fatalf("got %d lines, want %d", len(lines), 2+len(curve))
	}
	if lines[1] != "#\t0.700000\twas the peak Yield" {
		t.Errorf("peak line = %q", lines[1])
	}
	for _, d := range []int{3, 6, 7} {
		fields := strings.Split(lines[2+d], "\t")
		density := strings.TrimSpace(fields[0])
		if want := formatFloat(float64(d) / 10); density != want {
			t.Errorf("density[%d] = %q, want %q", d, density, want)
		}
		if want := formatFloat(curve[d] / 10); fields[1] != want {
			t.Errorf("yield[%d] = %q, want %q", d, fields[1], want)
		}
	}
	if lines[2+3] != "0.3                 \t0.3" {
		t.Errorf("row 3 = %q", lines[2+3])
	}
	if lines[2+6] != "0.6                 \t0.6" {
		t.Errorf("row 6 = %q", lines[2+6])
	}
	if lines[2+7] != "0.7                 \t0.7" {
		t.Errorf("row 7 = %q", lines[2+7])
	}
}

func TestYieldRoundTrip(t *testing.T) {
	const n = 7
	curve := []float64{0, 1, 2, 3, 1.5, 2.25, 4.125, 5}
	var buf bytes.Buffer
	if err := WriteYield(&buf, curve, 5); err != nil {
		t.Fatal(err)
	}

	data, err := ReadYield(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(data.Density) != n+1 || len(data.Yield) != n+1 {
		t.Fatalf("parsed %d rows, want %d", len(data.Density), n+1)
	}
	for d := range curve {
		if math.Abs(data.Density[d]-float64(d)/n) > 1e-6 {
			t.Errorf("density[%d] = %v, want %v", d, data.Density[d], float64(d)/n)
		}
		if math.Abs(data.Yield[d]-curve[d]/n) > 1e-6 {
			t.Errorf("yield[%d] = %v, want %v", d, data.Yield[d], curve[d]/n)
		}
	}
	if math.Abs(data.Peak-5.0/n) > 1e-6 {
		t.Errorf("peak = %v, want %v", data.Peak, 5.0/n)
	}
	if data.Yield[0] != 0 || data.Density[0] != 0 {
		t.Error("first row must be (0, 0)")
	}
}

func TestReadYieldErrors(t *testing.T) {
	tests := map[string]string{
		"no peak":    "# Density\tYield\n0.0\t0.0\n",
		"bad column": "#\t0.5\twas the peak Yield\n0.0\n",
		"bad number": "#\t0.5\twas the peak Yield\n0.0\tx\n",
		"bad peak":   "#\tabc\twas the peak Yield\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ReadYield(strings.NewReader(input)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestWriteYieldTooShort(t *testing.T) {
	if err := WriteYield(&bytes.Buffer{}, []float64{0}, 0); err == nil {
		t.Error("expected error for a curve without density steps")
	}
}

func TestPeakRoundTrip(t *testing.T) {
	l := forest.ParseLattice("TT..T.TTT.")
	var buf bytes.Buffer
	if err := WritePeak(&buf, l); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != len(l) {
		t.Fatalf("got %d lines, want %d", len(lines), len(l))
	}
	if lines[0] != "1.000000000000000000e+00" || lines[2] != "0.000000000000000000e+00" {
		t.Errorf("unexpected encoding %q / %q", lines[0], lines[2])
	}

	got, err := ReadPeak(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != l.String() {
		t.Errorf("round trip = %s, want %s", got, l)
	}
}

func TestReadPeakPlainFloats(t *testing.T) {
	got, err := ReadPeak(strings.NewReader("1.0\n0.0\n\n1\n"))
	if err != nil {
		t.Fatal(err)
	}
	if got.String() != "T.T" {
		t.Errorf("got %s, want T.T", got)
	}
	if _, err := ReadPeak(strings.NewReader("1.0\nzz\n")); err == nil {
		t.Error("expected parse error")
	}
}
