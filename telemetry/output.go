package telemetry

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/hotforest/config"
	"github.com/pthm-cable/hotforest/experiment"
	"github.com/pthm-cable/hotforest/forest"
	"github.com/pthm-cable/hotforest/intervals"
)

// OutputManager writes the result files of one run into a directory. All
// file names carry the run's N/L/D tag.
type OutputManager struct {
	dir string
	tag string
}

// NewOutputManager creates the output directory if needed.
// Returns nil if dir is empty (output disabled); all methods accept a nil receiver.
func NewOutputManager(dir, tag string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &OutputManager{dir: dir, tag: tag}, nil
}

// Dir returns the output directory path.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Path returns the full path of a tagged file, e.g. Path("Yield", ".txt").
func (om *OutputManager) Path(prefix, ext string) string {
	return filepath.Join(om.dir, prefix+"_"+om.tag+ext)
}

// WriteYield writes Yield_<tag>.txt and returns its path.
func (om *OutputManager) WriteYield(agg experiment.Result) (string, error) {
	if om == nil {
		return "", nil
	}
	return om.write(om.Path("Yield", ".txt"), func(w io.Writer) error {
		return WriteYield(w, agg.Curve, agg.Peak)
	})
}

// WritePeak writes Peak_<tag>.txt and returns its path.
func (om *OutputManager) WritePeak(l forest.Lattice) (string, error) {
	if om == nil {
		return "", nil
	}
	return om.write(om.Path("Peak", ".txt"), func(w io.Writer) error {
		return WritePeak(w, l)
	})
}

// WriteTrials writes the per-trial summary as Trials_<tag>.csv.
func (om *OutputManager) WriteTrials(rows []TrialStats) (string, error) {
	if om == nil {
		return "", nil
	}
	return om.write(om.Path("Trials", ".csv"), func(w io.Writer) error {
		return gocsv.Marshal(rows, w)
	})
}

// WriteIntervals writes the ranked interval sizes as Intervals_<tag>.csv.
func (om *OutputManager) WriteIntervals(rows []intervals.Interval) (string, error) {
	if om == nil {
		return "", nil
	}
	return om.write(om.Path("Intervals", ".csv"), func(w io.Writer) error {
		return WriteIntervalsCSV(w, rows)
	})
}

// WriteConfig saves the effective configuration as Config_<tag>.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) (string, error) {
	if om == nil {
		return "", nil
	}
	path := om.Path("Config", ".yaml")
	return path, cfg.WriteYAML(path)
}

// WriteManifest saves the replay manifest as Manifest_<tag>.json.
func (om *OutputManager) WriteManifest(m *Manifest) (string, error) {
	if om == nil {
		return "", nil
	}
	path := om.Path("Manifest", ".json")
	return path, SaveManifest(m, path)
}

func (om *OutputManager) write(path string, fn func(io.Writer) error) (string, error) {
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", filepath.Base(path), err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return "", fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	return path, nil
}

// WriteIntervalsCSV writes ranked intervals with a rank,size header.
func WriteIntervalsCSV(w io.Writer, rows []intervals.Interval) error {
	return gocsv.Marshal(rows, w)
}

// ReadTrialsCSV parses a Trials_*.csv file.
func ReadTrialsCSV(r io.Reader) ([]TrialStats, error) {
	var rows []TrialStats
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing trials csv: %w", err)
	}
	return rows, nil
}

// ReadYieldFile opens and parses a Yield_*.txt file.
func ReadYieldFile(path string) (*YieldData, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadYield(f)
}

// ReadPeakFile opens and parses a Peak_*.txt file.
func ReadPeakFile(path string) (forest.Lattice, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPeak(f)
}
