package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pthm-cable/hotforest/config"
	"github.com/pthm-cable/hotforest/experiment"
)

// ManifestVersion is incremented when the format changes.
const ManifestVersion = 1

// Manifest holds everything needed to reproduce a run exactly: the model
// parameters, the spark set and every trial seed.
type Manifest struct {
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	Sites   int     `json:"sites"`
	CharLen float64 `json:"char_len"`
	Tries   int     `json:"tries"`
	Seed    int64   `json:"seed"`

	Sparks     []int   `json:"sparks"`
	TrialSeeds []int64 `json:"trial_seeds"`

	PeakYield   float64 `json:"peak_yield"`
	PeakDensity float64 `json:"peak_density"`
}

// NewManifest describes a finished run.
func NewManifest(runID string, run *experiment.Run) *Manifest {
	return &Manifest{
		Version:     ManifestVersion,
		RunID:       runID,
		CreatedAt:   time.Now().UTC(),
		Sites:       run.Params.Sites,
		CharLen:     run.Params.CharLen,
		Tries:       run.Params.Tries,
		Seed:        run.Params.Seed,
		Sparks:      run.Sparks,
		TrialSeeds:  run.TrialSeeds,
		PeakYield:   run.Aggregate.Peak,
		PeakDensity: run.Aggregate.PeakDensity(),
	}
}

// Apply copies the manifest's model parameters onto rc, leaving the worker
// count alone.
func (m *Manifest) Apply(rc *config.RunConfig) {
	rc.Sites = m.Sites
	rc.CharLen = m.CharLen
	rc.Tries = m.Tries
	rc.Sparks = len(m.Sparks)
	rc.Seed = m.Seed
}

// SaveManifest writes a manifest to path.
func SaveManifest(m *Manifest, path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads a manifest from disk.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("manifest version %d, want %d", m.Version, ManifestVersion)
	}
	if len(m.TrialSeeds) != m.Tries {
		return nil, fmt.Errorf("manifest has %d trial seeds for %d tries", len(m.TrialSeeds), m.Tries)
	}

	return &m, nil
}
