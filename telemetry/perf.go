package telemetry

import (
	"log/slog"
	"sync"
	"time"
)

// Phase names for one run.
const (
	PhaseSparks  = "sparks"
	PhaseTrials  = "trials"
	PhaseOutput  = "output"
	PhaseArchive = "archive"
)

// PerfCollector times the phases of a run and the individual trials.
// RecordTrial is safe for concurrent use; phase timing is not.
type PerfCollector struct {
	runStart   time.Time
	phases     map[string]time.Duration
	phaseStart time.Time
	lastPhase  string

	mu     sync.Mutex
	trials []time.Duration
}

// NewPerfCollector creates a collector and starts the run clock.
func NewPerfCollector() *PerfCollector {
	return &PerfCollector{
		runStart: time.Now(),
		phases:   make(map[string]time.Duration),
	}
}

// StartPhase ends the previous phase, if any, and begins timing phase.
func (p *PerfCollector) StartPhase(phase string) {
	now := time.Now()
	if p.lastPhase != "" {
		p.phases[p.lastPhase] += now.Sub(p.phaseStart)
	}
	p.phaseStart = now
	p.lastPhase = phase
}

// EndPhase ends the current phase.
func (p *PerfCollector) EndPhase() {
	if p.lastPhase == "" {
		return
	}
	p.phases[p.lastPhase] += time.Since(p.phaseStart)
	p.lastPhase = ""
}

// RecordTrial records the wall time of one trial.
func (p *PerfCollector) RecordTrial(d time.Duration) {
	p.mu.Lock()
	p.trials = append(p.trials, d)
	p.mu.Unlock()
}

// PerfStats holds aggregated timing.
type PerfStats struct {
	Total time.Duration

	// Phase breakdown
	PhaseDur map[string]time.Duration
	PhasePct map[string]float64

	// Per-trial timing
	Trials          int
	AvgTrial        time.Duration
	MinTrial        time.Duration
	MaxTrial        time.Duration
	TrialsPerSecond float64 // trials over the wall time of the trials phase
}

// Stats computes timing statistics so far.
func (p *PerfCollector) Stats() PerfStats {
	total := time.Since(p.runStart)
	s := PerfStats{
		Total:    total,
		PhaseDur: make(map[string]time.Duration, len(p.phases)),
		PhasePct: make(map[string]float64, len(p.phases)),
	}
	for phase, d := range p.phases {
		s.PhaseDur[phase] = d
		if total > 0 {
			s.PhasePct[phase] = float64(d) / float64(total) * 100
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	s.Trials = len(p.trials)
	if s.Trials == 0 {
		return s
	}

	var sum time.Duration
	for i, d := range p.trials {
		sum += d
		if i == 0 || d < s.MinTrial {
			s.MinTrial = d
		}
		if d > s.MaxTrial {
			s.MaxTrial = d
		}
	}
	s.AvgTrial = sum / time.Duration(s.Trials)

	wall := p.phases[PhaseTrials]
	if wall <= 0 {
		wall = sum
	}
	if wall > 0 {
		s.TrialsPerSecond = float64(s.Trials) / wall.Seconds()
	}
	return s
}

// LogStats logs performance statistics.
func (s PerfStats) LogStats() {
	attrs := []any{
		"total_ms", s.Total.Milliseconds(),
		"trials", s.Trials,
		"avg_trial_us", s.AvgTrial.Microseconds(),
		"min_trial_us", s.MinTrial.Microseconds(),
		"max_trial_us", s.MaxTrial.Microseconds(),
		"trials_per_sec", s.TrialsPerSecond,
	}

	phases := []string{PhaseSparks, PhaseTrials, PhaseOutput, PhaseArchive}
	for _, phase := range phases {
		if pct, ok := s.PhasePct[phase]; ok && pct > 0.1 {
			attrs = append(attrs, phase+"_pct", int(pct*10)/10.0)
		}
	}

	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer for structured logging.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("total_ms", s.Total.Milliseconds()),
		slog.Int("trials", s.Trials),
		slog.Int64("avg_trial_us", s.AvgTrial.Microseconds()),
		slog.Float64("trials_per_sec", s.TrialsPerSecond),
	}
	for phase, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(phase+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}
