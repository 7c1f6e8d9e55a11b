package forest

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrSparkOutOfRange is returned when a spark lies outside [0, N).
	ErrSparkOutOfRange = errors.New("spark site out of range")
	// ErrBadOrder is returned for a planting order that is not a permutation of [0, N).
	ErrBadOrder = errors.New("planting order is not a permutation of the sites")
)

// Fire records one ignition.
type Fire struct {
	Step  int // density step d at which the spark site was planted
	Site  int // spark site
	Start int // first burned site
	Size  int // trees burned
}

// Result is the outcome of one full planting sweep.
type Result struct {
	// Curve[d] is the standing-tree count after d plantings; len N+1, Curve[0] = 0.
	Curve    []float64
	Peak     int     // max of Curve
	PeakStep int     // first d with Curve[d] == Peak
	Snapshot Lattice // lattice right after PeakStep
	Fires    []Fire
}

// PeakDensity is PeakStep / N.
func (r Result) PeakDensity() float64 {
	return float64(r.PeakStep) / float64(len(r.Snapshot))
}

// FinalYield is the tree count once every site has been planted.
func (r Result) FinalYield() int {
	return int(r.Curve[len(r.Curve)-1])
}

// LargestFire returns the size of the biggest fire, 0 if none burned.
func (r Result) LargestFire() int {
	m := 0
	for _, f := range r.Fires {
		if f.Size > m {
			m = f.Size
		}
	}
	return m
}

// Trial plants N sites one at a time in a random order, burning the tree
// cluster around a spark site whenever a spark site is planted. A Trial is
// not safe for concurrent use; it may be reused for successive sweeps.
type Trial struct {
	n       int
	isSpark []bool

	lattice Lattice
	planted []bool
	trees   int
	step    int

	curve    []float64
	peak     int
	peakStep int
	snapshot Lattice
	fires    []Fire
}

// NewTrial prepares a trial over n sites with the given spark set.
// Duplicate sparks are allowed.
func NewTrial(n int, sparks []int) (*Trial, error) {
	if n < 1 {
		return nil, fmt.Errorf("sites must be >= 1, got %d", n)
	}
	isSpark := make([]bool, n)
	for _, s := range sparks {
		if s < 0 || s >= n {
			return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrSparkOutOfRange, s, n)
		}
		isSpark[s] = true
	}
	t := &Trial{n: n, isSpark: isSpark}
	t.Reset()
	return t, nil
}

// Sites returns N.
func (t *Trial) Sites() int {
	return t.n
}

// Reset clears the lattice for a fresh sweep.
func (t *Trial) Reset() {
	t.lattice = NewLattice(t.n)
	t.planted = make([]bool, t.n)
	t.trees = 0
	t.step = 0
	t.curve = make([]float64, 1, t.n+1)
	t.peak = 0
	t.peakStep = 0
	t.snapshot = t.lattice.Clone()
	t.fires = nil
}

// Lattice exposes the live lattice. Callers must not modify it.
func (t *Trial) Lattice() Lattice {
	return t.lattice
}

// Trees is the running standing-tree count.
func (t *Trial) Trees() int {
	return t.trees
}

// Step is the number of sites planted so far.
func (t *Trial) Step() int {
	return t.step
}

// Done reports whether every site has been planted.
func (t *Trial) Done() bool {
	return t.step == t.n
}

// Plant performs one density step at site and returns the number of trees
// burned (0 when no fire). Each site may be planted once per sweep.
func (t *Trial) Plant(site int) (int, error) {
	if site < 0 || site >= t.n {
		return 0, fmt.Errorf("site %d not in [0, %d)", site, t.n)
	}
	if t.planted[site] {
		return 0, fmt.Errorf("site %d already planted this sweep", site)
	}

	t.planted[site] = true
	t.lattice[site] = Tree
	t.trees++
	t.step++

	burned := 0
	if t.isSpark[site] {
		lo, hi, _ := t.lattice.Cluster(site)
		for i := lo; i <= hi; i++ {
			t.lattice[i] = Empty
		}
		burned = hi - lo + 1
		t.trees -= burned
		t.fires = append(t.fires, Fire{Step: t.step, Site: site, Start: lo, Size: burned})
	}

	t.curve = append(t.curve, float64(t.trees))
	if t.trees > t.peak {
		t.peak = t.trees
		t.peakStep = t.step
		copy(t.snapshot, t.lattice)
	}
	return burned, nil
}

// Run performs a full sweep in a uniformly random planting order.
func (t *Trial) Run(rng *rand.Rand) Result {
	t.Reset()
	for _, site := range rng.Perm(t.n) {
		if _, err := t.Plant(site); err != nil {
			panic(err)
		}
	}
	return t.Result()
}

// RunOrder performs a full sweep in the given order, which must be a
// permutation of [0, N).
func (t *Trial) RunOrder(order []int) (Result, error) {
	if err := t.checkOrder(order); err != nil {
		return Result{}, err
	}
	t.Reset()
	for _, site := range order {
		if _, err := t.Plant(site); err != nil {
			return Result{}, err
		}
	}
	return t.Result(), nil
}

func (t *Trial) checkOrder(order []int) error {
	if len(order) != t.n {
		return fmt.Errorf("%w: length %d, want %d", ErrBadOrder, len(order), t.n)
	}
	seen := make([]bool, t.n)
	for _, s := range order {
		if s < 0 || s >= t.n || seen[s] {
			return fmt.Errorf("%w: bad or repeated site %d", ErrBadOrder, s)
		}
		seen[s] = true
	}
	return nil
}

// Result copies out the sweep so far.
func (t *Trial) Result() Result {
	curve := make([]float64, len(t.curve))
	copy(curve, t.curve)
	fires := make([]Fire, len(t.fires))
	copy(fires, t.fires)
	return Result{
		Curve:    curve,
		Peak:     t.peak,
		PeakStep: t.peakStep,
		Snapshot: t.snapshot.Clone(),
		Fires:    fires,
	}
}
