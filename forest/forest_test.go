package forest

import (
	"errors"
	"math/rand"
	"testing"
)

func TestLatticeRuns(t *testing.T) {
	l := ParseLattice("TT..T...")
	runs := l.Runs()
	want := []Run{
		{Start: 0, Len: 2, State: Tree},
		{Start: 2, Len: 2, State: Empty},
		{Start: 4, Len: 1, State: Tree},
		{Start: 5, Len: 3, State: Empty},
	}
	if len(runs) != len(want) {
		t.Fatalf("runs = %v, want %v", runs, want)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("run %d = %+v, want %+v", i, runs[i], want[i])
		}
	}
	if l.Trees() != 3 || l.EmptyRunLength() != 5 {
		t.Errorf("trees=%d empty=%d, want 3 and 5", l.Trees(), l.EmptyRunLength())
	}
}

func TestLatticeCluster(t *testing.T) {
	l := ParseLattice(".TTT.T")
	tests := []struct {
		site   int
		lo, hi int
		ok     bool
	}{
		{0, 0, 0, false},
		{1, 1, 3, true},
		{2, 1, 3, true},
		{3, 1, 3, true},
		{5, 5, 5, true},
		{6, 0, 0, false},
	}
	for _, tt := range tests {
		lo, hi, ok := l.Cluster(tt.site)
		if ok != tt.ok || (ok && (lo != tt.lo || hi != tt.hi)) {
			t.Errorf("Cluster(%d) = %d,%d,%v want %d,%d,%v", tt.site, lo, hi, ok, tt.lo, tt.hi, tt.ok)
		}
	}
}

func TestLatticeFloatsRoundTrip(t *testing.T) {
	l := ParseLattice("T..TT.")
	got := FromFloats(l.Floats())
	if got.String() != l.String() {
		t.Errorf("round trip = %s, want %s", got, l)
	}
}

func TestNewTrialRejectsBadSparks(t *testing.T) {
	if _, err := NewTrial(10, []int{3, 10}); !errors.Is(err, ErrSparkOutOfRange) {
		t.Errorf("err = %v, want ErrSparkOutOfRange", err)
	}
	if _, err := NewTrial(10, []int{-1}); !errors.Is(err, ErrSparkOutOfRange) {
		t.Errorf("err = %v, want ErrSparkOutOfRange", err)
	}
	if _, err := NewTrial(0, nil); err == nil {
		t.Error("expected error for zero sites")
	}
}

func TestIndexOrderScenario(t *testing.T) {
	trial, err := NewTrial(10, []int{3})
	if err != nil {
		t.Fatal(err)
	}

	order := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	res, err := trial.RunOrder(order)
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Curve) != 11 {
		t.Fatalf("curve length = %d, want 11", len(res.Curve))
	}
	if res.Curve[0] != 0 {
		t.Errorf("curve[0] = %v, want 0", res.Curve[0])
	}
	// Sites 0..3 form one cluster when 3 is planted, so all four burn
	want := []float64{0, 1, 2, 3, 0, 1, 2, 3, 4, 5, 6}
	for d := range want {
		if res.Curve[d] != want[d] {
			t.Errorf("curve[%d] = %v, want %v", d, res.Curve[d], want[d])
		}
	}
	if len(res.Fires) != 1 || res.Fires[0] != (Fire{Step: 4, Site: 3, Start: 0, Size: 4}) {
		t.Errorf("fires = %+v", res.Fires)
	}
	if res.Peak != 6 || res.PeakStep != 10 {
		t.Errorf("peak = %d at %d, want 6 at 10", res.Peak, res.PeakStep)
	}
	if res.Snapshot.String() != "....TTTTTT" {
		t.Errorf("snapshot = %s", res.Snapshot)
	}
}

func TestSparkBurnsNeighbourCluster(t *testing.T) {
	trial, err := NewTrial(10, []int{3})
	if err != nil {
		t.Fatal(err)
	}

	// Plant 2 and 4 first so {2,3,4} is the cluster when 3 is planted
	for _, s := range []int{2, 4} {
		if _, err := trial.Plant(s); err != nil {
			t.Fatal(err)
		}
	}
	before := trial.Trees()
	burned, err := trial.Plant(3)
	if err != nil {
		t.Fatal(err)
	}
	if burned != 3 {
		t.Errorf("burned = %d, want 3", burned)
	}
	if trial.Trees() != before+1-3 {
		t.Errorf("trees = %d, want %d", trial.Trees(), before+1-3)
	}
	for _, s := range []int{2, 3, 4} {
		if trial.Lattice()[s] != Empty {
			t.Errorf("site %d should be empty after fire", s)
		}
	}
}

func TestPlantRejectsReplant(t *testing.T) {
	trial, _ := NewTrial(5, nil)
	if _, err := trial.Plant(2); err != nil {
		t.Fatal(err)
	}
	if _, err := trial.Plant(2); err == nil {
		t.Error("expected error planting the same site twice")
	}
	if _, err := trial.Plant(5); err == nil {
		t.Error("expected error for out-of-range site")
	}
}

func TestRunOrderRejectsNonPermutation(t *testing.T) {
	trial, _ := NewTrial(4, []int{0})
	for _, order := range [][]int{
		{0, 1, 2},
		{0, 1, 2, 2},
		{0, 1, 2, 4},
	} {
		if _, err := trial.RunOrder(order); !errors.Is(err, ErrBadOrder) {
			t.Errorf("RunOrder(%v) err = %v, want ErrBadOrder", order, err)
		}
	}
}

func TestCurveBoundsAndConservation(t *testing.T) {
	const n = 300
	rng := rand.New(rand.NewSource(42))
	sparks := make([]int, 40)
	for i := range sparks {
		sparks[i] = rng.Intn(n)
	}

	trial, err := NewTrial(n, sparks)
	if err != nil {
		t.Fatal(err)
	}

	for _, site := range rng.Perm(n) {
		if _, err := trial.Plant(site); err != nil {
			t.Fatal(err)
		}
		l := trial.Lattice()
		if trial.Trees() != l.Trees() {
			t.Fatalf("step %d: tree count %d drifted from lattice %d", trial.Step(), trial.Trees(), l.Trees())
		}
		if l.Trees()+l.EmptyRunLength() != n {
			t.Fatalf("step %d: trees %d + empty runs %d != %d", trial.Step(), l.Trees(), l.EmptyRunLength(), n)
		}
	}
	if !trial.Done() {
		t.Fatal("trial should be done after planting every site")
	}

	res := trial.Result()
	if len(res.Curve) != n+1 || res.Curve[0] != 0 {
		t.Fatalf("curve length %d, curve[0] %v", len(res.Curve), res.Curve[0])
	}
	for d, v := range res.Curve {
		if v < 0 || v > n || v != float64(int(v)) {
			t.Fatalf("curve[%d] = %v is not an integer in [0, %d]", d, v, n)
		}
		if v > float64(res.Peak) {
			t.Fatalf("curve[%d] = %v exceeds peak %d", d, v, res.Peak)
		}
	}
	if res.Curve[res.PeakStep] != float64(res.Peak) {
		t.Errorf("curve at peak step = %v, want %d", res.Curve[res.PeakStep], res.Peak)
	}
	if res.Snapshot.Trees() != res.Peak {
		t.Errorf("snapshot holds %d trees, want %d", res.Snapshot.Trees(), res.Peak)
	}
}

func TestRunDeterministic(t *testing.T) {
	trial, _ := NewTrial(500, []int{0, 1, 5, 17, 250})

	a := trial.Run(rand.New(rand.NewSource(9)))
	b := trial.Run(rand.New(rand.NewSource(9)))

	for d := range a.Curve {
		if a.Curve[d] != b.Curve[d] {
			t.Fatalf("curve[%d] differs: %v vs %v", d, a.Curve[d], b.Curve[d])
		}
	}
	if a.Snapshot.String() != b.Snapshot.String() {
		t.Error("snapshots differ for the same seed")
	}
	if a.Peak != b.Peak || a.PeakStep != b.PeakStep {
		t.Errorf("peak %d@%d vs %d@%d", a.Peak, a.PeakStep, b.Peak, b.PeakStep)
	}
}

func TestRunMatchesRunOrder(t *testing.T) {
	trial, _ := NewTrial(200, []int{3, 40, 41, 199})

	// A half-planted trial must not leak into the next full sweep
	if _, err := trial.Plant(40); err != nil {
		t.Fatal(err)
	}
	a := trial.Run(rand.New(rand.NewSource(5)))

	b, err := trial.RunOrder(rand.New(rand.NewSource(5)).Perm(200))
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Curve) != 201 {
		t.Fatalf("curve length = %d, want 201", len(a.Curve))
	}
	for d := range a.Curve {
		if a.Curve[d] != b.Curve[d] {
			t.Fatalf("curve[%d] = %v, RunOrder gives %v", d, a.Curve[d], b.Curve[d])
		}
	}
	if a.Snapshot.String() != b.Snapshot.String() {
		t.Error("Run and RunOrder snapshots differ for the same permutation")
	}
}

func TestNoSparksYieldsFullForest(t *testing.T) {
	trial, _ := NewTrial(20, nil)
	res := trial.Run(rand.New(rand.NewSource(1)))
	if res.FinalYield() != 20 || res.Peak != 20 || res.PeakDensity() != 1 {
		t.Errorf("final=%d peak=%d density=%v", res.FinalYield(), res.Peak, res.PeakDensity())
	}
	if len(res.Fires) != 0 || res.LargestFire() != 0 {
		t.Errorf("unexpected fires %v", res.Fires)
	}
}

func TestSingleSiteSpark(t *testing.T) {
	trial, _ := NewTrial(1, []int{0, 0})
	res := trial.Run(rand.New(rand.NewSource(1)))
	if len(res.Curve) != 2 || res.Curve[1] != 0 {
		t.Errorf("curve = %v, want [0 0]", res.Curve)
	}
	if res.Peak != 0 || res.PeakStep != 0 {
		t.Errorf("peak %d@%d, want 0@0", res.Peak, res.PeakStep)
	}
}
