// Package forest implements the 1-D planting and fire dynamics of the HOT model.
package forest

import "strings"

// Site is the state of one lattice site.
type Site uint8

const (
	Empty Site = iota
	Tree
)

// Lattice is one forest configuration; its length is the site count N.
type Lattice []Site

// Run is a maximal stretch of sites sharing one state.
type Run struct {
	Start int
	Len   int
	State Site
}

// NewLattice returns an all-empty lattice of n sites.
func NewLattice(n int) Lattice {
	return make(Lattice, n)
}

// Clone returns an independent copy.
func (l Lattice) Clone() Lattice {
	c := make(Lattice, len(l))
	copy(c, l)
	return c
}

// Trees counts the tree sites.
func (l Lattice) Trees() int {
	n := 0
	for _, s := range l {
		if s == Tree {
			n++
		}
	}
	return n
}

// Runs splits the lattice into maximal runs in site order.
func (l Lattice) Runs() []Run {
	var runs []Run
	for i := 0; i < len(l); {
		j := i + 1
		for j < len(l) && l[j] == l[i] {
			j++
		}
		runs = append(runs, Run{Start: i, Len: j - i, State: l[i]})
		i = j
	}
	return runs
}

// EmptyRunLength is the total length of all maximal empty runs.
func (l Lattice) EmptyRunLength() int {
	total := 0
	for _, r := range l.Runs() {
		if r.State == Empty {
			total += r.Len
		}
	}
	return total
}

// Cluster returns the bounds [lo, hi] of the maximal tree run containing
// site i. ok is false when site i holds no tree.
func (l Lattice) Cluster(i int) (lo, hi int, ok bool) {
	if i < 0 || i >= len(l) || l[i] != Tree {
		return 0, 0, false
	}
	lo, hi = i, i
	for lo > 0 && l[lo-1] == Tree {
		lo--
	}
	for hi < len(l)-1 && l[hi+1] == Tree {
		hi++
	}
	return lo, hi, true
}

// Floats encodes the lattice as 0 (empty) and 1 (tree).
func (l Lattice) Floats() []float64 {
	out := make([]float64, len(l))
	for i, s := range l {
		if s == Tree {
			out[i] = 1
		}
	}
	return out
}

// FromFloats decodes a 0/1 encoding; any value other than 1 is empty.
func FromFloats(v []float64) Lattice {
	l := make(Lattice, len(v))
	for i, x := range v {
		if x == 1 {
			l[i] = Tree
		}
	}
	return l
}

// String renders trees as 'T' and empty sites as '.'.
func (l Lattice) String() string {
	var b strings.Builder
	b.Grow(len(l))
	for _, s := range l {
		if s == Tree {
			b.WriteByte('T')
		} else {
			b.WriteByte('.')
		}
	}
	return b.String()
}

// ParseLattice is the inverse of String.
func ParseLattice(s string) Lattice {
	l := make(Lattice, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 'T' {
			l[i] = Tree
		}
	}
	return l
}
