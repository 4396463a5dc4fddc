package optim

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Point is one evaluated parameter vector and its backend objective vector
// (all components minimized).
type Point struct {
	Params     []float64 `yaml:"params"`
	Objectives []float64 `yaml:"objectives"`
}

// Dominates reports whether a is no worse than b in every component and
// strictly better in at least one. Vectors of different length never
// dominate each other.
func Dominates(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	better := false
	for i := range a {
		if a[i] > b[i] {
			return false
		}
		if a[i] < b[i] {
			better = true
		}
	}
	return better
}

// Front is a set of mutually non-dominated points. The zero value is an
// empty front. A Front is not safe for concurrent mutation.
type Front struct {
	points []Point
}

// NewFront builds a front by merging points in order.
func NewFront(points ...Point) *Front {
	f := &Front{}
	for _, p := range points {
		f.Merge(p)
	}
	return f
}

// Merge inserts candidate unless its objective vector contains NaN, a member
// dominates it, or a member has the same objective vector. Members dominated
// by candidate are removed. It reports whether candidate was inserted.
func (f *Front) Merge(candidate Point) bool {
	if floats.HasNaN(candidate.Objectives) {
		return false
	}
	for _, m := range f.points {
		if Dominates(m.Objectives, candidate.Objectives) || slices.Equal(m.Objectives, candidate.Objectives) {
			return false
		}
	}
	f.points = slices.DeleteFunc(f.points, func(m Point) bool {
		return Dominates(candidate.Objectives, m.Objectives)
	})
	f.points = append(f.points, Point{
		Params:     slices.Clone(candidate.Params),
		Objectives: slices.Clone(candidate.Objectives),
	})
	return true
}

// Len returns the number of points on the front.
func (f *Front) Len() int { return len(f.points) }

// Points returns a copy of the front in insertion order.
func (f *Front) Points() []Point {
	out := make([]Point, len(f.points))
	for i, p := range f.points {
		out[i] = Point{Params: slices.Clone(p.Params), Objectives: slices.Clone(p.Objectives)}
	}
	return out
}

// best returns the index of the lexicographically smallest objective vector,
// or -1 for an empty slice.
func best(points []Point) int {
	bi := -1
	for i, p := range points {
		if bi < 0 || slices.Compare(p.Objectives, points[bi].Objectives) < 0 {
			bi = i
		}
	}
	return bi
}
