package optim

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// FrontPoint is one non-dominated result: its parameter vector and the
// value of each minimized or maximized objective in metric units.
type FrontPoint struct {
	Params     []float64          `yaml:"params"`
	Objectives map[string]float64 `yaml:"objectives"`
}

// Result is the outcome of Problem.Optimize.
type Result[P any] struct {
	// BestParams is the front point with the lexicographically smallest
	// backend objective vector.
	BestParams []float64
	// BestObjectives maps each minimized or maximized objective to its value
	// at BestParams, in metric units (maximized values are not negated).
	BestObjectives map[string]float64
	Converged      bool
	Iterations     int
	// Front is the non-dominated set in the backend's order, objectives in
	// metric units.
	Front []FrontPoint

	codec *codec[P]
}

// BestPolicy builds the policy for BestParams. It is rebuilt on every call.
func (r *Result[P]) BestPolicy() (P, error) { return r.codec.decode(r.BestParams) }

// PolicyAt builds the policy for front point i.
func (r *Result[P]) PolicyAt(i int) (P, error) {
	if i < 0 || i >= len(r.Front) {
		var zero P
		return zero, sim.ConstructionErrorf("front index", "%d out of range [0, %d)", i, len(r.Front))
	}
	return r.codec.decode(r.Front[i].Params)
}

// WrapResult converts a backend result into a Result, re-filtering its
// points through a Front so a backend that returns dominated points cannot
// leak them.
func (p *Problem[C, Sc, P, S, A, R, O, T]) WrapResult(br *BackendResult) (*Result[P], error) {
	if br == nil {
		return nil, &sim.ValidationError{What: "backend result", Reason: "backend returned no result"}
	}
	for i, pt := range br.Front {
		if len(pt.Params) != len(p.codec.bounds) {
			return nil, &sim.ValidationError{What: "backend result", Reason: fmt.Sprintf("point %d has %d parameters, problem has %d", i, len(pt.Params), len(p.codec.bounds))}
		}
		if len(pt.Objectives) != len(p.active) {
			return nil, &sim.ValidationError{What: "backend result", Reason: fmt.Sprintf("point %d has %d objectives, problem has %d", i, len(pt.Objectives), len(p.active))}
		}
		if floats.HasNaN(pt.Objectives) {
			return nil, &sim.ValidationError{What: "backend result", Reason: fmt.Sprintf("point %d has a NaN objective", i)}
		}
	}
	front := NewFront(br.Front...).Points()
	bi := best(front)
	if bi < 0 {
		return nil, &sim.ValidationError{What: "backend result", Reason: "front is empty"}
	}
	out := make([]FrontPoint, len(front))
	for i, pt := range front {
		out[i] = FrontPoint{Params: pt.Params, Objectives: p.metricUnits(pt.Objectives)}
	}
	return &Result[P]{
		BestParams:     slices.Clone(front[bi].Params),
		BestObjectives: p.metricUnits(front[bi].Objectives),
		Converged:      br.Converged,
		Iterations:     br.Iterations,
		Front:          out,
		codec:          p.codec,
	}, nil
}

// metricUnits names a backend vector and undoes the Maximize negation.
func (p *Problem[C, Sc, P, S, A, R, O, T]) metricUnits(v []float64) map[string]float64 {
	objs := make(map[string]float64, len(p.active))
	for k, obj := range p.active {
		objs[obj.Name] = obj.fromBackend(v[k])
	}
	return objs
}
