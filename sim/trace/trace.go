// Package trace records simulation runs step by step.
//
// Two recorders are provided. Builder accepts anything and fixes column types
// only when Build is called; Trace is pre-allocated for a known step count and
// writes each step at its index. Both expose the Tabular contract.
package trace

import (
	"fmt"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Trace is a pre-allocated, typed recorder. Steps are written at their
// TimeStep index, so no growth happens while recording.
type Trace[S, R, T any] struct {
	states  []S
	records []R
	times   []T
	n       int // one past the highest written index
}

// NewTrace allocates a trace for exactly steps time steps.
func NewTrace[S, R, T any](steps int) (*Trace[S, R, T], error) {
	if steps <= 0 {
		return nil, sim.ConstructionErrorf("trace", "step count must be positive, got %d", steps)
	}
	return &Trace[S, R, T]{
		states:  make([]S, steps),
		records: make([]R, steps),
		times:   make([]T, steps),
	}, nil
}

// NewTraceFor allocates a trace sized to axis.
func NewTraceFor[S, R, T any](axis sim.TimeAxis[T]) (*Trace[S, R, T], error) {
	return NewTrace[S, R, T](axis.Len())
}

// Record stores a step at t.Index. Writing past the allocated capacity is a
// programming error and panics.
func (tr *Trace[S, R, T]) Record(s S, r R, t sim.TimeStep[T]) {
	if t.Index < 0 || t.Index >= len(tr.states) {
		panic(fmt.Sprintf("trace: step index %d out of range for trace allocated with %d steps", t.Index, len(tr.states)))
	}
	tr.states[t.Index] = s
	tr.records[t.Index] = r
	tr.times[t.Index] = t.Value
	if t.Index >= tr.n {
		tr.n = t.Index + 1
	}
}

// Len returns the number of recorded steps. A run that terminated early
// leaves Len below the allocated capacity.
func (tr *Trace[S, R, T]) Len() int { return tr.n }

// Cap returns the allocated step count.
func (tr *Trace[S, R, T]) Cap() int { return len(tr.states) }

// States returns the recorded state sequence.
func (tr *Trace[S, R, T]) States() []S { return tr.states[:tr.n] }

// Records returns the recorded step-record sequence.
func (tr *Trace[S, R, T]) Records() []R { return tr.records[:tr.n] }

// Times returns the recorded time values.
func (tr *Trace[S, R, T]) Times() []T { return tr.times[:tr.n] }

// Columns implements Tabular.
func (tr *Trace[S, R, T]) Columns() []string { return ColumnNames() }

// Column implements Tabular.
func (tr *Trace[S, R, T]) Column(name string) (any, error) {
	switch name {
	case ColumnState:
		return tr.States(), nil
	case ColumnRecord:
		return tr.Records(), nil
	case ColumnTime:
		return tr.Times(), nil
	}
	return nil, unknownColumn(name)
}
