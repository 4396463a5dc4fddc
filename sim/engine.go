package sim

import (
	"fmt"
	"math/rand"
	"reflect"
)

// Engine runs the four-stage callback protocol of a Model over its time axis.
// Optional capabilities are resolved once in NewEngine. An Engine holds no
// per-run state and is safe for concurrent use.
type Engine[C, Sc, P, S, A, R, O, T any] struct {
	model Model[C, Sc, P, S, A, R, O, T]
	actor ActionSource[P, S, A, Sc, T]
	term  Terminator[C, S, T]
	name  string
}

// NewEngine checks the model's required callbacks and captures its optional
// ones. A nil model, or a ModelFuncs with a required callback unset, yields an
// InterfaceNotImplementedError.
func NewEngine[C, Sc, P, S, A, R, O, T any](m Model[C, Sc, P, S, A, R, O, T]) (*Engine[C, Sc, P, S, A, R, O, T], error) {
	if m == nil {
		return nil, &InterfaceNotImplementedError{Method: "Model", Type: "<nil>"}
	}
	e := &Engine[C, Sc, P, S, A, R, O, T]{model: m, name: typeName(m)}
	if f, ok := m.(*ModelFuncs[C, Sc, P, S, A, R, O, T]); ok {
		if f == nil {
			return nil, &InterfaceNotImplementedError{Method: "Model", Type: e.name}
		}
		if err := f.Validate(); err != nil {
			return nil, err
		}
		e.name = f.typeName()
		e.actor, e.term = f.optional()
		return e, nil
	}
	if as, ok := m.(ActionSource[P, S, A, Sc, T]); ok {
		e.actor = as
	}
	if t, ok := m.(Terminator[C, S, T]); ok {
		e.term = t
	}
	return e, nil
}

// Model returns the wrapped model.
func (e *Engine[C, Sc, P, S, A, R, O, T]) Model() Model[C, Sc, P, S, A, R, O, T] { return e.model }

// Simulate runs one scenario without recording and returns its Outcome. A nil
// rng selects the deterministic path: the model receives a poisoned RNG.
func (e *Engine[C, Sc, P, S, A, R, O, T]) Simulate(cfg C, sc Sc, p P, rng *rand.Rand) (O, error) {
	return e.run(cfg, sc, p, nil, rng)
}

// SimulateRecorded runs one scenario, passing every step to rec. A nil rec
// records nothing; a typed nil, such as a nil *trace.Trace, is a
// ConstructionError and the model is not run.
func (e *Engine[C, Sc, P, S, A, R, O, T]) SimulateRecorded(cfg C, sc Sc, p P, rec Recorder[S, R, T], rng *rand.Rand) (O, error) {
	if _, ok := rec.(NoRecorder[S, R, T]); ok {
		rec = nil
	}
	if rec != nil && isNilValue(rec) {
		var zero O
		return zero, &ConstructionError{What: "recorder", Reason: fmt.Sprintf("recorder is a nil %T", rec)}
	}
	return e.run(cfg, sc, p, rec, rng)
}

func isNilValue(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

func (e *Engine[C, Sc, P, S, A, R, O, T]) run(cfg C, sc Sc, p P, rec Recorder[S, R, T], rng *rand.Rand) (out O, err error) {
	defer recoverMisuse(&err)

	if rng == nil {
		rng = PoisonedRand(e.name)
	}

	// Init
	axis, err := e.model.TimeAxis(cfg, sc)
	if err != nil {
		return out, &SimulationError{Phase: PhaseInit, Err: fmt.Errorf("time axis: %w", err)}
	}
	n := axis.Len()
	if n == 0 {
		return out, &SimulationError{Phase: PhaseInit, Err: &ConstructionError{What: "time axis", Reason: "axis returned by " + e.name + " is empty"}}
	}
	state := e.model.Initialize(cfg, sc, rng)

	// Stepping
	records := make([]R, 0, n)
	var action A
	for i := 0; i < n; i++ {
		t := axis.At(i)
		if e.actor != nil {
			action = e.actor.GetAction(p, state, t, sc)
		}
		next, record, stepErr := e.model.RunTimestep(state, action, t, cfg, sc, rng)
		if stepErr != nil {
			return out, &SimulationError{Step: i, Phase: PhaseStepping, Err: stepErr}
		}
		state = next
		records = append(records, record)
		if rec != nil {
			rec.Record(state, record, t)
		}
		if e.term != nil && e.term.IsTerminal(state, cfg, t) {
			break
		}
	}

	// Done
	return e.model.ComputeOutcome(records, cfg, sc), nil
}
