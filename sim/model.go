package sim

import (
	"fmt"
	"math/rand"
)

// Model is the callback contract driven by the Engine. Type parameters:
//
//	C  config shared by all scenarios      Sc scenario (exogenous inputs)
//	P  policy                              S  state, replaced every step
//	A  action handed to RunTimestep        R  per-step record
//	O  outcome computed at run end         T  time-axis element
//
// RunTimestep is the only callback allowed to draw from rng or touch
// model-owned side effects; the engine treats it as a pure transition.
type Model[C, Sc, P, S, A, R, O, T any] interface {
	TimeAxis(cfg C, sc Sc) (TimeAxis[T], error)
	Initialize(cfg C, sc Sc, rng *rand.Rand) S
	RunTimestep(s S, a A, t TimeStep[T], cfg C, sc Sc, rng *rand.Rand) (S, R, error)
	ComputeOutcome(records []R, cfg C, sc Sc) O
}

// ActionSource is implemented by models whose policy picks an action each
// step. Models without it receive the zero A.
type ActionSource[P, S, A, Sc, T any] interface {
	GetAction(p P, s S, t TimeStep[T], sc Sc) A
}

// Terminator is implemented by models that can stop before the end of the
// time axis. Models without it always run the full axis.
type Terminator[C, S, T any] interface {
	IsTerminal(s S, cfg C, t TimeStep[T]) bool
}

// InitializeWithoutRand is the two-argument form of Initialize: it calls the
// model with a poisoned RNG, so deterministic models work unchanged and a
// model that does draw gets a RandomnessMisuseError naming the fix.
func InitializeWithoutRand[C, Sc, P, S, A, R, O, T any](m Model[C, Sc, P, S, A, R, O, T], cfg C, sc Sc) (s S, err error) {
	defer recoverMisuse(&err)
	s = m.Initialize(cfg, sc, PoisonedRand(fmt.Sprintf("%T.Initialize", m)))
	return s, nil
}

// ModelFuncs adapts plain functions to the Model contract. TimeAxisFunc,
// InitializeFunc, RunTimestepFunc and ComputeOutcomeFunc are required;
// GetActionFunc and IsTerminalFunc are optional.
type ModelFuncs[C, Sc, P, S, A, R, O, T any] struct {
	Name               string
	TimeAxisFunc       func(cfg C, sc Sc) (TimeAxis[T], error)
	InitializeFunc     func(cfg C, sc Sc, rng *rand.Rand) S
	GetActionFunc      func(p P, s S, t TimeStep[T], sc Sc) A
	RunTimestepFunc    func(s S, a A, t TimeStep[T], cfg C, sc Sc, rng *rand.Rand) (S, R, error)
	IsTerminalFunc     func(s S, cfg C, t TimeStep[T]) bool
	ComputeOutcomeFunc func(records []R, cfg C, sc Sc) O
}

func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) typeName() string {
	if f.Name != "" {
		return f.Name
	}
	return typeName(f)
}

// Validate reports the first required callback left nil.
func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) Validate() error {
	switch {
	case f.TimeAxisFunc == nil:
		return &InterfaceNotImplementedError{Method: "TimeAxis", Type: f.typeName()}
	case f.InitializeFunc == nil:
		return &InterfaceNotImplementedError{Method: "Initialize", Type: f.typeName()}
	case f.RunTimestepFunc == nil:
		return &InterfaceNotImplementedError{Method: "RunTimestep", Type: f.typeName()}
	case f.ComputeOutcomeFunc == nil:
		return &InterfaceNotImplementedError{Method: "ComputeOutcome", Type: f.typeName()}
	}
	return nil
}

func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) TimeAxis(cfg C, sc Sc) (TimeAxis[T], error) {
	return f.TimeAxisFunc(cfg, sc)
}

func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) Initialize(cfg C, sc Sc, rng *rand.Rand) S {
	return f.InitializeFunc(cfg, sc, rng)
}

func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) RunTimestep(s S, a A, t TimeStep[T], cfg C, sc Sc, rng *rand.Rand) (S, R, error) {
	return f.RunTimestepFunc(s, a, t, cfg, sc, rng)
}

func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) ComputeOutcome(records []R, cfg C, sc Sc) O {
	return f.ComputeOutcomeFunc(records, cfg, sc)
}

// Engine is NewEngine with the type arguments taken from the adapter.
func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) Engine() (*Engine[C, Sc, P, S, A, R, O, T], error) {
	return NewEngine[C, Sc, P, S, A, R, O, T](f)
}

// optional returns the adapter's optional capabilities, or nil when the
// corresponding function is unset.
func (f *ModelFuncs[C, Sc, P, S, A, R, O, T]) optional() (ActionSource[P, S, A, Sc, T], Terminator[C, S, T]) {
	var as ActionSource[P, S, A, Sc, T]
	var term Terminator[C, S, T]
	if f.GetActionFunc != nil {
		as = actionFunc[P, S, A, Sc, T](f.GetActionFunc)
	}
	if f.IsTerminalFunc != nil {
		term = terminalFunc[C, S, T](f.IsTerminalFunc)
	}
	return as, term
}

type actionFunc[P, S, A, Sc, T any] func(p P, s S, t TimeStep[T], sc Sc) A

func (f actionFunc[P, S, A, Sc, T]) GetAction(p P, s S, t TimeStep[T], sc Sc) A { return f(p, s, t, sc) }

type terminalFunc[C, S, T any] func(s S, cfg C, t TimeStep[T]) bool

func (f terminalFunc[C, S, T]) IsTerminal(s S, cfg C, t TimeStep[T]) bool { return f(s, cfg, t) }
