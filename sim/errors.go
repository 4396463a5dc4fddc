package sim

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is checks against the typed errors below.
var (
	ErrInterfaceNotImplemented = errors.New("interface not implemented")
	ErrConstruction            = errors.New("construction error")
	ErrValidation              = errors.New("validation error")
	ErrRandomnessMisuse        = errors.New("randomness misuse")
	ErrSimulation              = errors.New("simulation error")
)

// InterfaceNotImplementedError reports a required model or policy method that
// the supplied type does not provide.
type InterfaceNotImplementedError struct {
	Method string
	Type   string
}

func (e *InterfaceNotImplementedError) Error() string {
	return fmt.Sprintf("interface not implemented: %s is required but not implemented for %s", e.Method, e.Type)
}

func (e *InterfaceNotImplementedError) Is(target error) bool { return target == ErrInterfaceNotImplemented }

// ConstructionError reports invalid arguments to a constructor
// (problem, metric, batch policy, time axis).
type ConstructionError struct {
	What   string
	Reason string
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.What, e.Reason)
}

func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// ConstructionErrorf builds a ConstructionError with a formatted reason.
func ConstructionErrorf(what, format string, args ...any) *ConstructionError {
	return &ConstructionError{What: what, Reason: fmt.Sprintf(format, args...)}
}

// ValidationError reports a homogeneity or cross-reference failure. Valid,
// when set, lists the accepted alternatives.
type ValidationError struct {
	What   string
	Reason string
	Valid  []string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.What, e.Reason)
	if len(e.Valid) > 0 {
		msg += "; valid: " + strings.Join(e.Valid, ", ")
	}
	return msg
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// RandomnessMisuseError is raised when a model draws from the poisoned RNG
// handed out on the deterministic (rng-less) path.
type RandomnessMisuseError struct {
	Caller string
}

func (e *RandomnessMisuseError) Error() string {
	return fmt.Sprintf("%s drew from the random number generator, but none was supplied; "+
		"pass a *rand.Rand (the 3-argument Initialize form) when the model needs randomness", e.Caller)
}

func (e *RandomnessMisuseError) Is(target error) bool { return target == ErrRandomnessMisuse }

// Phase is the engine state at the time of a failure.
type Phase string

const (
	PhaseInit     Phase = "init"
	PhaseStepping Phase = "stepping"
	PhaseDone     Phase = "done"
)

// SimulationError wraps a model callback failure with its position in the run.
// Records produced before the failure are discarded.
type SimulationError struct {
	Step  int
	Phase Phase
	Err   error
}

func (e *SimulationError) Error() string {
	if e.Phase == PhaseStepping {
		return fmt.Sprintf("simulation failed at step %d: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("simulation failed during %s: %v", e.Phase, e.Err)
}

func (e *SimulationError) Unwrap() error { return e.Err }

func (e *SimulationError) Is(target error) bool { return target == ErrSimulation }

// typeName renders a type for error messages.
func typeName(v any) string {
	return fmt.Sprintf("%T", v)
}
