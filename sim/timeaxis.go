package sim

import (
	"reflect"
)

// TimeStep is one instant of a TimeAxis as seen by model callbacks.
type TimeStep[T any] struct {
	Index int  // zero-based position in the axis
	Value T    // the axis element itself (year, date, tick, ...)
	Last  bool // true for the final element of the axis
}

// TimeAxis is an ordered, length-known, homogeneously typed sequence of
// simulation instants. Construct with NewTimeAxis or Range; the zero value is
// an empty axis and is rejected by the engine.
type TimeAxis[T any] struct {
	values []T
}

// NewTimeAxis validates values and wraps them in a TimeAxis. The slice is
// copied. When T is an interface type every element must be non-nil and share
// the dynamic type of the first element.
func NewTimeAxis[T any](values []T) (TimeAxis[T], error) {
	if len(values) == 0 {
		return TimeAxis[T]{}, &ConstructionError{What: "time axis", Reason: "axis must contain at least one element"}
	}
	if err := checkHomogeneous("time axis", values); err != nil {
		return TimeAxis[T]{}, err
	}
	cp := make([]T, len(values))
	copy(cp, values)
	return TimeAxis[T]{values: cp}, nil
}

// Range returns the integer axis start, start+1, ..., stop (inclusive).
func Range(start, stop int) (TimeAxis[int], error) {
	if stop < start {
		return TimeAxis[int]{}, ConstructionErrorf("time axis", "range stop %d is before start %d", stop, start)
	}
	values := make([]int, stop-start+1)
	for i := range values {
		values[i] = start + i
	}
	return TimeAxis[int]{values: values}, nil
}

// MustRange is Range for axes known to be valid at compile time.
func MustRange(start, stop int) TimeAxis[int] {
	ax, err := Range(start, stop)
	if err != nil {
		panic(err)
	}
	return ax
}

// Len returns the number of instants.
func (ax TimeAxis[T]) Len() int { return len(ax.values) }

// At returns the TimeStep at position i.
func (ax TimeAxis[T]) At(i int) TimeStep[T] {
	return TimeStep[T]{Index: i, Value: ax.values[i], Last: i == len(ax.values)-1}
}

// Values returns a copy of the axis elements.
func (ax TimeAxis[T]) Values() []T {
	cp := make([]T, len(ax.values))
	copy(cp, ax.values)
	return cp
}

// checkHomogeneous verifies that an interface-typed collection holds a single
// concrete type. Collections of a concrete element type pass trivially.
func checkHomogeneous[E any](what string, values []E) error {
	if reflect.TypeFor[E]().Kind() != reflect.Interface {
		return nil
	}
	var first reflect.Type
	for i, v := range values {
		dyn := reflect.TypeOf(any(v))
		if dyn == nil {
			return &ValidationError{What: what, Reason: "element " + itoa(i) + " is nil"}
		}
		if first == nil {
			first = dyn
			continue
		}
		if dyn != first {
			return &ValidationError{
				What:   what,
				Reason: "element " + itoa(i) + " has type " + dyn.String() + ", expected " + first.String() + " like element 0 (mixed element types are not supported)",
			}
		}
	}
	return nil
}

// CheckHomogeneous is the exported form used by the optimization layer to
// validate scenario collections.
func CheckHomogeneous[E any](what string, values []E) error {
	return checkHomogeneous(what, values)
}
