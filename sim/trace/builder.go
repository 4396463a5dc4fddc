package trace

import (
	"fmt"
	"reflect"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Row is one captured step as recorded by a Builder.
type Row struct {
	State  any
	Record any
	Time   any
}

// Builder accumulates steps without committing to element types. Use it
// when the number of steps is unknown up front or when S, R or T are
// interface types; call Build once the run is over.
type Builder[S, R, T any] struct {
	rows []Row
}

// NewBuilder returns an empty Builder.
func NewBuilder[S, R, T any]() *Builder[S, R, T] {
	return &Builder[S, R, T]{}
}

// Record appends a step.
func (b *Builder[S, R, T]) Record(s S, r R, t sim.TimeStep[T]) {
	b.rows = append(b.rows, Row{State: s, Record: r, Time: t.Value})
}

// Len returns the number of captured steps.
func (b *Builder[S, R, T]) Len() int { return len(b.rows) }

// Extract returns the captured steps in recording order.
func (b *Builder[S, R, T]) Extract() []Row {
	out := make([]Row, len(b.rows))
	copy(out, b.rows)
	return out
}

// Reset discards all captured steps so the builder can be reused.
func (b *Builder[S, R, T]) Reset() { b.rows = b.rows[:0] }

// Build fixes each column's element type from the first captured step,
// checks every later step against it, and copies the data into homogeneous
// slices. It fails when nothing was captured: there is no element to infer
// a type from, and an empty typed trace would hide that.
func (b *Builder[S, R, T]) Build() (*Table, error) {
	if len(b.rows) == 0 {
		return nil, &sim.ConstructionError{
			What:   "trace",
			Reason: "cannot build a trace from a builder with zero recorded steps; no element to infer column types from",
		}
	}
	extract := map[string]func(Row) any{
		ColumnState:  func(r Row) any { return r.State },
		ColumnRecord: func(r Row) any { return r.Record },
		ColumnTime:   func(r Row) any { return r.Time },
	}
	tb := &Table{columns: make(map[string]reflect.Value, len(extract)), n: len(b.rows)}
	for _, name := range ColumnNames() {
		col, err := materialize(name, b.rows, extract[name])
		if err != nil {
			return nil, err
		}
		tb.columns[name] = col
	}
	return tb, nil
}

func materialize(name string, rows []Row, get func(Row) any) (reflect.Value, error) {
	first := reflect.TypeOf(get(rows[0]))
	if first == nil {
		return reflect.Value{}, &sim.ValidationError{
			What:   "trace column " + name,
			Reason: "first captured element is nil; cannot infer a column type",
		}
	}
	col := reflect.MakeSlice(reflect.SliceOf(first), len(rows), len(rows))
	for i, r := range rows {
		v := reflect.ValueOf(get(r))
		if !v.IsValid() || v.Type() != first {
			return reflect.Value{}, &sim.ValidationError{
				What:   "trace column " + name,
				Reason: fmt.Sprintf("step %d holds %s, but the column type was fixed to %s by step 0", i, describe(v), first),
			}
		}
		col.Index(i).Set(v)
	}
	return col, nil
}

func describe(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	return v.Type().String()
}
