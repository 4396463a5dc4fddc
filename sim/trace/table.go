package trace

import (
	"fmt"
	"reflect"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Column names exposed by every Tabular in this package.
const (
	ColumnState  = "state"
	ColumnRecord = "record"
	ColumnTime   = "time"
)

// ColumnNames returns the column names in export order.
func ColumnNames() []string {
	return []string{ColumnState, ColumnRecord, ColumnTime}
}

// Tabular is named-column access to a recorded run. Column returns a slice
// (e.g. []MyState) of length Len.
type Tabular interface {
	Columns() []string
	Column(name string) (any, error)
	Len() int
}

func unknownColumn(name string) error {
	return &sim.ValidationError{
		What:   "trace column",
		Reason: fmt.Sprintf("unknown column %q", name),
		Valid:  ColumnNames(),
	}
}

// ColumnAs returns a column with its element type asserted to E.
func ColumnAs[E any](tab Tabular, name string) ([]E, error) {
	col, err := tab.Column(name)
	if err != nil {
		return nil, err
	}
	typed, ok := col.([]E)
	if !ok {
		return nil, &sim.ValidationError{
			What:   "trace column",
			Reason: fmt.Sprintf("column %q holds %T, not []%s", name, col, reflect.TypeFor[E]()),
		}
	}
	return typed, nil
}

// Table is a materialized trace whose column element types were inferred
// from the first captured step. See Builder.Build.
type Table struct {
	columns map[string]reflect.Value
	n       int
}

// Columns implements Tabular.
func (tb *Table) Columns() []string { return ColumnNames() }

// Len implements Tabular.
func (tb *Table) Len() int { return tb.n }

// Column implements Tabular.
func (tb *Table) Column(name string) (any, error) {
	col, ok := tb.columns[name]
	if !ok {
		return nil, unknownColumn(name)
	}
	return col.Interface(), nil
}

// ElemType returns the concrete element type fixed for a column.
func (tb *Table) ElemType(name string) (reflect.Type, error) {
	col, ok := tb.columns[name]
	if !ok {
		return nil, unknownColumn(name)
	}
	return col.Type().Elem(), nil
}
