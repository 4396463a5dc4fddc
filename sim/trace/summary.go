package trace

import (
	"fmt"
	"reflect"
)

// TraceSummary describes a recorded run for logging.
type TraceSummary struct {
	Steps       int               `yaml:"steps"`
	ColumnTypes map[string]string `yaml:"column_types"` // column name → element type
}

// Summarize computes a TraceSummary from any Tabular.
// Safe for nil (returns zero-value fields). A column the Tabular lists but
// cannot produce is an error.
func Summarize(tab Tabular) (*TraceSummary, error) {
	summary := &TraceSummary{
		ColumnTypes: make(map[string]string),
	}
	if tab == nil {
		return summary, nil
	}
	summary.Steps = tab.Len()
	for _, name := range tab.Columns() {
		col, err := tab.Column(name)
		if err != nil {
			return nil, fmt.Errorf("summarizing column %q: %w", name, err)
		}
		summary.ColumnTypes[name] = reflect.TypeOf(col).Elem().String()
	}
	return summary, nil
}
