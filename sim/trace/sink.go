package trace

import (
	"errors"
	"fmt"
	"reflect"
)

// Sink is the contract of a format-specific writer (CSV, columnar, ...).
// The trace package only drives it; formats live with their writers.
type Sink interface {
	WriteHeader(columns []string) error
	WriteRows(rows [][]any) error
	Close() error
}

// Export streams tab into sink in batches of batchSize rows and closes the
// sink. The sink is closed even when a write fails.
func Export(tab Tabular, sink Sink, batchSize int) (err error) {
	if batchSize <= 0 {
		return fmt.Errorf("export: batch size must be positive, got %d", batchSize)
	}
	defer func() {
		if closeErr := sink.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("closing sink: %w", closeErr))
		}
	}()

	names := tab.Columns()
	cols := make([]reflect.Value, len(names))
	for i, name := range names {
		col, colErr := tab.Column(name)
		if colErr != nil {
			return colErr
		}
		cols[i] = reflect.ValueOf(col)
	}

	if err := sink.WriteHeader(names); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	n := tab.Len()
	for start := 0; start < n; start += batchSize {
		end := min(start+batchSize, n)
		batch := make([][]any, 0, end-start)
		for i := start; i < end; i++ {
			row := make([]any, len(cols))
			for j, col := range cols {
				row[j] = col.Index(i).Interface()
			}
			batch = append(batch, row)
		}
		if err := sink.WriteRows(batch); err != nil {
			return fmt.Errorf("writing rows %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}
