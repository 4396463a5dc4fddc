package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

func TestSummarize_Nil_ZeroValues(t *testing.T) {
	summary, err := Summarize(nil)
	require.NoError(t, err)

	if summary.Steps != 0 {
		t.Errorf("expected 0 steps, got %d", summary.Steps)
	}
	if len(summary.ColumnTypes) != 0 {
		t.Error("expected empty column types")
	}
}

func TestSummarize_PopulatedTrace(t *testing.T) {
	// GIVEN a trace with two recorded steps
	tr, err := NewTrace[counterState, counterRecord, int](4)
	require.NoError(t, err)
	tr.Record(counterState{N: 1}, counterRecord{Value: 1}, step(0, 4))
	tr.Record(counterState{N: 2}, counterRecord{Value: 2}, step(1, 4))

	// WHEN summarized
	summary, err := Summarize(tr)
	require.NoError(t, err)

	// THEN steps and column types are reported
	assert.Equal(t, 2, summary.Steps)
	assert.Equal(t, "trace.counterState", summary.ColumnTypes[ColumnState])
	assert.Equal(t, "trace.counterRecord", summary.ColumnTypes[ColumnRecord])
	assert.Equal(t, "int", summary.ColumnTypes[ColumnTime])
}

// brokenTable lists a column it cannot produce.
type brokenTable struct{}

func (brokenTable) Columns() []string { return []string{ColumnState, "extra"} }
func (brokenTable) Len() int          { return 1 }
func (brokenTable) Column(name string) (any, error) {
	if name == ColumnState {
		return []int{1}, nil
	}
	return nil, unknownColumn(name)
}

func TestSummarize_ColumnErrorIsReturned(t *testing.T) {
	// WHEN a listed column fails
	_, err := Summarize(brokenTable{})

	// THEN the failure surfaces with the column name
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrValidation)
	assert.Contains(t, err.Error(), `"extra"`)
}

// memorySink captures everything written to it.
type memorySink struct {
	header   []string
	batches  [][][]any
	closed   bool
	failRows bool
}

func (s *memorySink) WriteHeader(cols []string) error {
	s.header = cols
	return nil
}

func (s *memorySink) WriteRows(rows [][]any) error {
	if s.failRows {
		return errors.New("disk full")
	}
	s.batches = append(s.batches, rows)
	return nil
}

func (s *memorySink) Close() error {
	s.closed = true
	return nil
}

func TestExport_StreamsAllRowsInBatches(t *testing.T) {
	// GIVEN a trace with 5 steps
	tr, err := NewTrace[counterState, counterRecord, int](5)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		tr.Record(counterState{N: i + 1}, counterRecord{Value: i}, step(i, 5))
	}
	sink := &memorySink{}

	// WHEN exported with batch size 2
	err = Export(tr, sink, 2)

	// THEN the header, 3 batches (2+2+1) and a close reach the sink
	require.NoError(t, err)
	assert.Equal(t, []string{"state", "record", "time"}, sink.header)
	require.Len(t, sink.batches, 3)
	assert.Len(t, sink.batches[2], 1)
	assert.Equal(t, []any{counterState{N: 5}, counterRecord{Value: 4}, 2004}, sink.batches[2][0])
	assert.True(t, sink.closed)
}

func TestExport_WriteFailure_StillCloses(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](1)
	require.NoError(t, err)
	tr.Record(counterState{}, counterRecord{}, step(0, 1))
	sink := &memorySink{failRows: true}

	err = Export(tr, sink, 10)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.True(t, sink.closed)
}

func TestExport_InvalidBatchSize(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](1)
	require.NoError(t, err)

	err = Export(tr, &memorySink{}, 0)

	assert.Error(t, err)
}
