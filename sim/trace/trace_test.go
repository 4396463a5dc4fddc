package trace

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

type counterState struct{ N int }

type counterRecord struct{ Value int }

func step(i, n int) sim.TimeStep[int] {
	return sim.TimeStep[int]{Index: i, Value: 2000 + i, Last: i == n-1}
}

func TestTrace_Record_WritesAtIndex(t *testing.T) {
	// GIVEN a trace pre-allocated for 3 steps
	tr, err := NewTrace[counterState, counterRecord, int](3)
	require.NoError(t, err)

	// WHEN steps are written out of order
	tr.Record(counterState{N: 2}, counterRecord{Value: 20}, step(2, 3))
	tr.Record(counterState{N: 0}, counterRecord{Value: 0}, step(0, 3))
	tr.Record(counterState{N: 1}, counterRecord{Value: 10}, step(1, 3))

	// THEN each step lands at its own index
	assert.Equal(t, 3, tr.Len())
	assert.Equal(t, []counterState{{0}, {1}, {2}}, tr.States())
	assert.Equal(t, []counterRecord{{0}, {10}, {20}}, tr.Records())
	assert.Equal(t, []int{2000, 2001, 2002}, tr.Times())
}

func TestTrace_EarlyTermination_LenBelowCap(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](5)
	require.NoError(t, err)

	tr.Record(counterState{N: 1}, counterRecord{Value: 1}, step(0, 5))
	tr.Record(counterState{N: 2}, counterRecord{Value: 2}, step(1, 5))

	assert.Equal(t, 2, tr.Len())
	assert.Equal(t, 5, tr.Cap())
	assert.Len(t, tr.States(), 2)
}

func TestTrace_Record_OutOfRangePanics(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](2)
	require.NoError(t, err)

	assert.Panics(t, func() {
		tr.Record(counterState{}, counterRecord{}, step(2, 3))
	})
}

func TestNewTrace_NonPositiveSteps(t *testing.T) {
	for _, n := range []int{0, -1} {
		_, err := NewTrace[counterState, counterRecord, int](n)
		assert.ErrorIs(t, err, sim.ErrConstruction, "steps=%d", n)
	}
}

func TestTrace_Column_UnknownNameListsValidNames(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](1)
	require.NoError(t, err)

	_, err = tr.Column("reward")

	require.Error(t, err)
	var ve *sim.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"state", "record", "time"}, ve.Valid)
	assert.Contains(t, err.Error(), `"reward"`)
	assert.Contains(t, err.Error(), "state, record, time")
}

func TestColumnAs_TypedAccess(t *testing.T) {
	tr, err := NewTrace[counterState, counterRecord, int](2)
	require.NoError(t, err)
	tr.Record(counterState{N: 1}, counterRecord{Value: 5}, step(0, 2))
	tr.Record(counterState{N: 2}, counterRecord{Value: 7}, step(1, 2))

	recs, err := ColumnAs[counterRecord](tr, ColumnRecord)
	require.NoError(t, err)
	assert.Equal(t, []counterRecord{{5}, {7}}, recs)

	_, err = ColumnAs[float64](tr, ColumnRecord)
	assert.ErrorIs(t, err, sim.ErrValidation)
}

func TestBuilder_Build_InfersConcreteTypes(t *testing.T) {
	// GIVEN a builder whose state type parameter is an interface
	b := NewBuilder[any, counterRecord, int]()
	b.Record(counterState{N: 1}, counterRecord{Value: 0}, step(0, 2))
	b.Record(counterState{N: 2}, counterRecord{Value: 1}, step(1, 2))

	// WHEN built
	tab, err := b.Build()
	require.NoError(t, err)

	// THEN the state column is fixed to the concrete type of step 0
	states, err := ColumnAs[counterState](tab, ColumnState)
	require.NoError(t, err)
	assert.Equal(t, []counterState{{1}, {2}}, states)
	elem, err := tab.ElemType(ColumnState)
	require.NoError(t, err)
	assert.Equal(t, "trace.counterState", elem.String())
	assert.Equal(t, 2, tab.Len())
}

func TestBuilder_Build_ZeroSteps_Fails(t *testing.T) {
	// GIVEN a builder that captured nothing
	b := NewBuilder[counterState, counterRecord, int]()

	// WHEN built
	tab, err := b.Build()

	// THEN a descriptive construction error is returned, never an empty trace
	assert.Nil(t, tab)
	require.ErrorIs(t, err, sim.ErrConstruction)
	assert.Contains(t, err.Error(), "zero recorded steps")
}

func TestBuilder_Build_MixedTypes_Fails(t *testing.T) {
	b := NewBuilder[any, counterRecord, int]()
	b.Record(counterState{N: 1}, counterRecord{}, step(0, 2))
	b.Record(3.5, counterRecord{}, step(1, 2))

	_, err := b.Build()

	require.ErrorIs(t, err, sim.ErrValidation)
	assert.Contains(t, err.Error(), "step 1 holds float64")
}

func TestBuilder_Build_NilFirstElement_Fails(t *testing.T) {
	b := NewBuilder[any, counterRecord, int]()
	b.Record(nil, counterRecord{}, step(0, 1))

	_, err := b.Build()

	assert.ErrorIs(t, err, sim.ErrValidation)
}

func TestBuilder_ExtractAndReset(t *testing.T) {
	b := NewBuilder[counterState, counterRecord, int]()
	b.Record(counterState{N: 1}, counterRecord{Value: 9}, step(0, 1))

	rows := b.Extract()
	require.Len(t, rows, 1)
	assert.Equal(t, counterState{N: 1}, rows[0].State)
	assert.Equal(t, 2000, rows[0].Time)

	b.Reset()
	assert.Equal(t, 0, b.Len())
}

// counterModel is Scenario A: axis 1..5, state starts at 0, each step emits
// the pre-step state and increments it.
func counterModel() *sim.ModelFuncs[struct{}, struct{}, struct{}, counterState, struct{}, counterRecord, int, int] {
	return &sim.ModelFuncs[struct{}, struct{}, struct{}, counterState, struct{}, counterRecord, int, int]{
		TimeAxisFunc: func(struct{}, struct{}) (sim.TimeAxis[int], error) { return sim.Range(1, 5) },
		InitializeFunc: func(struct{}, struct{}, *rand.Rand) counterState {
			return counterState{}
		},
		RunTimestepFunc: func(s counterState, _ struct{}, _ sim.TimeStep[int], _ struct{}, _ struct{}, _ *rand.Rand) (counterState, counterRecord, error) {
			return counterState{N: s.N + 1}, counterRecord{Value: s.N}, nil
		},
		ComputeOutcomeFunc: func(recs []counterRecord, _ struct{}, _ struct{}) int {
			total := 0
			for _, r := range recs {
				total += r.Value
			}
			return total
		},
	}
}

func TestTraceAndBuilder_AgreeOnEngineRun(t *testing.T) {
	// GIVEN the counter model and both recorder variants
	eng, err := counterModel().Engine()
	require.NoError(t, err)
	axis := sim.MustRange(1, 5)
	tr, err := NewTraceFor[counterState, counterRecord](axis)
	require.NoError(t, err)
	b := NewBuilder[counterState, counterRecord, int]()

	// WHEN the same scenario is recorded by each
	out1, err := eng.SimulateRecorded(struct{}{}, struct{}{}, struct{}{}, tr, nil)
	require.NoError(t, err)
	out2, err := eng.SimulateRecorded(struct{}{}, struct{}{}, struct{}{}, b, nil)
	require.NoError(t, err)
	tab, err := b.Build()
	require.NoError(t, err)

	// THEN outcomes and columns are identical
	assert.Equal(t, 10, out1)
	assert.Equal(t, out1, out2)
	built, err := ColumnAs[counterRecord](tab, ColumnRecord)
	require.NoError(t, err)
	assert.Equal(t, tr.Records(), built)
	times, err := ColumnAs[int](tab, ColumnTime)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, times)
}
