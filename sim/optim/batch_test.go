package optim

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

func TestFractionBatch_SizeIsCeiling(t *testing.T) {
	tests := []struct {
		f     float64
		total int
		want  int
	}{
		{0.5, 10, 5},
		{0.3, 10, 3},
		{0.25, 10, 3},
		{0.01, 10, 1},
		{1.0, 10, 10},
		{0.1, 7, 1},
		{1e-12, 10, 1},
	}
	for _, tt := range tests {
		b, err := FractionBatch(tt.f, WithoutReplacement)
		require.NoError(t, err)
		assert.Equal(t, tt.want, b.Size(tt.total), "fraction %v of %d", tt.f, tt.total)
	}
}

func TestFractionBatch_TinyFractionSelectsOne(t *testing.T) {
	// GIVEN a valid fraction far below one scenario's share
	b, err := FractionBatch(1e-12, WithoutReplacement)
	require.NoError(t, err)

	// THEN the policy still fits ten scenarios and selects exactly one
	require.NoError(t, b.validate(10))
	assert.Len(t, b.Select(10, rand.New(rand.NewSource(1))), 1)
}

func TestBatchPolicy_ConstructionFailures(t *testing.T) {
	tests := []struct {
		name string
		make func() (BatchPolicy, error)
	}{
		{"fraction above one", func() (BatchPolicy, error) { return FractionBatch(1.1, WithoutReplacement) }},
		{"fraction zero", func() (BatchPolicy, error) { return FractionBatch(0.0, WithoutReplacement) }},
		{"fraction negative", func() (BatchPolicy, error) { return FractionBatch(-0.5, WithReplacement) }},
		{"fraction without sampling", func() (BatchPolicy, error) { return FractionBatch(0.5, Sampling(0)) }},
		{"fixed zero", func() (BatchPolicy, error) { return FixedBatch(0, WithoutReplacement) }},
		{"fixed without sampling", func() (BatchPolicy, error) { return FixedBatch(3, Sampling(0)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.make()
			assert.ErrorIs(t, err, sim.ErrConstruction)
		})
	}
}

func TestBatchPolicy_SelectWithoutReplacement(t *testing.T) {
	// GIVEN FractionBatch(0.5) over 10 scenarios
	b, err := FractionBatch(0.5, WithoutReplacement)
	require.NoError(t, err)

	// WHEN selecting
	idx := b.Select(10, rand.New(rand.NewSource(3)))

	// THEN 5 distinct sorted indices in range
	require.Len(t, idx, 5)
	assert.True(t, sort.IntsAreSorted(idx))
	seen := map[int]bool{}
	for _, i := range idx {
		assert.True(t, i >= 0 && i < 10)
		assert.False(t, seen[i], "index %d repeated", i)
		seen[i] = true
	}
}

func TestBatchPolicy_SelectWithReplacement(t *testing.T) {
	b, err := FixedBatch(8, WithReplacement)
	require.NoError(t, err)

	idx := b.Select(4, rand.New(rand.NewSource(1)))

	require.Len(t, idx, 8)
	assert.True(t, sort.IntsAreSorted(idx))
	for _, i := range idx {
		assert.True(t, i >= 0 && i < 4)
	}
}

func TestBatchPolicy_FullSelectsAllInOrder(t *testing.T) {
	// A full batch never touches the rng.
	assert.Equal(t, []int{0, 1, 2, 3}, FullBatch().Select(4, nil))
	assert.Equal(t, []int{0, 1, 2}, BatchPolicy{}.Select(3, nil))
}

func TestBatchPolicy_SelectIsDeterministicForSeed(t *testing.T) {
	b, err := FixedBatch(4, WithoutReplacement)
	require.NoError(t, err)
	key := sim.NewSimulationKey(42)

	first := b.Select(20, key.Stream(sim.StreamBatch(3)))
	second := b.Select(20, key.Stream(sim.StreamBatch(3)))
	assert.Equal(t, first, second)
}

func TestBatchPolicy_Validate(t *testing.T) {
	fixed, err := FixedBatch(11, WithoutReplacement)
	require.NoError(t, err)
	assert.ErrorIs(t, fixed.validate(10), sim.ErrConstruction)

	assert.ErrorIs(t, BatchPolicy{kind: batchFraction, fraction: 0.5}.validate(10), sim.ErrConstruction)
	assert.NoError(t, FullBatch().validate(1))
}

func TestBatchPolicy_String(t *testing.T) {
	b, err := FractionBatch(0.25, WithReplacement)
	require.NoError(t, err)
	assert.Equal(t, "fraction(0.25, with-replacement)", b.String())
	assert.Equal(t, "full", FullBatch().String())
}
