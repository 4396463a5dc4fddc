package metric

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

type outcome struct {
	Cost    float64
	Floods  int
	Flooded bool
	Label   string
}

func cost(o outcome) float64 { return o.Cost }

func sampleOutcomes() []outcome {
	return []outcome{
		{Cost: 4, Floods: 1, Flooded: true},
		{Cost: 1, Floods: 0},
		{Cost: 3, Floods: 2, Flooded: true},
		{Cost: 2, Floods: 0},
	}
}

func TestQuantile_Bounds(t *testing.T) {
	tests := []struct {
		q       float64
		wantErr bool
	}{
		{0, true},
		{-0.1, true},
		{1, true},
		{1.5, true},
		{math.NaN(), true},
		{0.001, false},
		{0.5, false},
		{0.999, false},
	}
	for _, tt := range tests {
		_, err := Quantile("q", cost, tt.q)
		if tt.wantErr {
			assert.ErrorIs(t, err, sim.ErrConstruction, "q=%v", tt.q)
		} else {
			assert.NoError(t, err, "q=%v", tt.q)
		}
	}
	assert.Panics(t, func() { MustQuantile("q", cost, 1) })
}

func TestCompute_Values(t *testing.T) {
	// GIVEN costs {4, 1, 3, 2}
	set, err := NewSet(
		ExpectedValue("mean_cost", cost),
		Variance("var_cost", cost),
		MeanAndVariance("mv_mean", "mv_var", cost),
		MustQuantile("median_cost", cost, 0.5),
		MustQuantile("p90_cost", cost, 0.9),
		Probability("p_flood", func(o outcome) bool { return o.Flooded }),
		Custom("max_cost", func(os []outcome) float64 {
			m := math.Inf(-1)
			for _, o := range os {
				m = math.Max(m, o.Cost)
			}
			return m
		}),
	)
	require.NoError(t, err)

	// WHEN
	got, err := set.Compute(sampleOutcomes())
	require.NoError(t, err)

	// THEN sample variance of 1..4 is 5/3; p90 rank is 2.7 → 3 + 0.7*(4-3)
	assert.InDelta(t, 2.5, got["mean_cost"], 1e-12)
	assert.InDelta(t, 5.0/3.0, got["var_cost"], 1e-12)
	assert.InDelta(t, 2.5, got["mv_mean"], 1e-12)
	assert.InDelta(t, 5.0/3.0, got["mv_var"], 1e-12)
	assert.InDelta(t, 2.5, got["median_cost"], 1e-12)
	assert.InDelta(t, 3.7, got["p90_cost"], 1e-12)
	assert.InDelta(t, 0.5, got["p_flood"], 1e-12)
	assert.Equal(t, 4.0, got["max_cost"])
	assert.Len(t, got, 8)
}

func TestCompute_SingleOutcomeVarianceIsNaN(t *testing.T) {
	got, err := ComputeMetrics([]Metric[outcome]{
		Variance("v", cost),
		MeanAndVariance("m", "mv", cost),
		MustQuantile("q", cost, 0.25),
	}, []outcome{{Cost: 7}})
	require.NoError(t, err)

	assert.True(t, math.IsNaN(got["v"]))
	assert.True(t, math.IsNaN(got["mv"]))
	assert.Equal(t, 7.0, got["m"])
	assert.Equal(t, 7.0, got["q"])
}

func TestComputeMetrics_OrderIndependent(t *testing.T) {
	// GIVEN descriptors with disjoint names
	a := ExpectedValue("mean", cost)
	b := Probability("p", func(o outcome) bool { return o.Cost > 2 })
	c := MustQuantile("q25", cost, 0.25)
	outcomes := sampleOutcomes()

	// WHEN computed in two orders
	first, err := ComputeMetrics([]Metric[outcome]{a, b, c}, outcomes)
	require.NoError(t, err)
	second, err := ComputeMetrics([]Metric[outcome]{c, a, b}, outcomes)
	require.NoError(t, err)

	// THEN the mappings are identical
	assert.Equal(t, first, second)
}

func TestQuantile_InputOrderIrrelevant(t *testing.T) {
	m := MustQuantile("q", cost, 0.3)
	forward, err := ComputeMetrics([]Metric[outcome]{m}, []outcome{{Cost: 1}, {Cost: 2}, {Cost: 3}})
	require.NoError(t, err)
	backward, err := ComputeMetrics([]Metric[outcome]{m}, []outcome{{Cost: 3}, {Cost: 2}, {Cost: 1}})
	require.NoError(t, err)
	assert.Equal(t, forward["q"], backward["q"])
	assert.InDelta(t, 1.6, forward["q"], 1e-12)
}

func TestNewSet_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		metrics []Metric[outcome]
	}{
		{"no metrics", nil},
		{"duplicate names", []Metric[outcome]{ExpectedValue("x", cost), Variance("x", cost)}},
		{"duplicate across multi-name", []Metric[outcome]{MeanAndVariance("m", "v", cost), Variance("v", cost)}},
		{"empty name", []Metric[outcome]{ExpectedValue("", cost)}},
		{"nil field", []Metric[outcome]{ExpectedValue[outcome]("x", nil)}},
		{"nil predicate", []Metric[outcome]{Probability[outcome]("x", nil)}},
		{"nil custom", []Metric[outcome]{Custom[outcome]("x", nil)}},
		{"zero value", []Metric[outcome]{{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSet(tt.metrics...)
			assert.ErrorIs(t, err, sim.ErrConstruction)
		})
	}
}

func TestSet_NamesInDeclarationOrder(t *testing.T) {
	set, err := NewSet(
		MeanAndVariance("m", "v", cost),
		Probability("p", func(outcome) bool { return true }),
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"m", "v", "p"}, set.Names())
	assert.True(t, set.Has("v"))
	assert.False(t, set.Has("missing"))
}

func TestSet_EmptyOutcomes(t *testing.T) {
	set, err := NewSet(ExpectedValue("m", cost))
	require.NoError(t, err)

	_, err = set.Compute(nil)
	assert.ErrorIs(t, err, sim.ErrValidation)
}

func TestFuncSet(t *testing.T) {
	reduce := func(os []outcome) map[string]float64 {
		return map[string]float64{"n": float64(len(os))}
	}

	t.Run("declared names produced", func(t *testing.T) {
		set, err := FuncSet([]string{"n"}, reduce)
		require.NoError(t, err)
		got, err := set.Compute(sampleOutcomes())
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"n": 4}, got)
	})

	t.Run("declared name missing", func(t *testing.T) {
		set, err := FuncSet([]string{"n", "other"}, reduce)
		require.NoError(t, err)
		_, err = set.Compute(sampleOutcomes())
		assert.ErrorIs(t, err, sim.ErrValidation)
	})

	t.Run("undeclared name produced", func(t *testing.T) {
		set, err := FuncSet([]string{"n"}, func([]outcome) map[string]float64 {
			return map[string]float64{"n": 1, "extra": 2}
		})
		require.NoError(t, err)
		_, err = set.Compute(sampleOutcomes())
		assert.ErrorIs(t, err, sim.ErrValidation)
	})

	t.Run("construction", func(t *testing.T) {
		_, err := FuncSet[outcome]([]string{"n"}, nil)
		assert.ErrorIs(t, err, sim.ErrConstruction)
		_, err = FuncSet([]string{}, reduce)
		assert.ErrorIs(t, err, sim.ErrConstruction)
		_, err = FuncSet([]string{"n", "n"}, reduce)
		assert.ErrorIs(t, err, sim.ErrConstruction)
	})
}

func TestField(t *testing.T) {
	o := outcome{Cost: 2.5, Floods: 3, Flooded: true}

	costOf, err := Field[outcome]("Cost")
	require.NoError(t, err)
	assert.Equal(t, 2.5, costOf(o))

	floods, err := Field[*outcome]("Floods")
	require.NoError(t, err)
	assert.Equal(t, 3.0, floods(&o))

	flooded := MustField[outcome]("Flooded")
	assert.Equal(t, 1.0, flooded(o))
}

func TestField_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		field string
	}{
		{"missing", "Nope"},
		{"non-numeric", "Label"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Field[outcome](tt.field)
			assert.ErrorIs(t, err, sim.ErrConstruction)
		})
	}

	_, err := Field[float64]("X")
	assert.ErrorIs(t, err, sim.ErrConstruction)
	assert.Panics(t, func() { MustField[outcome]("Label") })
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "quantile", MustQuantile("q", cost, 0.5).Kind().String())
	assert.Equal(t, "unknown", Kind(99).String())
}
