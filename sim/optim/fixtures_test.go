package optim

import (
	"math"
	"math/rand"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/metric"
)

// A protection-level model: each step a random shock arrives, the policy's
// level costs money and absorbs shocks up to that level.

type testConfig struct{ Steps int }

type testScenario struct{ Bias float64 }

type knob struct {
	Level float64 `param:"0,10"`
	Label string
}

type stepRecord struct{ Level, Shock float64 }

type testOutcome struct{ Cost, Damage float64 }

type testProblem = Problem[testConfig, testScenario, knob, float64, float64, stepRecord, testOutcome, int]

func newModel[P any](level func(P) float64, steps *atomic.Int64) *sim.ModelFuncs[testConfig, testScenario, P, float64, float64, stepRecord, testOutcome, int] {
	return &sim.ModelFuncs[testConfig, testScenario, P, float64, float64, stepRecord, testOutcome, int]{
		Name: "shock",
		TimeAxisFunc: func(cfg testConfig, _ testScenario) (sim.TimeAxis[int], error) {
			return sim.Range(1, cfg.Steps)
		},
		InitializeFunc: func(testConfig, testScenario, *rand.Rand) float64 { return 0 },
		GetActionFunc: func(p P, _ float64, _ sim.TimeStep[int], _ testScenario) float64 {
			return level(p)
		},
		RunTimestepFunc: func(s, a float64, _ sim.TimeStep[int], _ testConfig, sc testScenario, rng *rand.Rand) (float64, stepRecord, error) {
			if steps != nil {
				steps.Add(1)
			}
			shock := sc.Bias + rng.ExpFloat64()*3
			return s + shock, stepRecord{Level: a, Shock: shock}, nil
		},
		ComputeOutcomeFunc: func(records []stepRecord, _ testConfig, _ testScenario) testOutcome {
			var o testOutcome
			for _, r := range records {
				o.Cost += r.Level
				o.Damage += math.Max(0, r.Shock-r.Level)
			}
			return o
		},
	}
}

func knobLevel(k knob) float64 { return k.Level }

func testEngine[P any](t *testing.T, level func(P) float64, steps *atomic.Int64) *sim.Engine[testConfig, testScenario, P, float64, float64, stepRecord, testOutcome, int] {
	t.Helper()
	e, err := newModel(level, steps).Engine()
	require.NoError(t, err)
	return e
}

func testScenarios(n int) []testScenario {
	out := make([]testScenario, n)
	for i := range out {
		out[i] = testScenario{Bias: 0.5 * float64(i)}
	}
	return out
}

func testMetrics(t *testing.T) *metric.Set[testOutcome] {
	t.Helper()
	set, err := metric.NewSet(
		metric.ExpectedValue("cost", metric.MustField[testOutcome]("Cost")),
		metric.ExpectedValue("damage", metric.MustField[testOutcome]("Damage")),
		metric.MustQuantile("damage_p90", metric.MustField[testOutcome]("Damage"), 0.9),
	)
	require.NoError(t, err)
	return set
}

func testObjectives() []Objective {
	return []Objective{Minimizing("cost"), Minimizing("damage")}
}

func newTestProblem(t *testing.T, batch BatchPolicy, opts ...Option) *testProblem {
	t.Helper()
	p, err := NewProblem(testEngine(t, knobLevel, nil), testConfig{Steps: 20}, testScenarios(10),
		knob{Level: 1, Label: "prototype"}, testMetrics(t), testObjectives(), batch, opts...)
	require.NoError(t, err)
	return p
}

func mustBatch(t *testing.T) func(BatchPolicy, error) BatchPolicy {
	return func(b BatchPolicy, err error) BatchPolicy {
		t.Helper()
		require.NoError(t, err)
		return b
	}
}
