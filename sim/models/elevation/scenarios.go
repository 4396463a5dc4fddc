package elevation

import (
	"math/rand"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Range is a closed interval sampled uniformly.
type Range struct {
	Lo float64 `yaml:"lo"`
	Hi float64 `yaml:"hi"`
}

func (r Range) sample(rng *rand.Rand) float64 { return r.Lo + rng.Float64()*(r.Hi-r.Lo) }

// Ensemble describes independent uniform ranges for scenario parameters.
type Ensemble struct {
	SurgeLoc   Range `yaml:"surge_loc"`
	SurgeScale Range `yaml:"surge_scale"`
	Slr        Range `yaml:"slr"`
}

// Validate checks that every range is ordered and surge scales are positive.
func (e Ensemble) Validate() error {
	for _, r := range []struct {
		name string
		Range
	}{{"surge_loc", e.SurgeLoc}, {"surge_scale", e.SurgeScale}, {"slr", e.Slr}} {
		if r.Lo > r.Hi {
			return sim.ConstructionErrorf("ensemble", "%s range [%g, %g] has lo > hi", r.name, r.Lo, r.Hi)
		}
	}
	if e.SurgeScale.Lo <= 0 {
		return sim.ConstructionErrorf("ensemble", "surge_scale must be positive, got lower bound %g", e.SurgeScale.Lo)
	}
	return nil
}

// Sample draws n scenarios from the stream "scenarios" of key.
func (e Ensemble) Sample(n int, key sim.SimulationKey) ([]Scenario, error) {
	if n <= 0 {
		return nil, sim.ConstructionErrorf("ensemble", "scenario count must be positive, got %d", n)
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	rng := key.Stream("scenarios")
	out := make([]Scenario, n)
	for i := range out {
		out[i] = Scenario{
			SurgeLoc:   e.SurgeLoc.sample(rng),
			SurgeScale: e.SurgeScale.sample(rng),
			Slr:        e.Slr.sample(rng),
		}
	}
	return out, nil
}
