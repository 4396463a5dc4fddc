package optim

import (
	"math/rand"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// SeedStrategy decides which random stream each scenario run draws from.
type SeedStrategy int

const (
	// CommonRandomNumbers gives scenario i the same stream in every
	// evaluation, so competing policies see identical noise. Default.
	CommonRandomNumbers SeedStrategy = iota
	// IndependentDraws keys the stream on the evaluation counter and the
	// position within the batch.
	IndependentDraws
)

func (s SeedStrategy) String() string {
	switch s {
	case CommonRandomNumbers:
		return "common-random-numbers"
	case IndependentDraws:
		return "independent-draws"
	default:
		return "unknown"
	}
}

// ParseSeedStrategy accepts the names printed by String.
func ParseSeedStrategy(s string) (SeedStrategy, error) {
	switch s {
	case "common-random-numbers", "crn":
		return CommonRandomNumbers, nil
	case "independent-draws", "independent":
		return IndependentDraws, nil
	}
	return 0, &sim.ValidationError{What: "seed strategy", Reason: "unknown strategy " + s, Valid: []string{"common-random-numbers", "independent-draws"}}
}

// streamName names the stream for the run of scenario at batch position j
// during evaluation iteration.
func (s SeedStrategy) streamName(iteration, j, scenario int) string {
	if s == IndependentDraws {
		return sim.StreamDraw(iteration, j)
	}
	return sim.StreamScenario(scenario)
}

// runRNG returns a fresh generator for one scenario run.
func (s SeedStrategy) runRNG(key sim.SimulationKey, iteration, j, scenario int) *rand.Rand {
	return key.Stream(s.streamName(iteration, j, scenario))
}
