package optim

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Evaluator simulates one policy over a scenario batch and reduces the
// outcomes with the problem's metric set.
//
// Every run's random stream is derived from the master seed and the run's
// position, and outcomes are written to their batch index, so the result is
// the same for any worker count.
type Evaluator[C, Sc, P, S, A, R, O, T any] struct {
	problem *Problem[C, Sc, P, S, A, R, O, T]
}

// Batch returns the scenario indices selected for evaluation iteration.
func (e *Evaluator[C, Sc, P, S, A, R, O, T]) Batch(iteration int) []int {
	p := e.problem
	var rng *rand.Rand
	if !p.batch.IsFull() {
		rng = p.opts.key.Stream(sim.StreamBatch(iteration))
	}
	return p.batch.Select(len(p.scenarios), rng)
}

// Outcomes runs the engine for every scenario in the batch of iteration and
// returns the outcomes in batch order along with the scenario indices.
// The first failing run, by batch position, is reported.
func (e *Evaluator[C, Sc, P, S, A, R, O, T]) Outcomes(policy P, iteration int) ([]O, []int, error) {
	p := e.problem
	idx := e.Batch(iteration)
	outcomes := make([]O, len(idx))
	errs := make([]error, len(idx))

	run := func(j int) {
		sc := idx[j]
		rng := p.opts.seeding.runRNG(p.opts.key, iteration, j, sc)
		outcomes[j], errs[j] = p.engine.Simulate(p.config, p.scenarios[sc], policy, rng)
	}

	if p.opts.workers > 1 && len(idx) > 1 {
		wp := pool.New().WithMaxGoroutines(p.opts.workers)
		for j := range idx {
			wp.Go(func() { run(j) })
		}
		wp.Wait()
	} else {
		for j := range idx {
			run(j)
		}
	}

	for j, err := range errs {
		if err != nil {
			return nil, nil, fmt.Errorf("scenario %d: %w", idx[j], err)
		}
	}
	return outcomes, idx, nil
}

// Evaluate returns the metric values of policy for evaluation iteration.
func (e *Evaluator[C, Sc, P, S, A, R, O, T]) Evaluate(policy P, iteration int) (map[string]float64, error) {
	outcomes, idx, err := e.Outcomes(policy, iteration)
	if err != nil {
		return nil, err
	}
	m, err := e.problem.metrics.Compute(outcomes)
	if err != nil {
		return nil, err
	}
	logrus.Debugf("optim: iteration %d evaluated %d scenarios", iteration, len(idx))
	return m, nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
