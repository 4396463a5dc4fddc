package optim

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"gopkg.in/yaml.v3"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// FitnessFunc maps a parameter vector to its minimized objective vector.
// iteration numbers the evaluation for batch selection and seeding; points
// evaluated with the same iteration see the same scenarios and noise.
// Implementations must be safe for concurrent calls.
type FitnessFunc func(x []float64, iteration int) ([]float64, error)

// BackendResult is what a search backend reports.
type BackendResult struct {
	Front      []Point
	Iterations int
	Converged  bool
}

// Backend is an external search algorithm.
type Backend interface {
	Search(bounds []Bound, fitness FitnessFunc) (*BackendResult, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc func(bounds []Bound, fitness FitnessFunc) (*BackendResult, error)

func (f BackendFunc) Search(bounds []Bound, fitness FitnessFunc) (*BackendResult, error) {
	return f(bounds, fitness)
}

// RandomSearch samples PopulationSize uniform points inside the bounds per
// generation and keeps their Pareto front. It stops after Iterations
// generations, or as converged once the front is unchanged for Patience
// consecutive generations (Patience 0 disables the check).
//
// Candidates for generation g come from a stream derived from Seed and g, so
// a search resumed from a saved state continues exactly as if uninterrupted.
type RandomSearch struct {
	Seed           int64
	Iterations     int
	PopulationSize int
	Patience       int
	Workers        int

	// Resume is a state previously passed to OnGeneration.
	Resume []byte
	// OnGeneration, if set, receives the encoded search state after every
	// generation. An error aborts the search.
	OnGeneration func(generation int, state []byte) error
}

type searchState struct {
	Generation int     `yaml:"generation"`
	Stale      int     `yaml:"stale"`
	Front      []Point `yaml:"front"`
}

func streamGeneration(g int) string { return fmt.Sprintf("generation_%d", g) }

// Search implements Backend.
func (rs *RandomSearch) Search(bounds []Bound, fitness FitnessFunc) (*BackendResult, error) {
	if rs.Iterations <= 0 {
		return nil, sim.ConstructionErrorf("random search", "iterations must be positive, got %d", rs.Iterations)
	}
	if rs.PopulationSize <= 0 {
		return nil, sim.ConstructionErrorf("random search", "population size must be positive, got %d", rs.PopulationSize)
	}
	if rs.Patience < 0 || rs.Workers < 0 {
		return nil, &sim.ConstructionError{What: "random search", Reason: "patience and workers must be non-negative"}
	}
	if err := checkBounds(bounds); err != nil {
		return nil, err
	}

	var st searchState
	if len(rs.Resume) > 0 {
		if err := yaml.Unmarshal(rs.Resume, &st); err != nil {
			return nil, fmt.Errorf("decoding search state: %w", err)
		}
		for i, pt := range st.Front {
			if len(pt.Params) != len(bounds) {
				return nil, &sim.ValidationError{What: "search state", Reason: fmt.Sprintf("point %d has %d parameters, bounds have %d", i, len(pt.Params), len(bounds))}
			}
		}
		logrus.Infof("random search: resuming at generation %d with %d front points", st.Generation, len(st.Front))
	}
	front := NewFront(st.Front...)
	key := sim.NewSimulationKey(rs.Seed)
	converged := rs.Patience > 0 && st.Stale >= rs.Patience

	for gen := st.Generation; gen < rs.Iterations && !converged; gen++ {
		cands := sample(key, gen, bounds, rs.PopulationSize)
		objs, err := rs.evaluate(cands, gen, fitness)
		if err != nil {
			return nil, err
		}

		changed := false
		for i := range cands {
			if front.Merge(Point{Params: cands[i], Objectives: objs[i]}) {
				changed = true
			}
		}
		if changed {
			st.Stale = 0
		} else {
			st.Stale++
		}
		st.Generation = gen + 1
		converged = rs.Patience > 0 && st.Stale >= rs.Patience
		logrus.Infof("random search: generation %d/%d, front size %d, unchanged for %d", st.Generation, rs.Iterations, front.Len(), st.Stale)

		if rs.OnGeneration != nil {
			st.Front = front.Points()
			blob, err := yaml.Marshal(&st)
			if err != nil {
				return nil, fmt.Errorf("encoding search state: %w", err)
			}
			if err := rs.OnGeneration(st.Generation, blob); err != nil {
				return nil, fmt.Errorf("generation %d: %w", st.Generation, err)
			}
		}
	}

	return &BackendResult{Front: front.Points(), Iterations: st.Generation, Converged: converged}, nil
}

func sample(key sim.SimulationKey, gen int, bounds []Bound, n int) [][]float64 {
	rng := key.Stream(streamGeneration(gen))
	cands := make([][]float64, n)
	for i := range cands {
		x := make([]float64, len(bounds))
		for k, b := range bounds {
			x[k] = math.Min(b.Hi, b.Lo+rng.Float64()*(b.Hi-b.Lo))
		}
		cands[i] = x
	}
	return cands
}

// evaluate scores all candidates of a generation, in parallel when Workers > 1.
func (rs *RandomSearch) evaluate(cands [][]float64, gen int, fitness FitnessFunc) ([][]float64, error) {
	objs := make([][]float64, len(cands))
	errs := make([]error, len(cands))
	if rs.Workers > 1 {
		p := pool.New().WithMaxGoroutines(rs.Workers)
		for i := range cands {
			p.Go(func() { objs[i], errs[i] = fitness(cands[i], gen) })
		}
		p.Wait()
	} else {
		for i := range cands {
			objs[i], errs[i] = fitness(cands[i], gen)
		}
	}
	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("generation %d candidate %d: %w", gen, i, err)
		}
	}
	return objs, nil
}
