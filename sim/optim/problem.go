// Package optim turns a simulation model into a multi-objective optimization
// problem: it maps parameter vectors to policies, evaluates policies over a
// batch of scenarios with reproducible seeding, and keeps a Pareto front of
// the results for an external search backend.
package optim

import (
	"fmt"
	"math"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/metric"
)

// ValidationMode controls how much checking NewProblem does up front.
type ValidationMode int

const (
	// Strict scans every scenario for type homogeneity and probes the
	// policy at the bounds midpoint. Default.
	Strict ValidationMode = iota
	// Relaxed skips both. Objective/metric cross-checks always run.
	Relaxed
)

func (m ValidationMode) String() string {
	if m == Relaxed {
		return "relaxed"
	}
	return "strict"
}

// ParseValidationMode accepts "strict", "relaxed" or "" (strict).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch s {
	case "", "strict":
		return Strict, nil
	case "relaxed":
		return Relaxed, nil
	}
	return Strict, &sim.ValidationError{What: "validation mode", Reason: "unknown mode " + s, Valid: []string{"strict", "relaxed"}}
}

type options struct {
	mode    ValidationMode
	key     sim.SimulationKey
	seeding SeedStrategy
	workers int
}

// Option configures NewProblem.
type Option func(*options)

// WithValidationMode sets the construction-time validation depth.
func WithValidationMode(m ValidationMode) Option { return func(o *options) { o.mode = m } }

// WithSeed sets the master seed all random streams derive from.
func WithSeed(seed int64) Option {
	return func(o *options) { o.key = sim.NewSimulationKey(seed) }
}

// WithSeedStrategy selects common random numbers or independent draws.
func WithSeedStrategy(s SeedStrategy) Option { return func(o *options) { o.seeding = s } }

// WithWorkers bounds the goroutines used to simulate one batch. Zero or one
// runs scenarios sequentially. Results do not depend on the worker count.
func WithWorkers(n int) Option { return func(o *options) { o.workers = n } }

// Problem binds a model, its scenarios, a policy codec, metrics and
// objectives. It is immutable after NewProblem and safe for concurrent use.
type Problem[C, Sc, P, S, A, R, O, T any] struct {
	engine     *sim.Engine[C, Sc, P, S, A, R, O, T]
	config     C
	scenarios  []Sc
	codec      *codec[P]
	metrics    *metric.Set[O]
	objectives []Objective
	active     []Objective
	batch      BatchPolicy
	opts       options
	eval       *Evaluator[C, Sc, P, S, A, R, O, T]
}

// NewProblem validates its arguments in order and returns a Problem only if
// every check passes:
//
//  1. argument shapes (non-nil engine and metrics, scenarios, objectives, batch)
//  2. scenario homogeneity (Strict only)
//  3. the policy interface: bounds, and a round-trip at the midpoint (Strict only)
//  4. every objective names a metric the set produces
//
// No simulation runs during construction.
func NewProblem[C, Sc, P, S, A, R, O, T any](
	engine *sim.Engine[C, Sc, P, S, A, R, O, T],
	cfg C,
	scenarios []Sc,
	policy P,
	metrics *metric.Set[O],
	objectives []Objective,
	batch BatchPolicy,
	opts ...Option,
) (*Problem[C, Sc, P, S, A, R, O, T], error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if engine == nil {
		return nil, &sim.ConstructionError{What: "problem", Reason: "engine is nil"}
	}
	if metrics == nil {
		return nil, &sim.ConstructionError{What: "problem", Reason: "metric set is nil"}
	}
	if len(scenarios) == 0 {
		return nil, &sim.ConstructionError{What: "problem", Reason: "at least one scenario is required"}
	}
	if o.workers < 0 {
		return nil, sim.ConstructionErrorf("problem", "workers must be non-negative, got %d", o.workers)
	}
	if o.seeding != CommonRandomNumbers && o.seeding != IndependentDraws {
		return nil, sim.ConstructionErrorf("problem", "unknown seed strategy %d", int(o.seeding))
	}
	act := active(objectives)
	if len(act) == 0 {
		return nil, &sim.ConstructionError{What: "problem", Reason: "at least one objective must be minimized or maximized"}
	}
	if err := batch.validate(len(scenarios)); err != nil {
		return nil, err
	}

	if o.mode == Strict {
		if err := sim.CheckHomogeneous("scenarios", scenarios); err != nil {
			return nil, err
		}
	}

	c, err := newCodec(policy)
	if err != nil {
		return nil, err
	}
	if o.mode == Strict {
		if err := c.probe(); err != nil {
			return nil, err
		}
	}

	if err := crossReference(objectives, metrics); err != nil {
		return nil, err
	}

	p := &Problem[C, Sc, P, S, A, R, O, T]{
		engine:     engine,
		config:     cfg,
		scenarios:  slices.Clone(scenarios),
		codec:      c,
		metrics:    metrics,
		objectives: slices.Clone(objectives),
		active:     act,
		batch:      batch,
		opts:       o,
	}
	p.eval = &Evaluator[C, Sc, P, S, A, R, O, T]{problem: p}
	logrus.Debugf("optim: problem with %d scenarios, %d parameters %v, objectives %v, batch %s, %s, %s validation",
		len(scenarios), len(c.bounds), c.names, objectives, batch, o.seeding, o.mode)
	return p, nil
}

func crossReference[O any](objectives []Objective, metrics *metric.Set[O]) error {
	seen := make(map[string]bool, len(objectives))
	for _, obj := range objectives {
		if obj.Name == "" {
			return &sim.ValidationError{What: "objectives", Reason: "objective name is empty", Valid: metrics.Names()}
		}
		if seen[obj.Name] {
			return &sim.ValidationError{What: "objectives", Reason: fmt.Sprintf("objective %q is listed twice", obj.Name)}
		}
		seen[obj.Name] = true
		if _, ok := directionNames[obj.Direction]; !ok {
			return &sim.ValidationError{What: "objectives", Reason: fmt.Sprintf("objective %q has unknown direction %d", obj.Name, int(obj.Direction))}
		}
		if !metrics.Has(obj.Name) {
			return &sim.ValidationError{
				What:   "objectives",
				Reason: fmt.Sprintf("objective %q is not produced by any metric", obj.Name),
				Valid:  metrics.Names(),
			}
		}
	}
	return nil
}

// Bounds returns the policy parameter bounds.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Bounds() []Bound { return slices.Clone(p.codec.bounds) }

// ParamNames returns the parameter names: tagged field names, or x0, x1, ...
// for policies with explicit bounds.
func (p *Problem[C, Sc, P, S, A, R, O, T]) ParamNames() []string { return slices.Clone(p.codec.names) }

// ObjectiveList returns all objectives, including ignored ones.
func (p *Problem[C, Sc, P, S, A, R, O, T]) ObjectiveList() []Objective {
	return slices.Clone(p.objectives)
}

// Scenarios returns the number of scenarios.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Scenarios() int { return len(p.scenarios) }

// Evaluator returns the problem's evaluator.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Evaluator() *Evaluator[C, Sc, P, S, A, R, O, T] {
	return p.eval
}

// Policy builds the policy for parameter vector x.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Policy(x []float64) (P, error) { return p.codec.decode(x) }

// Params returns the parameter vector of policy.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Params(policy P) []float64 { return p.codec.params(policy) }

// EvaluatePolicy simulates policy over the batch for evaluation iteration and
// returns the metric values.
func (p *Problem[C, Sc, P, S, A, R, O, T]) EvaluatePolicy(policy P, iteration int) (map[string]float64, error) {
	return p.eval.Evaluate(policy, iteration)
}

// Objectives extracts the backend vector from metric values: minimized
// objectives pass through, maximized ones are negated, ignored ones dropped.
// A NaN value for an active objective is a ValidationError.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Objectives(metrics map[string]float64) ([]float64, error) {
	out := make([]float64, len(p.active))
	for i, obj := range p.active {
		v, ok := metrics[obj.Name]
		if !ok {
			return nil, &sim.ValidationError{What: "objectives", Reason: fmt.Sprintf("metric %q missing from evaluation", obj.Name), Valid: sortedKeys(metrics)}
		}
		if math.IsNaN(v) {
			return nil, &sim.ValidationError{What: "objectives", Reason: fmt.Sprintf("metric %q evaluated to NaN", obj.Name)}
		}
		out[i] = obj.toBackend(v)
	}
	return out, nil
}

// Fitness is the FitnessFunc handed to a search backend.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Fitness(x []float64, iteration int) ([]float64, error) {
	policy, err := p.codec.decode(x)
	if err != nil {
		return nil, err
	}
	m, err := p.eval.Evaluate(policy, iteration)
	if err != nil {
		return nil, err
	}
	return p.Objectives(m)
}

// Optimize runs backend against the problem and wraps its front.
func (p *Problem[C, Sc, P, S, A, R, O, T]) Optimize(backend Backend) (*Result[P], error) {
	if backend == nil {
		return nil, &sim.InterfaceNotImplementedError{Method: "Search", Type: "<nil>"}
	}
	br, err := backend.Search(p.Bounds(), p.Fitness)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return p.WrapResult(br)
}
