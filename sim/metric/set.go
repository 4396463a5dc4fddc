package metric

import (
	"fmt"
	"slices"
	"sort"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Set is a validated group of metrics whose produced names are unique.
// A Set is read-only after construction and safe for concurrent use.
type Set[O any] struct {
	metrics []Metric[O]
	fn      func([]O) map[string]float64
	names   []string
}

// NewSet validates each descriptor and rejects duplicate produced names, so
// no metric can silently overwrite another.
func NewSet[O any](metrics ...Metric[O]) (*Set[O], error) {
	if len(metrics) == 0 {
		return nil, &sim.ConstructionError{What: "metric set", Reason: "at least one metric is required"}
	}
	seen := make(map[string]int, len(metrics))
	var names []string
	for i, m := range metrics {
		if err := m.validate(); err != nil {
			return nil, fmt.Errorf("metric %d: %w", i, err)
		}
		for _, n := range m.names {
			if prev, dup := seen[n]; dup {
				return nil, sim.ConstructionErrorf("metric set", "metric name %q is produced by both metric %d and metric %d", n, prev, i)
			}
			seen[n] = i
			names = append(names, n)
		}
	}
	return &Set[O]{metrics: slices.Clone(metrics), names: names}, nil
}

// FuncSet wraps a free-form reduction function. names declares what fn
// returns; Compute fails if fn produces a different key set.
func FuncSet[O any](names []string, fn func([]O) map[string]float64) (*Set[O], error) {
	if fn == nil {
		return nil, &sim.ConstructionError{What: "metric set", Reason: "reduction function is nil"}
	}
	if len(names) == 0 {
		return nil, &sim.ConstructionError{What: "metric set", Reason: "a reduction function must declare the names it produces"}
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if n == "" {
			return nil, &sim.ConstructionError{What: "metric set", Reason: "metric name must not be empty"}
		}
		if seen[n] {
			return nil, sim.ConstructionErrorf("metric set", "metric name %q declared twice", n)
		}
		seen[n] = true
	}
	return &Set[O]{fn: fn, names: slices.Clone(names)}, nil
}

// Names returns the produced metric names in declaration order.
func (s *Set[O]) Names() []string { return slices.Clone(s.names) }

// Has reports whether name is produced by the set.
func (s *Set[O]) Has(name string) bool { return slices.Contains(s.names, name) }

// Compute reduces outcomes to a name→value mapping.
func (s *Set[O]) Compute(outcomes []O) (map[string]float64, error) {
	if len(outcomes) == 0 {
		return nil, &sim.ValidationError{What: "metrics", Reason: "cannot compute metrics over zero outcomes"}
	}
	if s.fn != nil {
		return s.computeFunc(outcomes)
	}
	out := make(map[string]float64, len(s.names))
	for _, m := range s.metrics {
		m.compute(outcomes, out)
	}
	return out, nil
}

func (s *Set[O]) computeFunc(outcomes []O) (map[string]float64, error) {
	got := s.fn(outcomes)
	for _, n := range s.names {
		if _, ok := got[n]; !ok {
			return nil, &sim.ValidationError{
				What:   "metrics",
				Reason: fmt.Sprintf("reduction function did not produce declared metric %q", n),
				Valid:  sortedKeys(got),
			}
		}
	}
	if len(got) != len(s.names) {
		return nil, &sim.ValidationError{
			What:   "metrics",
			Reason: "reduction function produced undeclared metrics",
			Valid:  s.Names(),
		}
	}
	return got, nil
}

// ComputeMetrics validates metrics as a set and computes them in one call.
func ComputeMetrics[O any](metrics []Metric[O], outcomes []O) (map[string]float64, error) {
	set, err := NewSet(metrics...)
	if err != nil {
		return nil, err
	}
	return set.Compute(outcomes)
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
