// Package metric reduces a collection of simulation outcomes to named scalars.
//
// Metrics are a closed set of descriptors (ExpectedValue, Variance,
// MeanAndVariance, Quantile, Probability, Custom). Each descriptor declares
// the names it produces up front so that objectives can be checked against
// them before any simulation runs.
package metric

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Kind identifies a metric descriptor variant.
type Kind int

const (
	KindExpectedValue Kind = iota
	KindVariance
	KindMeanAndVariance
	KindQuantile
	KindProbability
	KindCustom
)

var kindNames = map[Kind]string{
	KindExpectedValue:   "expected-value",
	KindVariance:        "variance",
	KindMeanAndVariance: "mean-and-variance",
	KindQuantile:        "quantile",
	KindProbability:     "probability",
	KindCustom:          "custom",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Metric is one reduction over a slice of outcomes O. Construct it with the
// descriptor functions in this package; the zero value is invalid.
type Metric[O any] struct {
	kind      Kind
	names     []string
	field     func(O) float64
	q         float64
	predicate func(O) bool
	fn        func([]O) float64
}

// ExpectedValue is the mean of field over outcomes.
func ExpectedValue[O any](name string, field func(O) float64) Metric[O] {
	return Metric[O]{kind: KindExpectedValue, names: []string{name}, field: field}
}

// Variance is the sample (n-1) variance of field over outcomes.
func Variance[O any](name string, field func(O) float64) Metric[O] {
	return Metric[O]{kind: KindVariance, names: []string{name}, field: field}
}

// MeanAndVariance produces the mean and the sample variance of field from a
// single pass over the outcomes.
func MeanAndVariance[O any](meanName, varName string, field func(O) float64) Metric[O] {
	return Metric[O]{kind: KindMeanAndVariance, names: []string{meanName, varName}, field: field}
}

// Quantile is the q-quantile of field, interpolated linearly between order
// statistics at rank q*(n-1). q must lie strictly inside (0, 1).
func Quantile[O any](name string, field func(O) float64, q float64) (Metric[O], error) {
	if math.IsNaN(q) || q <= 0 || q >= 1 {
		return Metric[O]{}, sim.ConstructionErrorf("quantile metric "+name, "q must be strictly between 0 and 1, got %v", q)
	}
	return Metric[O]{kind: KindQuantile, names: []string{name}, field: field, q: q}, nil
}

// MustQuantile is Quantile for literal q values.
func MustQuantile[O any](name string, field func(O) float64, q float64) Metric[O] {
	m, err := Quantile(name, field, q)
	if err != nil {
		panic(err)
	}
	return m
}

// Probability is the fraction of outcomes for which predicate holds.
func Probability[O any](name string, predicate func(O) bool) Metric[O] {
	return Metric[O]{kind: KindProbability, names: []string{name}, predicate: predicate}
}

// Custom applies fn to the whole outcome collection.
func Custom[O any](name string, fn func([]O) float64) Metric[O] {
	return Metric[O]{kind: KindCustom, names: []string{name}, fn: fn}
}

// Kind returns the descriptor variant.
func (m Metric[O]) Kind() Kind { return m.kind }

// Names returns the metric names this descriptor produces.
func (m Metric[O]) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// validate checks the payload required by the variant.
func (m Metric[O]) validate() error {
	what := m.kind.String() + " metric"
	if len(m.names) == 0 {
		return &sim.ConstructionError{What: "metric", Reason: "descriptor has no names (use the constructors in package metric)"}
	}
	for _, n := range m.names {
		if n == "" {
			return &sim.ConstructionError{What: what, Reason: "metric name must not be empty"}
		}
	}
	switch m.kind {
	case KindExpectedValue, KindVariance, KindMeanAndVariance:
		if m.field == nil {
			return &sim.ConstructionError{What: what + " " + m.names[0], Reason: "field accessor is nil"}
		}
	case KindQuantile:
		if m.field == nil {
			return &sim.ConstructionError{What: what + " " + m.names[0], Reason: "field accessor is nil"}
		}
		if m.q <= 0 || m.q >= 1 {
			return sim.ConstructionErrorf(what+" "+m.names[0], "q must be strictly between 0 and 1, got %v", m.q)
		}
	case KindProbability:
		if m.predicate == nil {
			return &sim.ConstructionError{What: what + " " + m.names[0], Reason: "predicate is nil"}
		}
	case KindCustom:
		if m.fn == nil {
			return &sim.ConstructionError{What: what + " " + m.names[0], Reason: "function is nil"}
		}
	default:
		return sim.ConstructionErrorf("metric", "unknown descriptor kind %d", int(m.kind))
	}
	return nil
}

// compute evaluates the descriptor and writes its values into out. outcomes
// must be non-empty.
func (m Metric[O]) compute(outcomes []O, out map[string]float64) {
	switch m.kind {
	case KindExpectedValue:
		out[m.names[0]] = stat.Mean(values(outcomes, m.field), nil)
	case KindVariance:
		out[m.names[0]] = sampleVariance(values(outcomes, m.field))
	case KindMeanAndVariance:
		xs := values(outcomes, m.field)
		if len(xs) < 2 {
			out[m.names[0]] = stat.Mean(xs, nil)
			out[m.names[1]] = math.NaN()
			return
		}
		mean, variance := stat.MeanVariance(xs, nil)
		out[m.names[0]] = mean
		out[m.names[1]] = variance
	case KindQuantile:
		xs := values(outcomes, m.field)
		sort.Float64s(xs)
		out[m.names[0]] = quantile(xs, m.q)
	case KindProbability:
		hits := 0
		for _, o := range outcomes {
			if m.predicate(o) {
				hits++
			}
		}
		out[m.names[0]] = float64(hits) / float64(len(outcomes))
	case KindCustom:
		out[m.names[0]] = m.fn(outcomes)
	default:
		panic("metric: unknown descriptor kind " + m.kind.String())
	}
}

func values[O any](outcomes []O, field func(O) float64) []float64 {
	xs := make([]float64, len(outcomes))
	for i, o := range outcomes {
		xs[i] = field(o)
	}
	return xs
}

// sampleVariance is NaN for fewer than two observations, like the n-1
// estimator it implements.
func sampleVariance(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Variance(xs, nil)
}

// quantile computes the q-quantile using linear interpolation.
// Input must be sorted and non-empty.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := q * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}
