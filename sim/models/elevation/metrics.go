package elevation

import (
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/metric"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/optim"
)

// Metric names produced by Metrics.
const (
	MetricUpfrontCost      = "upfront_cost"
	MetricExpectedDamages  = "expected_npv_damages"
	MetricDamagesP95       = "npv_damages_p95"
	MetricExpectedTotal    = "expected_total_cost"
	MetricTotalVariance    = "total_cost_variance"
	MetricFloodProbability = "flood_probability"
)

// Metrics is the standard metric set for the model.
func Metrics() (*metric.Set[Outcome], error) {
	damages, err := metric.Field[Outcome]("NPVDamages")
	if err != nil {
		return nil, err
	}
	p95, err := metric.Quantile(MetricDamagesP95, damages, 0.95)
	if err != nil {
		return nil, err
	}
	return metric.NewSet(
		metric.ExpectedValue(MetricUpfrontCost, func(o Outcome) float64 { return o.UpfrontCost }),
		metric.ExpectedValue(MetricExpectedDamages, damages),
		p95,
		metric.MeanAndVariance(MetricExpectedTotal, MetricTotalVariance, func(o Outcome) float64 { return o.TotalCost }),
		metric.Probability(MetricFloodProbability, func(o Outcome) bool { return o.Flooded }),
	)
}

// Objectives trades up-front cost against expected damages. Flood
// probability is carried along but not optimized.
func Objectives() []optim.Objective {
	return []optim.Objective{
		optim.Minimizing(MetricUpfrontCost),
		optim.Minimizing(MetricExpectedDamages),
		{Name: MetricFloodProbability, Direction: optim.Ignore},
	}
}
