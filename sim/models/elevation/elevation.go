// Package elevation models the decision to raise a house above expected
// storm-surge levels. Each year draws an annual maximum surge from a Gumbel
// distribution whose location rises with sea level; damage follows a
// depth-damage curve and is discounted to present value. Elevating costs
// money up front and lowers future damage, which gives the two objectives
// their trade-off.
package elevation

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
)

// Config holds the house and the accounting horizon.
type Config struct {
	HorizonYears int     `yaml:"horizon_years"`
	HouseValue   float64 `yaml:"house_value"`
	HouseAreaFt2 float64 `yaml:"house_area_ft2"`
	// FloorFt is the height of the lowest floor above the gauge datum
	// before any elevation.
	FloorFt      float64 `yaml:"floor_ft"`
	DiscountRate float64 `yaml:"discount_rate"`
}

// Scenario is one plausible future for surge and sea level.
type Scenario struct {
	SurgeLoc   float64 `yaml:"surge_loc"`
	SurgeScale float64 `yaml:"surge_scale"`
	// Slr is sea-level rise in ft per year.
	Slr float64 `yaml:"slr"`
}

// Policy is how far to elevate the house, decided once at the start.
type Policy struct {
	ElevationFt float64 `param:"0,14" yaml:"elevation_ft"`
}

// State tracks the last simulated year.
type State struct {
	Year int
}

// Record is one simulated year.
type Record struct {
	Year        int
	ElevationFt float64
	SurgeFt     float64
	DamageUSD   float64
}

// Outcome summarizes one scenario run.
type Outcome struct {
	UpfrontCost float64
	NPVDamages  float64
	TotalCost   float64
	Flooded     bool
}

// MaxElevationFt is the highest elevation the cost curve covers.
const MaxElevationFt = 14

// Elevation cost: a fixed fee plus a per-ft² rate that grows with height.
const elevationFixedCost = 20745

var (
	costHeights = []float64{0, 5, 8.5, 12, MaxElevationFt}
	costRates   = []float64{80.36, 80.36, 82.5, 86.25, 103.75}

	// Depth (ft of water above the floor) against fraction of house value lost.
	damageDepths    = []float64{0, 1, 2, 4, 8, 12}
	damageFractions = []float64{0, 0.15, 0.25, 0.40, 0.60, 0.75}
)

// Model implements sim.Model and sim.ActionSource. Construct it with New.
type Model struct {
	rate   interp.PiecewiseLinear
	damage interp.PiecewiseLinear
}

// New fits the cost and damage curves.
func New() (*Model, error) {
	m := &Model{}
	if err := m.rate.Fit(costHeights, costRates); err != nil {
		return nil, err
	}
	if err := m.damage.Fit(damageDepths, damageFractions); err != nil {
		return nil, err
	}
	return m, nil
}

// Engine is the engine type for this model.
type Engine = sim.Engine[Config, Scenario, Policy, State, float64, Record, Outcome, int]

// NewEngine builds a model and wraps it in an engine.
func NewEngine() (*Engine, error) {
	m, err := New()
	if err != nil {
		return nil, err
	}
	return sim.NewEngine[Config, Scenario, Policy, State, float64, Record, Outcome, int](m)
}

// TimeAxis runs years 1..HorizonYears.
func (m *Model) TimeAxis(cfg Config, _ Scenario) (sim.TimeAxis[int], error) {
	return sim.Range(1, cfg.HorizonYears)
}

// Initialize starts before year one.
func (m *Model) Initialize(Config, Scenario, *rand.Rand) State { return State{} }

// GetAction applies the fixed elevation every year.
func (m *Model) GetAction(p Policy, _ State, _ sim.TimeStep[int], _ Scenario) float64 {
	return p.ElevationFt
}

// RunTimestep draws the year's maximum surge and the resulting damage.
func (m *Model) RunTimestep(s State, elevationFt float64, t sim.TimeStep[int], cfg Config, sc Scenario, rng *rand.Rand) (State, Record, error) {
	if sc.SurgeScale <= 0 {
		return s, Record{}, &sim.ValidationError{What: "scenario", Reason: fmt.Sprintf("surge scale must be positive, got %v", sc.SurgeScale)}
	}
	surge := distuv.GumbelRight{Mu: sc.SurgeLoc + sc.Slr*float64(t.Value), Beta: sc.SurgeScale}.Quantile(uniform(rng))
	depth := surge - (cfg.FloorFt + elevationFt)
	return State{Year: t.Value}, Record{
		Year:        t.Value,
		ElevationFt: elevationFt,
		SurgeFt:     surge,
		DamageUSD:   cfg.HouseValue * m.DamageFraction(depth),
	}, nil
}

// ComputeOutcome discounts damages and adds the elevation cost.
func (m *Model) ComputeOutcome(records []Record, cfg Config, _ Scenario) Outcome {
	var o Outcome
	if len(records) > 0 {
		o.UpfrontCost = m.ElevationCost(records[0].ElevationFt, cfg.HouseAreaFt2)
	}
	for _, r := range records {
		if r.DamageUSD > 0 {
			o.Flooded = true
		}
		o.NPVDamages += r.DamageUSD / math.Pow(1+cfg.DiscountRate, float64(r.Year))
	}
	o.TotalCost = o.UpfrontCost + o.NPVDamages
	return o
}

// ElevationCost is the cost in USD of raising a house of the given area by
// heightFt. Heights are clamped to [0, MaxElevationFt].
func (m *Model) ElevationCost(heightFt, areaFt2 float64) float64 {
	if heightFt <= 0 {
		return 0
	}
	h := math.Min(heightFt, MaxElevationFt)
	return elevationFixedCost + areaFt2*m.rate.Predict(h)
}

// DamageFraction is the share of house value lost to depthFt of water above
// the floor.
func (m *Model) DamageFraction(depthFt float64) float64 {
	if depthFt <= 0 {
		return 0
	}
	last := damageDepths[len(damageDepths)-1]
	return m.damage.Predict(math.Min(depthFt, last))
}

// uniform draws from (0, 1) so the Gumbel quantile stays finite.
func uniform(rng *rand.Rand) float64 {
	for {
		if u := rng.Float64(); u > 0 {
			return u
		}
	}
}
