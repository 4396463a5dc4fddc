package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/models/elevation"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/optim"
)

// Experiment is the YAML file read by simulate and optimize.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Experiment struct {
	Seed       *int64            `yaml:"seed"`
	Model      elevation.Config  `yaml:"model"`
	Scenarios  ScenarioConfig    `yaml:"scenarios"`
	Policy     elevation.Policy  `yaml:"policy"`
	Objectives []optim.Objective `yaml:"objectives"`
	Batch      BatchConfig       `yaml:"batch"`
	Seeding    string            `yaml:"seeding"`
	Validation string            `yaml:"validation"`
	Workers    int               `yaml:"workers"`
	Search     SearchConfig      `yaml:"search"`
	Checkpoint string            `yaml:"checkpoint"`
}

// ScenarioConfig sizes and bounds the sampled scenario ensemble.
type ScenarioConfig struct {
	Count              int `yaml:"count"`
	elevation.Ensemble `yaml:",inline"`
}

// BatchConfig selects the batch policy: kind is full, fixed or fraction.
type BatchConfig struct {
	Kind     string  `yaml:"kind"`
	Size     int     `yaml:"size"`
	Fraction float64 `yaml:"fraction"`
	Sampling string  `yaml:"sampling"`
}

// SearchConfig configures the random-search backend.
type SearchConfig struct {
	Iterations int `yaml:"iterations"`
	Population int `yaml:"population"`
	Patience   int `yaml:"patience"`
	Workers    int `yaml:"workers"`
}

// DefaultExperiment is used when no --config is given.
func DefaultExperiment() *Experiment {
	return &Experiment{
		Model: elevation.Config{
			HorizonYears: 50,
			HouseValue:   250_000,
			HouseAreaFt2: 1_500,
			FloorFt:      2,
			DiscountRate: 0.04,
		},
		Scenarios: ScenarioConfig{
			Count: 100,
			Ensemble: elevation.Ensemble{
				SurgeLoc:   elevation.Range{Lo: 2.5, Hi: 4},
				SurgeScale: elevation.Range{Lo: 1, Hi: 2},
				Slr:        elevation.Range{Lo: 0, Hi: 0.03},
			},
		},
		Policy:     elevation.Policy{ElevationFt: 4},
		Objectives: elevation.Objectives(),
		Batch:      BatchConfig{Kind: "fraction", Fraction: 0.5, Sampling: "without-replacement"},
		Search:     SearchConfig{Iterations: 20, Population: 16, Patience: 5},
	}
}

// LoadExperiment reads a YAML experiment file on top of DefaultExperiment.
// Unknown fields are errors.
func LoadExperiment(path string) (*Experiment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading experiment config: %w", err)
	}
	exp := DefaultExperiment()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(exp); err != nil {
		return nil, fmt.Errorf("parsing experiment config %s: %w", path, err)
	}
	return exp, nil
}

// Validate checks the sections that have no constructor of their own.
func (e *Experiment) Validate() error {
	if e.Model.HorizonYears <= 0 {
		return fmt.Errorf("model.horizon_years must be positive, got %d", e.Model.HorizonYears)
	}
	if e.Model.HouseValue < 0 || e.Model.HouseAreaFt2 < 0 {
		return fmt.Errorf("model.house_value and model.house_area_ft2 must be non-negative")
	}
	if e.Model.DiscountRate <= -1 {
		return fmt.Errorf("model.discount_rate must be greater than -1, got %v", e.Model.DiscountRate)
	}
	if e.Scenarios.Count <= 0 {
		return fmt.Errorf("scenarios.count must be positive, got %d", e.Scenarios.Count)
	}
	if err := e.Scenarios.Validate(); err != nil {
		return err
	}
	if e.Workers < 0 || e.Search.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if _, err := e.BatchPolicy(); err != nil {
		return err
	}
	if _, err := e.Options(0); err != nil {
		return err
	}
	return nil
}

// BatchPolicy builds the configured batch policy.
func (e *Experiment) BatchPolicy() (optim.BatchPolicy, error) {
	switch e.Batch.Kind {
	case "", "full":
		return optim.FullBatch(), nil
	case "fixed", "fraction":
	default:
		return optim.BatchPolicy{}, fmt.Errorf("unknown batch.kind %q (valid: full, fixed, fraction)", e.Batch.Kind)
	}
	var sampling optim.Sampling
	switch e.Batch.Sampling {
	case "without-replacement":
		sampling = optim.WithoutReplacement
	case "with-replacement":
		sampling = optim.WithReplacement
	default:
		return optim.BatchPolicy{}, fmt.Errorf("batch.sampling must be without-replacement or with-replacement, got %q", e.Batch.Sampling)
	}
	if e.Batch.Kind == "fixed" {
		return optim.FixedBatch(e.Batch.Size, sampling)
	}
	return optim.FractionBatch(e.Batch.Fraction, sampling)
}

// Options translates seeding, validation and workers into problem options.
func (e *Experiment) Options(seed int64) ([]optim.Option, error) {
	seeding, err := optim.ParseSeedStrategy(e.seedingName())
	if err != nil {
		return nil, err
	}
	mode, err := optim.ParseValidationMode(e.Validation)
	if err != nil {
		return nil, err
	}
	return []optim.Option{
		optim.WithSeed(seed),
		optim.WithSeedStrategy(seeding),
		optim.WithValidationMode(mode),
		optim.WithWorkers(e.Workers),
	}, nil
}

func (e *Experiment) seedingName() string {
	if e.Seeding == "" {
		return optim.CommonRandomNumbers.String()
	}
	return e.Seeding
}
