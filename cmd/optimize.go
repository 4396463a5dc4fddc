package cmd

import (
	"errors"
	"io/fs"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/models/elevation"
	"github.com/dossgollin-lab/SimOptDecisions-sub001/sim/optim"
)

// OptimizationReport is printed by optimize.
type OptimizationReport struct {
	Seed           int64              `yaml:"seed"`
	Iterations     int                `yaml:"iterations"`
	Converged      bool               `yaml:"converged"`
	BestPolicy     elevation.Policy   `yaml:"best_policy"`
	BestObjectives map[string]float64 `yaml:"best_objectives"`
	Objectives     []optim.Objective  `yaml:"objectives"`
	Front          []optim.FrontPoint `yaml:"front"`
}

type elevationProblem = optim.Problem[elevation.Config, elevation.Scenario, elevation.Policy, elevation.State, float64, elevation.Record, elevation.Outcome, int]

// optimizeCmd searches elevation heights for the cost/damage trade-off.
var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search elevation policies for the Pareto front of cost and damages",
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, s, err := loadExperiment(cmd)
		if err != nil {
			return err
		}
		report, err := optimize(exp, s)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	},
}

func newProblem(exp *Experiment, seed int64) (*elevationProblem, error) {
	scenarios, err := exp.Scenarios.Sample(exp.Scenarios.Count, sim.NewSimulationKey(seed))
	if err != nil {
		return nil, err
	}
	engine, err := elevation.NewEngine()
	if err != nil {
		return nil, err
	}
	metrics, err := elevation.Metrics()
	if err != nil {
		return nil, err
	}
	batch, err := exp.BatchPolicy()
	if err != nil {
		return nil, err
	}
	opts, err := exp.Options(seed)
	if err != nil {
		return nil, err
	}
	return optim.NewProblem(engine, exp.Model, scenarios, exp.Policy, metrics, exp.Objectives, batch, opts...)
}

func optimize(exp *Experiment, seed int64) (*OptimizationReport, error) {
	problem, err := newProblem(exp, seed)
	if err != nil {
		return nil, err
	}
	search := &optim.RandomSearch{
		Seed:           seed,
		Iterations:     exp.Search.Iterations,
		PopulationSize: exp.Search.Population,
		Patience:       exp.Search.Patience,
		Workers:        exp.Search.Workers,
	}

	if exp.Checkpoint != "" {
		store := optim.FileCheckpointStore{Path: exp.Checkpoint}
		cp, err := store.Load()
		switch {
		case err == nil:
			if search.Resume, err = problem.Resume(cp); err != nil {
				return nil, err
			}
			logrus.Infof("Resuming from checkpoint %s at iteration %d", exp.Checkpoint, cp.Iteration)
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
		search.OnGeneration = func(generation int, state []byte) error {
			return store.Save(problem.Checkpoint(generation, state))
		}
	}

	logrus.Infof("Optimizing over %d scenarios, bounds %v, objectives %v", problem.Scenarios(), problem.Bounds(), problem.ObjectiveList())
	res, err := problem.Optimize(search)
	if err != nil {
		return nil, err
	}
	best, err := res.BestPolicy()
	if err != nil {
		return nil, err
	}
	logrus.Infof("Optimization complete: %d points on the front, best elevation %.2f ft", len(res.Front), best.ElevationFt)
	return &OptimizationReport{
		Seed:           seed,
		Iterations:     res.Iterations,
		Converged:      res.Converged,
		BestPolicy:     best,
		BestObjectives: res.BestObjectives,
		Objectives:     problem.ObjectiveList(),
		Front:          res.Front,
	}, nil
}
