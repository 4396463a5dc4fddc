package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags shared by all subcommands
	configPath string // Experiment YAML file
	seed       int64  // Master seed for scenario sampling and simulation
	logLevel   string // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:           "simopt",
	Short:         "Scenario simulation and multi-objective policy search",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

// loadExperiment reads --config (or the defaults) and applies --seed. An
// explicit --seed wins over the file's seed.
func loadExperiment(cmd *cobra.Command) (*Experiment, int64, error) {
	exp := DefaultExperiment()
	if configPath != "" {
		var err error
		if exp, err = LoadExperiment(configPath); err != nil {
			return nil, 0, err
		}
	}
	if err := exp.Validate(); err != nil {
		return nil, 0, err
	}
	s := seed
	if exp.Seed != nil && !cmd.Flags().Changed("seed") {
		s = *exp.Seed
	}
	return exp, s, nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Experiment YAML file (defaults are used when empty)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 42, "Master seed for scenario sampling and simulation")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(optimizeCmd)
}
