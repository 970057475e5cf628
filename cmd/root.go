package cmd

import (
	"os"
	"sort"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/grow-assistant/swoop-delivery/sim"
)

var (
	// CLI flags for scenario selection and overrides
	preset       string  // Named scenario preset
	scenarioFile string  // YAML scenario file, overrides the preset
	strategy     string  // Dispatch strategy name
	seed         int64   // RNG seed; same seed + config = identical run
	durationMin  float64 // Simulation horizon in minutes
	numCarts     int     // Beverage carts (0-2)
	numStaff     int     // Delivery staff
	logLevel     string  // Log verbosity level
	traceOut     string  // Write the event trace to this file
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "swoop-sim",
	Short: "Discrete-event simulator for on-course delivery dispatch",
}

// loadConfig resolves the scenario from flags: file beats preset, and
// explicit flag overrides beat both.
func loadConfig(cmd *cobra.Command) (sim.ScenarioConfig, error) {
	var cfg sim.ScenarioConfig
	var err error
	if scenarioFile != "" {
		cfg, err = sim.LoadScenario(scenarioFile)
	} else {
		cfg, err = sim.Preset(preset)
	}
	if err != nil {
		return cfg, err
	}
	if cmd.Flags().Changed("strategy") {
		cfg.Strategy = strategy
	}
	if cmd.Flags().Changed("seed") {
		cfg.RNGSeed = seed
	}
	if cmd.Flags().Changed("duration") {
		cfg.SimulationDurationMin = durationMin
	}
	if cmd.Flags().Changed("carts") {
		cfg.NumBeverageCarts = numCarts
	}
	if cmd.Flags().Changed("staff") {
		cfg.NumDeliveryStaff = numStaff
	}
	return cfg, cfg.Validate()
}

// runCmd executes one simulation and prints the KPI report.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one dispatch simulation",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("scenario: %v", err)
		}
		if cfg.DetailedLogging && !cmd.Flags().Changed("log") {
			logrus.SetLevel(logrus.DebugLevel)
		}
		logrus.Infof("Starting simulation: strategy=%s seed=%d duration=%.0fmin carts=%d staff=%d",
			cfg.Strategy, cfg.RNGSeed, cfg.SimulationDurationMin, cfg.NumBeverageCarts, cfg.NumDeliveryStaff)

		s, err := sim.NewSimulator(cfg)
		if err != nil {
			logrus.Fatalf("simulator: %v", err)
		}
		if err := s.Run(); err != nil {
			logrus.Fatalf("run: %v", err)
		}
		sim.RenderReport(os.Stdout, s.Report())

		if traceOut != "" {
			f, err := os.Create(traceOut)
			if err != nil {
				logrus.Fatalf("trace: %v", err)
			}
			defer f.Close()
			if _, err := s.Trace().WriteTo(f); err != nil {
				logrus.Fatalf("trace: %v", err)
			}
			logrus.Infof("Event trace written to %s", traceOut)
		}
		logrus.Info("Simulation complete.")
	},
}

// compareCmd runs the same scenario under every strategy in parallel and
// prints one comparison row per strategy.
var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Run the scenario under every dispatch strategy",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		base, err := loadConfig(cmd)
		if err != nil {
			logrus.Fatalf("scenario: %v", err)
		}

		names := sim.StrategyNames()
		reports := make([]*sim.KPIReport, len(names))
		var g errgroup.Group
		for i, name := range names {
			i, name := i, name
			g.Go(func() error {
				cfg := base
				cfg.Strategy = name
				s, err := sim.NewSimulator(cfg)
				if err != nil {
					return err
				}
				if err := s.Run(); err != nil {
					return err
				}
				reports[i] = s.Report()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			logrus.Fatalf("compare: %v", err)
		}

		sort.Slice(reports, func(i, j int) bool {
			return reports[i].AvgDeliveryMin < reports[j].AvgDeliveryMin
		})
		sim.RenderComparison(os.Stdout, reports)
	},
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	for _, c := range []*cobra.Command{runCmd, compareCmd} {
		c.Flags().StringVar(&preset, "preset", "default", "Scenario preset (default, high_volume, rush_hour, efficiency_test)")
		c.Flags().StringVar(&scenarioFile, "scenario", "", "YAML scenario file (overrides --preset)")
		c.Flags().StringVar(&strategy, "strategy", "", "Dispatch strategy override")
		c.Flags().Int64Var(&seed, "seed", 42, "Seed for random order generation")
		c.Flags().Float64Var(&durationMin, "duration", 240, "Simulation horizon in minutes")
		c.Flags().IntVar(&numCarts, "carts", 2, "Number of beverage carts (0-2)")
		c.Flags().IntVar(&numStaff, "staff", 3, "Number of delivery staff")
		c.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
	}
	runCmd.Flags().StringVar(&traceOut, "trace-out", "", "Write the event trace to this file")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(compareCmd)
}
