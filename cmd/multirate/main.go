package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/rollingthunder/differential/config"
	"github.com/rollingthunder/differential/multirate"
	"github.com/rollingthunder/differential/multirate/problems"
)

var (
	configFile string
	problem    string
	method     string
	solver     string
	endTime    float64
	stiffness  float64
	bodyCount  uint
	tracePath  string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "multirate",
		Short: "multi-adaptive time-slab ODE driver",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "build and solve one or more time slabs to the problem's end time",
		RunE:  runSolve,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "YAML run configuration (overrides defaults; flags override the file)")
	runCmd.Flags().StringVar(&problem, "problem", "", "decay, oscillator, stiff-pair, or nbody")
	runCmd.Flags().StringVar(&method, "method", "", "cg or dg")
	runCmd.Flags().StringVar(&solver, "solver", "", "default, fixed-point, or newton")
	runCmd.Flags().Float64Var(&endTime, "end", 0, "end time")
	runCmd.Flags().Float64Var(&stiffness, "stiffness", 0, "stiff-pair coefficient")
	runCmd.Flags().UintVar(&bodyCount, "bodies", 0, "nbody body count")
	runCmd.Flags().StringVar(&tracePath, "trace", "", "write an HTML step trace to this path")
	runCmd.Flags().BoolVar(&verbose, "verbose", false, "debug-level logging")

	dumpCmd := &cobra.Command{
		Use:   "dump-config [path]",
		Short: "write the default configuration to a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.Default())
		},
	}

	rootCmd.AddCommand(runCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runSolve(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("problem") {
		cfg.Problem = problem
	}
	if cmd.Flags().Changed("method") {
		cfg.Method = method
	}
	if cmd.Flags().Changed("solver") {
		cfg.Solver = solver
	}
	if cmd.Flags().Changed("end") {
		cfg.ProblemParams.EndTime = endTime
	}
	if cmd.Flags().Changed("stiffness") {
		cfg.ProblemParams.Stiffness = stiffness
	}
	if cmd.Flags().Changed("bodies") {
		cfg.ProblemParams.BodyCount = bodyCount
	}
	if cmd.Flags().Changed("trace") {
		cfg.TracePath = tracePath
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ode, err := buildProblem(cfg)
	if err != nil {
		return err
	}

	ts, err := multirate.NewTimeSlab(ode, cfg.CoreConfig(), logger)
	if err != nil {
		return err
	}

	driverCfg := multirate.DefaultDriverConfig()
	driverCfg.TracePath = cfg.TracePath
	driver := multirate.NewDriver(ts, driverCfg, logger)

	stats, err := driver.Run(context.Background())
	if err != nil {
		return err
	}

	fmt.Printf("steps: %d\n", stats.Steps)
	fmt.Printf("rejections: %d\n", stats.Rejections)
	fmt.Printf("smallest accepted step: %g\n", stats.KMin)
	return nil
}

func buildProblem(cfg *config.Config) (multirate.ODE, error) {
	end := cfg.ProblemParams.EndTime
	if end <= 0 {
		end = 1.0
	}
	switch cfg.Problem {
	case "", "decay":
		return problems.NewDecay(end), nil
	case "oscillator":
		return problems.NewOscillator(end), nil
	case "stiff-pair":
		stiff := cfg.ProblemParams.Stiffness
		if stiff <= 0 {
			stiff = 100.0
		}
		return problems.NewStiffPair(end, stiff), nil
	case "nbody":
		n := cfg.ProblemParams.BodyCount
		if n == 0 {
			n = 4
		}
		return problems.NewNBody(n, end), nil
	default:
		return nil, fmt.Errorf("unknown problem %q", cfg.Problem)
	}
}
