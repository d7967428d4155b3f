package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	deorbit "github.com/TenessyD/MGA802-projet-final"
	"github.com/TenessyD/MGA802-projet-final/internal/observability"
)

var (
	scenarioFile string
	runBaseline  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the decay scenario of a configuration file",
	Long: `Runs a decay scenario (YAML or TOML) and reports the decay time in days.

Any scenario key may be overridden from the environment, e.g. DEORBIT_ORBIT_ALTITUDE=250000.

Examples:
  deorbit run --scenario scenario.yaml
  deorbit run --scenario scenario.yaml --approach energetic --baseline --trace decay.csv`,
	RunE: runDecay,
}

var runFlagKeys = map[string]string{
	"approach":   "approach",
	"projection": "field.projection",
	"trace":      "output.trace",
	"format":     "output.format",
	"max-steps":  "run.max_steps",
	"wall-clock": "run.wall_clock",
}

func init() {
	flags := runCmd.Flags()
	flags.StringVarP(&scenarioFile, "scenario", "s", "", "scenario file (yaml or toml)")
	flags.BoolVar(&runBaseline, "baseline", false, "also run the scenario without tether for comparison")
	flags.String("approach", "", "numerical approach: energetic or pfd")
	flags.String("projection", "", "tangential field projection: sincos or cossin")
	flags.String("trace", "", "write the decay trace to this file")
	flags.String("format", "", "trace columns: radius or full")
	flags.Uint64("max-steps", deorbit.DefaultMaxSteps, "maximum number of integration steps")
	flags.Duration("wall-clock", 0, "maximum wall clock duration of a run (0 for none)")
}

func runDecay(cmd *cobra.Command, args []string) error {
	v := deorbit.NewViper()
	keys := make(map[string]string)
	for flag, key := range runFlagKeys {
		if cmd.Flags().Changed(flag) {
			keys[flag] = key
		}
	}
	if err := bindFlags(cmd, v, keys); err != nil {
		return err
	}
	scenario, err := readScenario(v, scenarioFile)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	shutdown, err := observability.InitTracing(ctx, observability.TracingConfigFromEnv(), logger)
	if err != nil {
		return err
	}
	defer observability.ShutdownWithTimeout(context.Background(), shutdown, logger)

	// The field is shared with the baseline run.
	var field deorbit.FieldSampler = deorbit.WMM2025Dipole
	if scenario.Memoize {
		field = deorbit.NewMemoizedField(field, 0)
	}
	result, decay, err := runScenario(ctx, scenario, field)
	if err != nil {
		return err
	}
	budget := decay.Satellite().MassBudget()
	logger.Log("level", "info", "subsys", "decay", "budget", budget)
	fmt.Fprintf(cmd.OutOrStdout(), "%s deorbit time: %.4f days (%d steps)\n", result.Approach, result.Days, result.Steps)

	if scenario.TraceFile != "" {
		if err := deorbit.SaveTrace(scenario.TraceFile, result.Trace, scenario.TraceFormat); err != nil {
			return fmt.Errorf("saving trace: %w", err)
		}
		logger.Log("level", "info", "subsys", "decay", "trace", scenario.TraceFile, "rows", result.Trace.Len())
	}

	if runBaseline && scenario.Tether != nil {
		baseline, _, err := runScenario(ctx, scenario.Baseline(), field)
		if err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "without tether: %.4f days\n", baseline.Days)
		if result.Days > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "tether speed up: x%.1f\n", baseline.Days/result.Days)
		}
	}
	return nil
}

func runScenario(ctx context.Context, scenario *deorbit.Scenario, field deorbit.FieldSampler) (*deorbit.Result, *deorbit.Decay, error) {
	decay, err := scenario.NewDecay(field, deorbit.WithLogger(logger))
	if err != nil {
		return nil, nil, err
	}
	logger.Log("level", "info", "subsys", "decay", "satellite", decay.Satellite(), "v0(m/s)", scenario.Constants.KeplerVelocity(scenario.Orbit.Radius(scenario.Constants)))
	result, err := observability.RunDecay(ctx, scenario, decay, nil)
	return result, decay, err
}
