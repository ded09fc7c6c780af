package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/gokando/tempnet/internal/config"
	"github.com/gokando/tempnet/internal/decision"
	"github.com/gokando/tempnet/internal/engine"
	"github.com/gokando/tempnet/internal/plandb"
	"github.com/gokando/tempnet/internal/search"
	"github.com/gokando/tempnet/internal/stn"
	"github.com/gokando/tempnet/internal/telemetry"
)

func newSolveCommand() *cobra.Command {
	var maxSteps int
	var maxChoices int

	cmd := &cobra.Command{
		Use:   "solve MODEL",
		Short: "Solve a model file and report the plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd, args[0], maxSteps, maxChoices)
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "search step budget (0 = unlimited)")
	cmd.Flags().IntVar(&maxChoices, "max-choices", 0, "cap on choices enumerated per decision")
	return cmd
}

func runSolve(cmd *cobra.Command, modelPath string, maxSteps, maxChoices int) error {
	log := newLogger()

	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return usageErr("config: %v", err)
		}
	}
	if maxChoices > 0 {
		cfg.MaxChoices = maxChoices
	}

	model, err := LoadModel(modelPath)
	if err != nil {
		return &ExitError{Code: ExitModelLoad, Msg: err.Error()}
	}

	eng := engine.New(cfg.Engine(), log)
	stn.Install(eng, 5)
	metrics := telemetry.NewMetrics(cfg.Metrics)
	eng.SetObserver(metrics)
	pdb := plandb.New(eng, log, nil)

	vars, err := model.Build(pdb)
	if err != nil {
		return &ExitError{Code: ExitModelLoad, Msg: err.Error()}
	}

	mgr := decision.NewManager(pdb, nil, log, metrics)
	drv := search.NewDriver(pdb, mgr, log, metrics)
	drv.SetAbort(func() bool { return cmd.Context().Err() != nil })

	drv.InitRun(maxSteps)
	steps := drv.CompleteRun()
	status := drv.GetStatus()

	report(cmd, status, steps, vars)

	switch status {
	case search.PlanFound:
		return nil
	case search.TimeoutReached:
		return &ExitError{Code: ExitTimeout, Msg: "step budget exhausted"}
	default:
		return &ExitError{Code: ExitExhausted, Msg: "search exhausted without a plan"}
	}
}

func report(cmd *cobra.Command, status search.Status, steps int, vars map[string]*engine.Variable) {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	if jsonOutput {
		out := map[string]any{"status": status.String(), "steps": steps}
		assignment := map[string]string{}
		for _, name := range names {
			assignment[name] = vars[name].Derived().String()
		}
		out["assignment"] = assignment
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}

	fmt.Fprintf(cmd.OutOrStdout(), "status: %s (%d steps)\n", status, steps)
	for _, name := range names {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s = %s\n", name, vars[name].Derived())
	}
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		level = zerolog.DebugLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}
