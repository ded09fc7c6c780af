// Package commands implements the tempnet CLI: a batch front end over
// the constraint engine, plan database, and search driver.
package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool
	jsonOutput bool
)

// Exit codes, per the external-interface contract: 0 solved, 1 usage
// error, 2 model-load error, 3 search exhausted, 4 timeout.
const (
	ExitSolved    = 0
	ExitUsage     = 1
	ExitModelLoad = 2
	ExitExhausted = 3
	ExitTimeout   = 4
)

// ExitError carries a process exit code through cobra's error return.
type ExitError struct {
	Code int
	Msg  string
}

func (e *ExitError) Error() string { return e.Msg }

// ExitCode maps a command error to the process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSolved
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return ExitUsage
}

// Execute runs the root command.
func Execute(ctx context.Context, version string) error {
	return newRootCommand(version).ExecuteContext(ctx)
}

func newRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tempnet",
		Short: "tempnet - constraint-based temporal planner core",
		Long: `tempnet solves constraint models with temporal extensions: typed
variables over interval and enumerated domains, a bounds-consistent
constraint library, a simple-temporal-network propagator, and a
plan-refinement search driver over tokens, timelines, and resources.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "engine config file (YAML)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output results in JSON format")

	rootCmd.AddCommand(newSolveCommand())
	rootCmd.AddCommand(newWatchCommand())

	return rootCmd
}

func usageErr(format string, args ...any) error {
	return &ExitError{Code: ExitUsage, Msg: fmt.Sprintf(format, args...)}
}
