package commands

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func newWatchCommand() *cobra.Command {
	var maxSteps int
	var maxChoices int

	cmd := &cobra.Command{
		Use:   "watch MODEL",
		Short: "Re-solve the model whenever its file changes on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, args[0], maxSteps, maxChoices)
		},
	}
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0, "search step budget per run (0 = unlimited)")
	cmd.Flags().IntVar(&maxChoices, "max-choices", 0, "cap on choices enumerated per decision")
	return cmd
}

func runWatch(cmd *cobra.Command, modelPath string, maxSteps, maxChoices int) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return usageErr("watch: %v", err)
	}
	defer watcher.Close()

	// Watch the directory, not the file: editors replace files by
	// rename, which drops a direct file watch.
	if err := watcher.Add(filepath.Dir(modelPath)); err != nil {
		return usageErr("watch %s: %v", modelPath, err)
	}

	solveOnce := func() {
		if err := runSolve(cmd, modelPath, maxSteps, maxChoices); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "solve: %v\n", err)
		}
	}
	solveOnce()

	target := filepath.Clean(modelPath)
	for {
		select {
		case <-cmd.Context().Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "-- %s changed, re-solving --\n", modelPath)
				solveOnce()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "watch: %v\n", err)
		}
	}
}
