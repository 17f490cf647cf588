package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/memogen/internal/citations"
	"github.com/dusk-indust/memogen/internal/store"
)

var assembleCmd = &cobra.Command{
	Use:   "assemble <company> [version]",
	Short: "Consolidate a run's sections into the final draft",
	Long: `Re-run citation consolidation over a run's section files and rewrite the
final draft. Use after hand-editing sections. Fails when any section
references a citation it does not define.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runAssemble,
}

func runAssemble(_ *cobra.Command, args []string) error {
	version := ""
	if len(args) > 1 {
		version = args[1]
	}

	run, err := memoStore().OpenRun(args[0], version)
	if err != nil {
		return err
	}
	result, err := citations.AssembleRun(run)
	if err != nil {
		if errors.Is(err, citations.ErrIntegrity) && result != nil {
			for _, issue := range result.Issues {
				fmt.Println("  " + issue.Message)
			}
		}
		return err
	}

	for _, issue := range result.Issues {
		fmt.Println("warning: " + issue.Message)
	}
	fmt.Printf("Assembled %s with %d citations.\n", run.Path(store.FinalDraft), len(result.Citations))
	return nil
}
