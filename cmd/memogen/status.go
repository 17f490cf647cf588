package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/memogen/internal/status"
)

var flagStatusVersion string

var statusCmd = &cobra.Command{
	Use:   "status [company]",
	Short: "Show run progress for one company or the whole store",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&flagStatusVersion, "run-version", "", "run version to inspect (default: latest)")
}

func runStatus(_ *cobra.Command, args []string) error {
	st := memoStore()

	if len(args) == 1 {
		rs, err := status.GetRunStatus(st, args[0], flagStatusVersion)
		if err != nil {
			return err
		}
		printRunStatus(rs)
		return nil
	}

	runs, err := status.ListRuns(st)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No memo runs found.")
		fmt.Println("Run 'memogen generate <company>' to start one.")
		return nil
	}
	for i, rs := range runs {
		if i > 0 {
			fmt.Println()
		}
		printRunStatus(rs)
	}
	return nil
}

func printRunStatus(rs *status.RunStatus) {
	fmt.Printf("%s %s\n", rs.Company, rs.Version)
	for _, a := range rs.Artifacts {
		marker := "  "
		label := "pending"
		if a.Present {
			marker = "✓ "
			label = a.File
		}
		fmt.Printf("  %s%-16s %s\n", marker, a.Name, label)
	}
	switch {
	case rs.Escalated:
		fmt.Printf("  escalated to human review after %d revision passes\n", rs.Revisions)
	case rs.Finalized:
		fmt.Println("  finalized")
	case rs.NextStage != "":
		fmt.Printf("  next stage: %s\n", rs.NextStage)
	}
}
