package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvs-io/dvs/pkg/ops"
)

var rollbackOpts struct {
	force       bool
	materialize bool
}

var rollbackCmd = &cobra.Command{
	Use:   "rollback <sid>",
	Short: "Restore tracked metadata (and optionally data) to a prior reflog snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		result, err := s.Rollback(context.Background(), args[0], ops.RollbackOptions{
			Force:       rollbackOpts.force,
			Materialize: rollbackOpts.materialize,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("rolled back to %s\n", shortSID(result.TargetSID))
		for _, p := range result.RestoredPaths {
			fmt.Printf("restored %s\n", p)
		}
		for _, p := range result.RemovedPaths {
			fmt.Printf("removed  %s\n", p)
		}
		for _, p := range result.MaterializedOK {
			fmt.Printf("materialized %s\n", p)
		}
		for _, p := range result.MaterializedFail {
			fmt.Printf("materialize failed %s\n", p)
		}
	},
}

func init() {
	rootCmd.AddCommand(rollbackCmd)
	rollbackCmd.Flags().BoolVar(&rollbackOpts.force, "force", false, "rollback even if the worktree has unsynced files")
	rollbackCmd.Flags().BoolVar(&rollbackOpts.materialize, "materialize", false, "also restore working-tree data files, not just metadata")
}
