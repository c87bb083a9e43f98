package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dvs-io/dvs/pkg/ops"
)

var getCmd = &cobra.Command{
	Use:   "get [patterns...]",
	Short: "Materialize tracked files from the cache or remote storage",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		results, err := s.Get(context.Background(), args)
		if err != nil {
			fatal(err)
		}
		exitCode := 0
		for _, r := range results {
			if r.Outcome == ops.OutcomeError {
				fmt.Printf("error  %s: %s: %s\n", r.RelativePath, r.ErrorKind, r.ErrorDetail)
				exitCode = 1
				continue
			}
			fmt.Printf("%-8s %s\n", r.Outcome, r.RelativePath)
		}
		if exitCode != 0 {
			osExit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
}
