package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var materializeCmd = &cobra.Command{
	Use:   "materialize",
	Short: "Copy cached objects into their working-tree locations",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		summary, err := s.Materialize()
		if err != nil {
			fatal(err)
		}
		for _, r := range summary.Results {
			if r.ErrorDetail != "" {
				fmt.Printf("error  %s: %s\n", r.Path, r.ErrorDetail)
				continue
			}
			if r.Materialized {
				fmt.Printf("materialized %s\n", r.Path)
			}
		}
		fmt.Printf("materialized=%d up_to_date=%d failed=%d\n", summary.Materialized, summary.UpToDate, summary.Failed)
		if summary.Failed > 0 {
			osExit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(materializeCmd)
}
