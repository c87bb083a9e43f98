package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pushRemote string

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload cached objects to the remote HTTP CAS server",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		summary, err := s.Push(context.Background(), pushRemote)
		if err != nil {
			fatal(err)
		}
		for _, r := range summary.Results {
			if r.ErrorDetail != "" {
				fmt.Printf("error  %s: %s\n", r.Oid, r.ErrorDetail)
				continue
			}
			fmt.Printf("%-8s %s\n", r.Outcome, r.Oid)
		}
		fmt.Printf("uploaded=%d present=%d failed=%d\n", summary.Uploaded, summary.Present, summary.Failed)
		if summary.Failed > 0 {
			osExit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(pushCmd)
	pushCmd.Flags().StringVar(&pushRemote, "remote", "", "override the configured remote base URL")
}
