package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var pullRemote string

var pullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Download missing objects from the remote HTTP CAS server into the cache",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		summary, err := s.Pull(context.Background(), pullRemote)
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
		fmt.Printf("downloaded=%d present=%d failed=%d\n", summary.Uploaded, summary.Present, summary.Failed)
		if summary.Failed > 0 {
			osExit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(pullCmd)
	pullCmd.Flags().StringVar(&pullRemote, "remote", "", "override the configured remote base URL")
}
