package cmd

import (
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var logLimit int

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the reflog of recorded workspace snapshots",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		entries, err := s.Log(logLimit)
		if err != nil {
			fatal(err)
		}
		for _, e := range entries {
			cmd.Printf("%s %s %s %s -> %s\n",
				color.CyanString(e.Timestamp.Format("2006-01-02T15:04:05Z07:00")),
				color.MagentaString(e.Op),
				e.Actor,
				shortSID(e.OldSID),
				shortSID(e.NewSID),
			)
			if e.Message != "" {
				cmd.Printf("    %s\n", e.Message)
			}
			if len(e.AffectedPaths) > 0 {
				cmd.Printf("    %s\n", strings.Join(e.AffectedPaths, ", "))
			}
		}
	},
}

func shortSID(sid string) string {
	if sid == "" {
		return "-"
	}
	if len(sid) > 12 {
		return sid[:12]
	}
	return sid
}

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().IntVar(&logLimit, "limit", 20, "maximum number of entries to show, most recent first")
}
