package cmd

import (
	"context"
	"fmt"
	"os"

	units "github.com/docker/go-units"
	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	colorable "github.com/mattn/go-colorable"
	isatty "github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dvs-io/dvs/pkg/ops"
)

var statusCmd = &cobra.Command{
	Use:   "status [patterns...]",
	Short: "Show the sync status of tracked files against their metadata",
	Run: func(cmd *cobra.Command, args []string) {
		s := openSession()
		results, err := s.Status(context.Background(), args)
		if err != nil {
			fatal(err)
		}

		color.NoColor = !isatty.IsTerminal(os.Stdout.Fd())

		table := uitable.New()
		table.MaxColWidth = 80
		table.Wrap = true
		table.AddRow("STATUS", "SIZE", "PATH", "MESSAGE")

		dirty := 0
		for _, r := range results {
			if r.Status == ops.StatusUnsynced {
				dirty++
			}
			table.AddRow(colorizeStatus(r.Status), units.HumanSize(float64(r.Size)), r.RelativePath, r.Message)
		}
		if len(results) == 0 {
			return
		}
		fmt.Fprintln(colorable.NewColorableStdout(), table)
		if dirty > 0 {
			osExit(1)
		}
	},
}

func colorizeStatus(st ops.FileStatus) string {
	switch st {
	case ops.StatusCurrent:
		return color.GreenString(string(st))
	case ops.StatusUnsynced:
		return color.YellowString(string(st))
	case ops.StatusAbsent:
		return color.RedString(string(st))
	default:
		return string(st)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
