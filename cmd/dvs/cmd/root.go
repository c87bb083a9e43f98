// Package cmd wires the dvs command-line tool: a thin Cobra/Viper layer
// over pkg/ops, grounded on the teacher's cmd/datamon/cmd for command
// structure and global-flag plumbing.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/dlogger"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "dvs",
	Short: "dvs versions large or sensitive files alongside source control",
	Long: `dvs keeps bulky or sensitive files out of git history while still
versioning them: each file gets a small metadata companion tracked by git,
and its bytes live in content-addressable storage.`,
}

// Execute runs the root command, printing any returned error and exiting
// non-zero, matching the teacher's cmd/datamon/cmd.Execute.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("DVS_LOG_LEVEL", dlogger.LogLevelInfo), "log level: debug, info, or none")
	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
}

func initConfig() {
	viper.SetEnvPrefix("dvs")
	viper.AutomaticEnv()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func logger() *zap.Logger {
	l, err := dlogger.GetLogger(logLevel)
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func osExit(code int) {
	os.Exit(code)
}
