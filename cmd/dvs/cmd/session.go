package cmd

import (
	"os"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/ops"
)

func openSession() *ops.Session {
	cwd, err := os.Getwd()
	if err != nil {
		fatal(err)
	}
	s, err := ops.Open(afero.NewOsFs(), cwd)
	if err != nil {
		fatal(err)
	}
	return s.WithLogger(logger())
}
