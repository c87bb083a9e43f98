package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/dvs-io/dvs/pkg/backend"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/ops"
)

var initOpts struct {
	storageDir     string
	hashAlgo       string
	metadataFormat string
	group          string
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a DVS workspace in the current Git repository",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cwd, err := os.Getwd()
		if err != nil {
			fatal(err)
		}
		b, err := backend.Detect(cwd)
		if err != nil {
			fatal(err)
		}

		algo, ok := oid.ParseAlgo(initOpts.hashAlgo)
		if !ok {
			fatal(fmt.Errorf("unknown hash algorithm %q", initOpts.hashAlgo))
		}

		cfg, err := ops.Init(afero.NewOsFs(), b, ops.InitOptions{
			StorageDir:     initOpts.storageDir,
			HashAlgo:       algo,
			MetadataFormat: initOpts.metadataFormat,
			Group:          initOpts.group,
		})
		if err != nil {
			fatal(err)
		}
		fmt.Printf("initialized dvs workspace, storage at %s\n", cfg.StorageDir)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&initOpts.storageDir, "storage-dir", "", "directory (or s3://, gs:// URI) holding object bytes")
	initCmd.Flags().StringVar(&initOpts.hashAlgo, "hash-algo", string(oid.Blake3), "hash algorithm: blake3, sha256, xxh3")
	initCmd.Flags().StringVar(&initOpts.metadataFormat, "metadata-format", "toml", "per-file metadata format: toml or json")
	initCmd.Flags().StringVar(&initOpts.group, "group", "", "unix group to own storage-dir contents")
	_ = initCmd.MarkFlagRequired("storage-dir")
}
