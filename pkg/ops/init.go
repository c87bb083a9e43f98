package ops

import (
	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/backend"
	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/layout"
	"github.com/dvs-io/dvs/pkg/model"
	"github.com/dvs-io/dvs/pkg/oid"
)

// InitOptions configures a call to Init.
type InitOptions struct {
	StorageDir     string
	Permissions    *uint32
	Group          string
	HashAlgo       oid.Algo
	MetadataFormat string
}

// Init creates or validates an empty DVS workspace, grounded on
// init.rs's init_with_backend: resolve the storage directory, compare
// against any existing config, and write it if new. Per-file ignore
// patterns are registered by Add (§9 Open Question resolution: only a
// data file's own name is ever added to the ignore file, never a blanket
// *.dvs/*.dvs.toml pattern).
func Init(fs afero.Fs, b backend.RepoBackend, opts InitOptions) (*model.Config, error) {
	root := b.Root()
	l := layout.New(fs, root)

	if err := setupStorageDirectory(fs, opts.StorageDir); err != nil {
		return nil, err
	}
	if err := l.Init(); err != nil {
		return nil, dvserrors.Newf(dvserrors.KindIOError, "creating %s", l.DVSDir()).Wrap(err)
	}

	cfg := model.NewConfig(opts.StorageDir, opts.HashAlgo, opts.MetadataFormat)
	cfg.Permissions = opts.Permissions
	cfg.Group = opts.Group

	format := model.ConfigFormatTOML
	path := root + "/" + model.ConfigFilename(format)

	if data, err := afero.ReadFile(fs, path); err == nil {
		existing, err := model.UnmarshalConfig(data, format)
		if err != nil {
			return nil, dvserrors.New(dvserrors.KindConfigMismatch).WithPath(path).Wrap(err)
		}
		if !existing.Equivalent(cfg) {
			return nil, dvserrors.New(dvserrors.KindConfigMismatch).WithPath(path)
		}
		return existing, nil
	}

	data, err := cfg.Marshal(format)
	if err != nil {
		return nil, err
	}
	if err := atomicWrite(fs, path, data, 0o660); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupStorageDirectory creates storageDir (and its parents) if missing,
// failing storage_dir_invalid if the path exists as a non-directory.
func setupStorageDirectory(fs afero.Fs, storageDir string) error {
	info, err := fs.Stat(storageDir)
	if err == nil {
		if !info.IsDir() {
			return dvserrors.New(dvserrors.KindStorageDirInvalid).WithPath(storageDir)
		}
		return nil
	}
	if err := fs.MkdirAll(storageDir, 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", storageDir).WithPath(storageDir).Wrap(err)
	}
	return nil
}
