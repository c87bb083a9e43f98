package ops

import (
	"context"
	"io"
	"os"
	"os/user"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/hashengine"
	"github.com/dvs-io/dvs/pkg/model"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage"
)

// actorName resolves the name recorded in reflog entries and metadata's
// saved_by field, preferring the OS user, falling back to "unknown".
func actorName() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return "unknown"
}

// atomicWrite writes data to path via a temp file in the same directory
// followed by a rename, the teacher's copy-then-rename idiom applied to
// whole-file writes instead of streamed object puts.
func atomicWrite(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", dir).WithPath(dir).Wrap(err)
	}
	tmp, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating temp file in %s", dir).WithPath(dir).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = fs.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return dvserrors.Newf(dvserrors.KindIOError, "writing %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "closing %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "chmod %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "renaming %s to %s", tmpName, path).WithPath(path).Wrap(err)
	}
	return nil
}

// copyFileAtomic copies src to dst via a temp file in dst's directory and
// a rename, applying perm to the final file. Used for working-tree <->
// cache transfers where data never needs to pass through a Store.
func copyFileAtomic(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "opening %s", src).WithPath(src).Wrap(err)
	}
	defer in.Close()

	dir := filepath.Dir(dst)
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", dir).WithPath(dir).Wrap(err)
	}
	tmp, err := afero.TempFile(fs, dir, ".tmp-*")
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating temp file in %s", dir).WithPath(dir).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = fs.Remove(tmpName) }()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		return dvserrors.Newf(dvserrors.KindIOError, "copying to %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "closing %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	_ = fs.Chmod(tmpName, perm)
	if err := fs.Rename(tmpName, dst); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "renaming %s to %s", tmpName, dst).WithPath(dst).Wrap(err)
	}
	return nil
}

// sameLength reports whether path exists with exactly size bytes, used to
// decide whether a copy into an existing destination may be skipped.
func sameLength(fs afero.Fs, path string, size uint64) bool {
	info, err := fs.Stat(path)
	return err == nil && !info.IsDir() && uint64(info.Size()) == size
}

// defaultFilePerm is applied when Config.Permissions is unset.
const defaultFilePerm = os.FileMode(0o660)

func configPerm(cfg *model.Config) os.FileMode {
	if cfg.Permissions == nil {
		return defaultFilePerm
	}
	return os.FileMode(*cfg.Permissions)
}

// hashFile hashes the file at path on fs under algo. For the production
// afero.NewOsFs(), hashengine.HashFile's mmap/buffered split applies
// directly; for any other afero.Fs (MemMapFs in tests) it falls back to
// a buffered streaming hash over the afero-opened reader.
func hashFile(fs afero.Fs, path string, algo oid.Algo) (string, error) {
	if _, ok := fs.(*afero.OsFs); ok {
		return hashengine.HashFile(path, algo)
	}
	f, err := fs.Open(path)
	if err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "opening %s", path).WithPath(path).Wrap(err)
	}
	defer f.Close()
	return hashengine.HashReader(f, algo)
}

// storeGet copies the bytes of id from store to dest on fs via
// temp-then-rename, re-verifying the hash of the copied bytes against id.
func storeGet(ctx context.Context, store storage.Store, fs afero.Fs, id oid.Oid, dest string, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	if err := fs.MkdirAll(dir, 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", dir).WithPath(dir).Wrap(err)
	}
	tmp, err := afero.TempFile(fs, dir, ".get-*")
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating temp file in %s", dir).WithPath(dir).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = fs.Remove(tmpName) }()

	if err := store.Get(ctx, id, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "closing %s", tmpName).WithPath(tmpName).Wrap(err)
	}

	got, err := hashFile(fs, tmpName, id.Algo)
	if err != nil {
		return err
	}
	if got != id.Hex {
		_ = fs.Remove(tmpName)
		return dvserrors.Newf(dvserrors.KindIntegrityError, "downloaded content for %s hashes to %s", id, got).WithPath(dest)
	}

	_ = fs.Chmod(tmpName, perm)
	if err := fs.Rename(tmpName, dest); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "renaming %s to %s", tmpName, dest).WithPath(dest).Wrap(err)
	}
	return nil
}
