// Package localfs implements storage.Store over an afero filesystem,
// laid out as {root}/{algo}/{hex[0:2]}/{hex[2:]} (§4.1 storage path).
//
// Grounded on the teacher's pkg/storage/localfs: the afero.Fs wrapping for
// testability and the temp-file-then-rename idiom of its NewAtomic/Rename
// helpers, narrowed to the oid-keyed Store capability and made idempotent
// by construction rather than by an opt-in wrapper.
package localfs

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage"
)

// Store is a filesystem-backed content-addressable store rooted at Root.
type Store struct {
	fs   afero.Fs
	root string
}

// New builds a Store rooted at root, using fs for all filesystem access
// (afero.NewOsFs() in production, afero.NewMemMapFs() in tests).
func New(fs afero.Fs, root string) *Store {
	return &Store{fs: fs, root: root}
}

var _ storage.Store = (*Store)(nil)

func (s *Store) Type() string { return "local" }

// ObjectPath returns the on-disk path for id.
func (s *Store) ObjectPath(id oid.Oid) string {
	return filepath.Join(s.root, filepath.FromSlash(id.StorageSubpath()))
}

func (s *Store) Has(_ context.Context, id oid.Oid) (bool, error) {
	info, err := s.fs.Stat(s.ObjectPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return !info.IsDir(), nil
}

func (s *Store) Get(_ context.Context, id oid.Oid, dest io.Writer) error {
	path := s.ObjectPath(id)
	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return dvserrors.New(dvserrors.KindObjectMissing).WithPath(path)
		}
		return dvserrors.Newf(dvserrors.KindIOError, "opening %s", path).WithPath(path).Wrap(err)
	}
	defer f.Close()

	if _, err := io.Copy(dest, f); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "reading %s", path).WithPath(path).Wrap(err)
	}
	return nil
}

// Delete removes the object for id, used only by the HTTP CAS server's
// admin DELETE endpoint (§4.11); ordinary client operations never delete
// objects since an oid may be shared by other manifest entries.
func (s *Store) Delete(_ context.Context, id oid.Oid) error {
	path := s.ObjectPath(id)
	if err := s.fs.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return dvserrors.New(dvserrors.KindObjectMissing).WithPath(path)
		}
		return dvserrors.Newf(dvserrors.KindIOError, "removing %s", path).WithPath(path).Wrap(err)
	}
	return nil
}

// Put writes src's bytes under id via temp-file-then-rename within the
// same directory as the final destination, so the rename is atomic.
// Idempotent: if the destination already exists, src is drained and
// discarded without a second write (content immutability).
func (s *Store) Put(_ context.Context, id oid.Oid, src io.Reader) error {
	dest := s.ObjectPath(id)

	if exists, err := afero.Exists(s.fs, dest); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "checking %s", dest).WithPath(dest).Wrap(err)
	} else if exists {
		_, _ = io.Copy(io.Discard, src)
		return nil
	}

	dir := filepath.Dir(dest)
	if err := s.fs.MkdirAll(dir, 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", dir).WithPath(dir).Wrap(err)
	}

	tmp, err := afero.TempFile(s.fs, dir, ".put-*")
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating temp file in %s", dir).WithPath(dir).Wrap(err)
	}
	tmpName := tmp.Name()
	defer func() { _ = s.fs.Remove(tmpName) }()

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return dvserrors.Newf(dvserrors.KindIOError, "writing %s", tmpName).WithPath(tmpName).Wrap(err)
	}
	if err := tmp.Close(); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "closing %s", tmpName).WithPath(tmpName).Wrap(err)
	}

	if err := s.fs.Rename(tmpName, dest); err != nil {
		// Another writer may have won the race for this id; since content
		// is immutable by hash, that is success, not a conflict.
		if exists, existsErr := afero.Exists(s.fs, dest); existsErr == nil && exists {
			return nil
		}
		return dvserrors.Newf(dvserrors.KindIOError, "renaming %s to %s", tmpName, dest).WithPath(dest).Wrap(err)
	}
	return nil
}
