// Package reflog persists workspace-state snapshots and the append-only
// HEAD log that references them.
//
// Grounded on the original Rust SnapshotStore/Reflog (dvs-core/src/
// helpers/reflog.rs): content-addressed snapshot files under
// .dvs/state/snapshots/, a HEAD ref file, and a JSONL reflog under
// .dvs/logs/refs/HEAD. The two-type split (SnapshotStore / Reflog) and
// constructor naming follow the teacher's store.SnapshotStore interface
// (pkg/store/localfs/snapshotstore.go), adapted from a badger-backed
// key/value index to plain JSON files, since reflog snapshots here are
// content-addressed blobs rather than a keyed bundle index.
package reflog

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/layout"
	"github.com/dvs-io/dvs/pkg/model"
)

// SnapshotStore persists WorkspaceState snapshots under
// .dvs/state/snapshots/<sid>.json, addressed by their own content hash.
type SnapshotStore struct {
	fs     afero.Fs
	layout *layout.Layout
}

// NewSnapshotStore builds a SnapshotStore over layout's snapshot directory.
func NewSnapshotStore(fs afero.Fs, l *layout.Layout) *SnapshotStore {
	return &SnapshotStore{fs: fs, layout: l}
}

// Save computes state's sid and writes it if not already present,
// returning the sid either way.
func (s *SnapshotStore) Save(state *model.WorkspaceState) (string, error) {
	sid, err := state.ComputeSID()
	if err != nil {
		return "", dvserrors.New(dvserrors.KindHashError).Wrap(err)
	}

	path := s.layout.SnapshotPath(sid)
	if exists, err := afero.Exists(s.fs, path); err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "checking %s", path).WithPath(path).Wrap(err)
	} else if exists {
		return sid, nil
	}

	if err := s.fs.MkdirAll(s.layout.SnapshotsDir(), 0o770); err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "creating %s", s.layout.SnapshotsDir()).Wrap(err)
	}

	data, err := state.CanonicalJSON()
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, path, data, 0o660); err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "writing %s", path).WithPath(path).Wrap(err)
	}
	return sid, nil
}

// Load reads the snapshot with the given sid.
func (s *SnapshotStore) Load(sid string) (*model.WorkspaceState, error) {
	path := s.layout.SnapshotPath(sid)
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, dvserrors.New(dvserrors.KindSnapshotCorrupt).WithPath(path).Wrap(err)
	}
	state, err := model.UnmarshalWorkspaceState(data)
	if err != nil {
		return nil, dvserrors.New(dvserrors.KindSnapshotCorrupt).WithPath(path).Wrap(err)
	}
	return state, nil
}

// Exists reports whether a snapshot with the given sid is present.
func (s *SnapshotStore) Exists(sid string) bool {
	ok, err := afero.Exists(s.fs, s.layout.SnapshotPath(sid))
	return err == nil && ok
}

// List returns every snapshot id present in the store.
func (s *SnapshotStore) List() ([]string, error) {
	dir := s.layout.SnapshotsDir()
	if ok, err := afero.DirExists(s.fs, dir); err != nil || !ok {
		return nil, err
	}
	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if id := strings.TrimSuffix(e.Name(), ".json"); id != e.Name() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Reflog manages the HEAD ref and its append-only JSONL log.
type Reflog struct {
	fs     afero.Fs
	layout *layout.Layout
}

// New builds a Reflog over layout's refs and logs directories.
func New(fs afero.Fs, l *layout.Layout) *Reflog {
	return &Reflog{fs: fs, layout: l}
}

// FormatStateID prefixes a bare sid as it is stored in ReflogEntry.
func FormatStateID(sid string) string { return "state:" + sid }

// ParseStateID strips the "state:" prefix, returning ok=false if absent.
func ParseStateID(s string) (string, bool) {
	const prefix = "state:"
	if !strings.HasPrefix(s, prefix) {
		return "", false
	}
	return strings.TrimPrefix(s, prefix), true
}

// ReadHead returns the current HEAD sid, or "" if none has been recorded.
func (r *Reflog) ReadHead() (string, error) {
	path := r.layout.HeadRefPath()
	if ok, err := afero.Exists(r.fs, path); err != nil || !ok {
		return "", err
	}
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "reading %s", path).WithPath(path).Wrap(err)
	}
	return strings.TrimSpace(string(data)), nil
}

// UpdateHead overwrites the HEAD ref with sid.
func (r *Reflog) UpdateHead(sid string) error {
	path := r.layout.HeadRefPath()
	if err := r.fs.MkdirAll(r.layout.RefsDir(), 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating %s", r.layout.RefsDir()).Wrap(err)
	}
	if err := afero.WriteFile(r.fs, path, []byte(sid+"\n"), 0o660); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "writing %s", path).WithPath(path).Wrap(err)
	}
	return nil
}

// Append writes entry as the next line of the reflog.
func (r *Reflog) Append(entry model.ReflogEntry) error {
	path := r.layout.HeadLogPath()
	if err := r.fs.MkdirAll(filepath.Dir(path), 0o770); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "creating log dir for %s", path).Wrap(err)
	}

	line, err := entry.MarshalJSONL()
	if err != nil {
		return err
	}

	f, err := r.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o660)
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "opening %s", path).WithPath(path).Wrap(err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "appending to %s", path).WithPath(path).Wrap(err)
	}
	return nil
}

// ReadAll returns every reflog entry, oldest first.
func (r *Reflog) ReadAll() ([]model.ReflogEntry, error) {
	path := r.layout.HeadLogPath()
	if ok, err := afero.Exists(r.fs, path); err != nil || !ok {
		return nil, err
	}
	data, err := afero.ReadFile(r.fs, path)
	if err != nil {
		return nil, dvserrors.Newf(dvserrors.KindIOError, "reading %s", path).WithPath(path).Wrap(err)
	}
	return model.ParseReflogJSONL(data)
}

// ReadRecent returns every reflog entry, newest first.
func (r *Reflog) ReadRecent() ([]model.ReflogEntry, error) {
	entries, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	reversed := make([]model.ReflogEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	return reversed, nil
}

// Recent returns at most n of the most recent reflog entries.
func (r *Reflog) Recent(n int) ([]model.ReflogEntry, error) {
	entries, err := r.ReadRecent()
	if err != nil {
		return nil, err
	}
	if n < len(entries) {
		entries = entries[:n]
	}
	return entries, nil
}

// Record updates HEAD to newSID and appends a matching reflog entry,
// the single entry point operations should use to advance workspace state.
func (r *Reflog) Record(actor string, op model.ReflogOp, message, oldSID, newSID string, paths []string) error {
	if err := r.UpdateHead(newSID); err != nil {
		return err
	}
	var oldRef string
	if oldSID != "" {
		oldRef = FormatStateID(oldSID)
	}
	entry := model.NewReflogEntry(actor, op, message, oldRef, FormatStateID(newSID), paths)
	return r.Append(entry)
}

// GetByIndex returns the entry at index (0 = most recent), or ok=false if
// index is out of range.
func (r *Reflog) GetByIndex(index int) (model.ReflogEntry, bool, error) {
	entries, err := r.ReadRecent()
	if err != nil {
		return model.ReflogEntry{}, false, err
	}
	if index < 0 || index >= len(entries) {
		return model.ReflogEntry{}, false, nil
	}
	return entries[index], true, nil
}

// Len returns the total number of reflog entries.
func (r *Reflog) Len() (int, error) {
	entries, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// IsEmpty reports whether the reflog has no entries.
func (r *Reflog) IsEmpty() (bool, error) {
	n, err := r.Len()
	return n == 0, err
}
