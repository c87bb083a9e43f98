// Package layout maps a repository root onto the concrete paths of its
// .dvs/ working directory: object cache, reflog refs and logs, snapshots,
// locks, and local config.
//
// Grounded on the original Rust Layout (dvs-core/src/helpers/layout.rs),
// translated path-for-path, and on the teacher's afero-based filesystem
// access (pkg/storage/localfs) for directory creation and existence
// checks so the layout is equally testable against a MemMapFs.
package layout

import (
	"encoding/hex"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/oid"
)

// DVSDir is the name of the local DVS working directory.
const DVSDir = ".dvs"

// Layout resolves every path under a repository root's .dvs/ directory.
type Layout struct {
	fs       afero.Fs
	repoRoot string
}

// New builds a Layout rooted at repoRoot, using fs for all filesystem
// access.
func New(fs afero.Fs, repoRoot string) *Layout {
	return &Layout{fs: fs, repoRoot: repoRoot}
}

// RepoRoot returns the repository root directory.
func (l *Layout) RepoRoot() string { return l.repoRoot }

// DVSDir returns the .dvs/ directory path.
func (l *Layout) DVSDir() string { return filepath.Join(l.repoRoot, DVSDir) }

// ConfigPath returns .dvs/config.toml.
func (l *Layout) ConfigPath() string { return filepath.Join(l.DVSDir(), "config.toml") }

// CacheDir returns .dvs/cache.
func (l *Layout) CacheDir() string { return filepath.Join(l.DVSDir(), "cache") }

// ObjectsDir returns .dvs/cache/objects.
func (l *Layout) ObjectsDir() string { return filepath.Join(l.CacheDir(), "objects") }

// StateDir returns .dvs/state.
func (l *Layout) StateDir() string { return filepath.Join(l.DVSDir(), "state") }

// LocksDir returns .dvs/locks.
func (l *Layout) LocksDir() string { return filepath.Join(l.DVSDir(), "locks") }

// RefsDir returns .dvs/refs.
func (l *Layout) RefsDir() string { return filepath.Join(l.DVSDir(), "refs") }

// LogsDir returns .dvs/logs.
func (l *Layout) LogsDir() string { return filepath.Join(l.DVSDir(), "logs") }

// SnapshotsDir returns .dvs/state/snapshots.
func (l *Layout) SnapshotsDir() string { return filepath.Join(l.StateDir(), "snapshots") }

// HeadRefPath returns .dvs/refs/HEAD.
func (l *Layout) HeadRefPath() string { return filepath.Join(l.RefsDir(), "HEAD") }

// HeadLogPath returns .dvs/logs/refs/HEAD.
func (l *Layout) HeadLogPath() string { return filepath.Join(l.LogsDir(), "refs", "HEAD") }

// SnapshotPath returns .dvs/state/snapshots/{id}.json.
func (l *Layout) SnapshotPath(id string) string {
	return filepath.Join(l.SnapshotsDir(), id+".json")
}

// ManifestPath returns the manifest file path, dvs.lock in the repo root.
func (l *Layout) ManifestPath() string { return filepath.Join(l.repoRoot, "dvs.lock") }

// CachedObjectPath returns the cached path for id under the object cache.
func (l *Layout) CachedObjectPath(id oid.Oid) string {
	return filepath.Join(l.ObjectsDir(), filepath.FromSlash(id.StorageSubpath()))
}

// MaterializedStatePath returns .dvs/state/materialized.json.
func (l *Layout) MaterializedStatePath() string {
	return filepath.Join(l.StateDir(), "materialized.json")
}

// LockPath returns .dvs/locks/{name}.lock.
func (l *Layout) LockPath(name string) string {
	return filepath.Join(l.LocksDir(), name+".lock")
}

// Init creates the full .dvs/ directory structure.
func (l *Layout) Init() error {
	dirs := []string{
		l.DVSDir(),
		l.ObjectsDir(),
		l.StateDir(),
		l.LocksDir(),
		l.RefsDir(),
		l.SnapshotsDir(),
		filepath.Dir(l.HeadLogPath()),
	}
	for _, dir := range dirs {
		if err := l.fs.MkdirAll(dir, 0o770); err != nil {
			return err
		}
	}
	return nil
}

// Exists reports whether the .dvs/ directory has been initialized.
func (l *Layout) Exists() bool {
	ok, err := afero.DirExists(l.fs, l.DVSDir())
	return err == nil && ok
}

// IsCached reports whether id is present in the local object cache.
func (l *Layout) IsCached(id oid.Oid) bool {
	ok, err := afero.Exists(l.fs, l.CachedObjectPath(id))
	return err == nil && ok
}

// CachedOids walks the object cache and returns every oid found there,
// for garbage-collection purposes. Unrecognized algorithm directories or
// malformed hex entries are skipped rather than treated as errors.
func (l *Layout) CachedOids() ([]oid.Oid, error) {
	var oids []oid.Oid

	objectsDir := l.ObjectsDir()
	if ok, err := afero.DirExists(l.fs, objectsDir); err != nil || !ok {
		return oids, err
	}

	algoEntries, err := afero.ReadDir(l.fs, objectsDir)
	if err != nil {
		return nil, err
	}
	for _, algoEntry := range algoEntries {
		if !algoEntry.IsDir() {
			continue
		}
		algo, ok := oid.ParseAlgo(algoEntry.Name())
		if !ok {
			continue
		}

		algoDir := filepath.Join(objectsDir, algoEntry.Name())
		prefixEntries, err := afero.ReadDir(l.fs, algoDir)
		if err != nil {
			return nil, err
		}
		for _, prefixEntry := range prefixEntries {
			if !prefixEntry.IsDir() {
				continue
			}
			prefix := prefixEntry.Name()

			prefixDir := filepath.Join(algoDir, prefix)
			suffixEntries, err := afero.ReadDir(l.fs, prefixDir)
			if err != nil {
				return nil, err
			}
			for _, suffixEntry := range suffixEntries {
				full := prefix + suffixEntry.Name()
				if len(full) != algo.HexLen() || !isHex(full) {
					continue
				}
				oids = append(oids, oid.New(algo, full))
			}
		}
	}

	return oids, nil
}

func isHex(s string) bool {
	_, err := hex.DecodeString(s)
	return err == nil
}
