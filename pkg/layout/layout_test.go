package layout

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/oid"
)

func testOid() oid.Oid {
	return oid.New(oid.Blake3, "aa00000000000000000000000000000000000000000000000000000000000000"[:64])
}

func TestLayout_Paths(t *testing.T) {
	l := New(afero.NewMemMapFs(), "/repo")

	require.Equal(t, "/repo/.dvs", l.DVSDir())
	require.Equal(t, "/repo/.dvs/config.toml", l.ConfigPath())
	require.Equal(t, "/repo/.dvs/cache", l.CacheDir())
	require.Equal(t, "/repo/.dvs/cache/objects", l.ObjectsDir())
	require.Equal(t, "/repo/.dvs/state", l.StateDir())
	require.Equal(t, "/repo/.dvs/locks", l.LocksDir())
	require.Equal(t, "/repo/dvs.lock", l.ManifestPath())
	require.Equal(t, "/repo/.dvs/refs", l.RefsDir())
	require.Equal(t, "/repo/.dvs/logs", l.LogsDir())
	require.Equal(t, "/repo/.dvs/state/snapshots", l.SnapshotsDir())
	require.Equal(t, "/repo/.dvs/refs/HEAD", l.HeadRefPath())
	require.Equal(t, "/repo/.dvs/logs/refs/HEAD", l.HeadLogPath())
	require.Equal(t, "/repo/.dvs/state/snapshots/abc123.json", l.SnapshotPath("abc123"))
}

func TestLayout_CachedObjectPathContainsAlgoAndPrefix(t *testing.T) {
	l := New(afero.NewMemMapFs(), "/repo")
	path := l.CachedObjectPath(testOid())
	require.Contains(t, path, "blake3")
	require.Contains(t, path, "/aa/")
}

func TestLayout_InitAndExists(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, "/repo")
	require.False(t, l.Exists())

	require.NoError(t, l.Init())
	require.True(t, l.Exists())

	for _, dir := range []string{l.ObjectsDir(), l.StateDir(), l.LocksDir(), l.RefsDir(), l.SnapshotsDir()} {
		ok, err := afero.DirExists(fs, dir)
		require.NoError(t, err)
		require.True(t, ok, dir)
	}
}

func TestLayout_IsCached(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, "/repo")
	require.NoError(t, l.Init())

	id := testOid()
	require.False(t, l.IsCached(id))

	cachedPath := l.CachedObjectPath(id)
	require.NoError(t, afero.WriteFile(fs, cachedPath, []byte("content"), 0o660))
	require.True(t, l.IsCached(id))
}

func TestLayout_CachedOids(t *testing.T) {
	fs := afero.NewMemMapFs()
	l := New(fs, "/repo")
	require.NoError(t, l.Init())

	id := testOid()
	require.NoError(t, afero.WriteFile(fs, l.CachedObjectPath(id), []byte("x"), 0o660))

	oids, err := l.CachedOids()
	require.NoError(t, err)
	require.Len(t, oids, 1)
	require.True(t, oids[0].Equal(id))

	require.NoError(t, afero.WriteFile(fs, l.ObjectsDir()+"/unknownalgo/ab/cdef", []byte("y"), 0o660))
	oids, err = l.CachedOids()
	require.NoError(t, err)
	require.Len(t, oids, 1)
}
