package reflog

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/layout"
	"github.com/dvs-io/dvs/pkg/model"
)

func setup(t *testing.T) (afero.Fs, *layout.Layout) {
	fs := afero.NewMemMapFs()
	l := layout.New(fs, "/repo")
	require.NoError(t, l.Init())
	return fs, l
}

func TestSnapshotStore_SaveLoadIsContentAddressed(t *testing.T) {
	fs, l := setup(t)
	store := NewSnapshotStore(fs, l)

	state := model.EmptyWorkspaceState()
	sid1, err := store.Save(state)
	require.NoError(t, err)

	sid2, err := store.Save(state)
	require.NoError(t, err)
	require.Equal(t, sid1, sid2)

	require.True(t, store.Exists(sid1))
	loaded, err := store.Load(sid1)
	require.NoError(t, err)
	require.True(t, loaded.IsEmpty())

	ids, err := store.List()
	require.NoError(t, err)
	require.Equal(t, []string{sid1}, ids)
}

func TestReflog_ReadWriteHead(t *testing.T) {
	fs, l := setup(t)
	r := New(fs, l)

	head, err := r.ReadHead()
	require.NoError(t, err)
	require.Empty(t, head)

	require.NoError(t, r.UpdateHead("abc123"))
	head, err = r.ReadHead()
	require.NoError(t, err)
	require.Equal(t, "abc123", head)
}

func TestReflog_RecordAndReadOrdering(t *testing.T) {
	fs, l := setup(t)
	r := New(fs, l)

	empty, err := r.IsEmpty()
	require.NoError(t, err)
	require.True(t, empty)

	require.NoError(t, r.Record("alice", model.ReflogOpInit, "", "", "s1", nil))
	require.NoError(t, r.Record("alice", model.ReflogOpAdd, "added file", "s1", "s2", []string{"data.csv"}))

	all, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, model.ReflogOpInit, all[0].Op)
	require.Equal(t, model.ReflogOpAdd, all[1].Op)

	recent, err := r.ReadRecent()
	require.NoError(t, err)
	require.Equal(t, model.ReflogOpAdd, recent[0].Op)
	require.Equal(t, model.ReflogOpInit, recent[1].Op)

	entry, ok, err := r.GetByIndex(0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "state:s2", entry.NewSID)

	_, ok, err = r.GetByIndex(5)
	require.NoError(t, err)
	require.False(t, ok)

	head, err := r.ReadHead()
	require.NoError(t, err)
	require.Equal(t, "s2", head)
}

func TestFormatAndParseStateID(t *testing.T) {
	require.Equal(t, "state:abc", FormatStateID("abc"))
	id, ok := ParseStateID("state:abc")
	require.True(t, ok)
	require.Equal(t, "abc", id)

	_, ok = ParseStateID("abc")
	require.False(t, ok)
}
