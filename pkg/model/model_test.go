package model

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/oid"
)

func TestManifest_UpsertSortsAndReplaces(t *testing.T) {
	m := NewManifest()
	o1 := oid.New(oid.Blake3, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	o2 := oid.New(oid.Blake3, "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")

	m.Upsert(ManifestEntry{Path: "z.csv", Oid: o1, Bytes: 10})
	m.Upsert(ManifestEntry{Path: "a.csv", Oid: o2, Bytes: 20})
	require.Equal(t, []string{"a.csv", "z.csv"}, []string{m.Entries[0].Path, m.Entries[1].Path})

	m.Upsert(ManifestEntry{Path: "a.csv", Oid: o1, Bytes: 99})
	entry, ok := m.Get("a.csv")
	require.True(t, ok)
	require.Equal(t, uint64(99), entry.Bytes)
	require.Equal(t, "origin", entry.Remote)
}

func TestManifest_UniqueOidsDedupes(t *testing.T) {
	m := NewManifest()
	o := oid.New(oid.Blake3, "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc"[:64])
	m.Upsert(ManifestEntry{Path: "a.csv", Oid: o})
	m.Upsert(ManifestEntry{Path: "b.csv", Oid: o})
	require.Len(t, m.UniqueOids(), 1)
	require.Len(t, m.ByOid(o), 2)
}

func TestMetadata_PathRoundTrip(t *testing.T) {
	jsonPath := MetadataPath("data.csv", MetadataFormatJSON)
	require.Equal(t, "data.csv.dvs", jsonPath)
	back, ok := DataPathFromMetadata(jsonPath)
	require.True(t, ok)
	require.Equal(t, "data.csv", back)

	tomlPath := MetadataPath("data.csv", MetadataFormatTOML)
	require.Equal(t, "data.csv.dvs.toml", tomlPath)
	back, ok = DataPathFromMetadata(tomlPath)
	require.True(t, ok)
	require.Equal(t, "data.csv", back)
}

func TestMetadata_DefaultsToBlake3(t *testing.T) {
	m := &Metadata{Checksum: "deadbeef", Size: 4}
	require.Equal(t, oid.Blake3, m.EffectiveHashAlgo())
}

func TestWorkspaceState_SIDIsStableUnderReordering(t *testing.T) {
	entries := []MetadataEntry{
		{Path: "b.csv", Meta: Metadata{Checksum: "b"}},
		{Path: "a.csv", Meta: Metadata{Checksum: "a"}},
	}
	s1 := NewWorkspaceState(nil, entries)
	sid1, err := s1.ComputeSID()
	require.NoError(t, err)

	reordered := []MetadataEntry{
		{Path: "a.csv", Meta: Metadata{Checksum: "a"}},
		{Path: "b.csv", Meta: Metadata{Checksum: "b"}},
	}
	s2 := NewWorkspaceState(nil, reordered)
	sid2, err := s2.ComputeSID()
	require.NoError(t, err)

	require.Equal(t, sid1, sid2)
}

func TestReflogJSONL_RoundTrip(t *testing.T) {
	e := NewReflogEntry("alice", ReflogOpAdd, "msg", "old", "new", []string{"a.csv"})
	line, err := e.MarshalJSONL()
	require.NoError(t, err)

	entries, err := ParseReflogJSONL(line)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, ReflogOpAdd, entries[0].Op)
	require.Equal(t, "new", entries[0].NewSID)
}

func TestLocalConfig_EmptyRoundTrip(t *testing.T) {
	c, err := UnmarshalLocalConfig(nil)
	require.NoError(t, err)
	require.True(t, c.IsEmpty())

	c.SetAuthToken("secret")
	require.Equal(t, "secret", c.AuthToken())
	require.False(t, c.IsEmpty())
}
