package model

import (
	"sort"

	jsoniter "github.com/json-iterator/go"

	"github.com/dvs-io/dvs/pkg/oid"
)

// Compression names the optional compression applied to a stored object.
// DVS itself never compresses (Non-goals), but the manifest wire format
// carries the field for forward compatibility with producers that do.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionZstd Compression = "zstd"
	CompressionGzip Compression = "gzip"
	CompressionLz4  Compression = "lz4"
)

// ManifestFilename is the repo-root filename for the manifest: "dvs.lock".
const ManifestFilename = "dvs.lock"

// ManifestVersion is the current manifest schema version.
const ManifestVersion = 1

// ManifestEntry maps one repo-relative path to the object that is its
// authoritative content.
type ManifestEntry struct {
	Path        string      `json:"path"`
	Oid         oid.Oid     `json:"oid"`
	Bytes       uint64      `json:"bytes"`
	Compression Compression `json:"compression,omitempty"`
	Remote      string      `json:"remote,omitempty"`
	_           struct{}
}

// Manifest is the repo-wide path-to-Oid mapping persisted as dvs.lock.
type Manifest struct {
	Version int             `json:"version"`
	BaseURL string          `json:"base_url,omitempty"`
	Entries []ManifestEntry `json:"entries"`
	_       struct{}
}

// NewManifest builds an empty manifest at the current schema version.
func NewManifest() *Manifest {
	return &Manifest{Version: ManifestVersion}
}

// IsEmpty reports whether the manifest has no entries.
func (m *Manifest) IsEmpty() bool {
	return len(m.Entries) == 0
}

// Len returns the entry count.
func (m *Manifest) Len() int {
	return len(m.Entries)
}

// Get returns the entry for path, if any.
func (m *Manifest) Get(path string) (ManifestEntry, bool) {
	for _, e := range m.Entries {
		if e.Path == path {
			return e, true
		}
	}
	return ManifestEntry{}, false
}

// Upsert replaces any existing entry for entry.Path, or appends, then
// re-sorts by path (§6: "Entries sorted by path on write").
func (m *Manifest) Upsert(entry ManifestEntry) {
	if entry.Remote == "" {
		entry.Remote = "origin"
	}
	for i, e := range m.Entries {
		if e.Path == entry.Path {
			m.Entries[i] = entry
			m.sort()
			return
		}
	}
	m.Entries = append(m.Entries, entry)
	m.sort()
}

// Remove deletes the entry for path, if present.
func (m *Manifest) Remove(path string) {
	for i, e := range m.Entries {
		if e.Path == path {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return
		}
	}
}

func (m *Manifest) sort() {
	sort.Slice(m.Entries, func(i, j int) bool { return m.Entries[i].Path < m.Entries[j].Path })
}

// UniqueOids returns the distinct set of object identifiers referenced by
// the manifest, used by push/pull to avoid re-transferring shared objects.
func (m *Manifest) UniqueOids() []oid.Oid {
	seen := make(map[oid.Oid]bool, len(m.Entries))
	out := make([]oid.Oid, 0, len(m.Entries))
	for _, e := range m.Entries {
		if !seen[e.Oid] {
			seen[e.Oid] = true
			out = append(out, e.Oid)
		}
	}
	return out
}

// ByOid returns every entry whose object identifier matches oid, used by
// add's rollback step to decide whether a storage object is still
// referenced before deleting it.
func (m *Manifest) ByOid(target oid.Oid) []ManifestEntry {
	var out []ManifestEntry
	for _, e := range m.Entries {
		if e.Oid.Equal(target) {
			out = append(out, e)
		}
	}
	return out
}

// Merge folds other's entries into m: entries for the same path are
// replaced by other's version, and m's BaseURL is filled in only if it
// was previously empty. Used by the (out-of-core) merge-repo collaborator.
func (m *Manifest) Merge(other *Manifest) {
	if m.BaseURL == "" {
		m.BaseURL = other.BaseURL
	}
	for _, e := range other.Entries {
		m.Upsert(e)
	}
}

// Marshal serializes the manifest as pretty JSON with entries sorted by
// path.
func (m *Manifest) Marshal() ([]byte, error) {
	m.sort()
	return jsoniter.ConfigCompatibleWithStandardLibrary.MarshalIndent(m, "", "  ")
}

// UnmarshalManifest decodes a dvs.lock file.
func UnmarshalManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, m); err != nil {
		return nil, err
	}
	return m, nil
}
