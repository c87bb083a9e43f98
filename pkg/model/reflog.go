package model

import (
	"bufio"
	"bytes"
	"sort"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/dvs-io/dvs/pkg/hashengine"
	"github.com/dvs-io/dvs/pkg/oid"
)

// WorkspaceStateVersion is the current snapshot schema version.
const WorkspaceStateVersion = 1

// MetadataEntry pairs a repo-relative path with the metadata recorded for
// it at the time a WorkspaceState was captured, plus the on-disk format so
// rollback can restore the original json/toml choice.
type MetadataEntry struct {
	Path   string         `json:"path"`
	Format MetadataFormat `json:"format"`
	Meta   Metadata       `json:"meta"`
	_      struct{}
}

// WorkspaceState is a point-in-time snapshot of every tracked file's
// metadata, sorted by path for deterministic serialization (so its sid is
// stable across re-computation). An optional Manifest snapshot lets
// rollback restore dvs.lock without rescanning metadata files.
type WorkspaceState struct {
	Version  int              `json:"version"`
	Manifest *Manifest        `json:"manifest,omitempty"`
	Metadata []MetadataEntry  `json:"metadata"`
	_        struct{}
}

// NewWorkspaceState builds a state, sorting entries by path.
func NewWorkspaceState(manifest *Manifest, entries []MetadataEntry) *WorkspaceState {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return &WorkspaceState{Version: WorkspaceStateVersion, Manifest: manifest, Metadata: entries}
}

// EmptyWorkspaceState builds a state with no tracked files, used as the
// root of a fresh workspace's reflog.
func EmptyWorkspaceState() *WorkspaceState {
	return &WorkspaceState{Version: WorkspaceStateVersion, Metadata: []MetadataEntry{}}
}

// IsEmpty reports whether the state tracks no files.
func (s *WorkspaceState) IsEmpty() bool {
	return len(s.Metadata) == 0
}

// CanonicalJSON renders a deterministic JSON serialization of s, used both
// to persist the snapshot and to compute its content-addressed id.
func (s *WorkspaceState) CanonicalJSON() ([]byte, error) {
	sort.Slice(s.Metadata, func(i, j int) bool { return s.Metadata[i].Path < s.Metadata[j].Path })
	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(s)
}

// ComputeSID hashes the canonical serialization of s with BLAKE3, the
// stable "sid" used to name the snapshot file and reference it from HEAD
// and the reflog.
func (s *WorkspaceState) ComputeSID() (string, error) {
	canon, err := s.CanonicalJSON()
	if err != nil {
		return "", err
	}
	return hashengine.HashReader(bytes.NewReader(canon), oid.Blake3)
}

// UnmarshalWorkspaceState decodes a persisted snapshot file.
func UnmarshalWorkspaceState(data []byte) (*WorkspaceState, error) {
	s := &WorkspaceState{}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// ReflogOp names the operation that produced a ReflogEntry.
type ReflogOp string

const (
	ReflogOpAdd      ReflogOp = "add"
	ReflogOpRemove   ReflogOp = "remove"
	ReflogOpRollback ReflogOp = "rollback"
	ReflogOpInit     ReflogOp = "init"
)

// ReflogEntry is one line of the append-only `.dvs/logs/refs/HEAD` log.
type ReflogEntry struct {
	Timestamp     time.Time `json:"ts"`
	Actor         string    `json:"actor"`
	Op            ReflogOp  `json:"op"`
	Message       string    `json:"message,omitempty"`
	OldSID        string    `json:"old_sid,omitempty"`
	NewSID        string    `json:"new_sid"`
	AffectedPaths []string  `json:"affected_paths"`
	_             struct{}
}

// NewReflogEntry builds an entry stamped with the current time.
func NewReflogEntry(actor string, op ReflogOp, message, oldSID, newSID string, paths []string) ReflogEntry {
	return ReflogEntry{
		Timestamp:     time.Now().UTC(),
		Actor:         actor,
		Op:            op,
		Message:       message,
		OldSID:        oldSID,
		NewSID:        newSID,
		AffectedPaths: paths,
	}
}

// MarshalJSONL renders entry as a single JSONL line with a trailing
// newline.
func (e ReflogEntry) MarshalJSONL() ([]byte, error) {
	b, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(e)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// ParseReflogJSONL decodes a full `.dvs/logs/refs/HEAD` file, oldest entry
// first, skipping blank trailing lines.
func ParseReflogJSONL(data []byte) ([]ReflogEntry, error) {
	var entries []ReflogEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		var e ReflogEntry
		if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(line, &e); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
