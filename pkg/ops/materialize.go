package ops

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/oid"
)

// materializedState maps a manifest path to the oid last materialized
// there, persisted at .dvs/state/materialized.json so repeat invocations
// short-circuit, grounded on layout.rs's MaterializedState.
type materializedState map[string]string

func loadMaterializedState(fs afero.Fs, path string) (materializedState, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return materializedState{}, nil
	}
	var st materializedState
	if err := json.Unmarshal(data, &st); err != nil {
		return materializedState{}, nil
	}
	return st, nil
}

func (st materializedState) needsMaterialize(path string, id oid.Oid) bool {
	return st[path] != id.String()
}

// MaterializeResult reports whether one manifest entry was materialized.
type MaterializeResult struct {
	Path         string
	Oid          oid.Oid
	Materialized bool
	ErrorDetail  string
}

// MaterializeSummary aggregates a Materialize run.
type MaterializeSummary struct {
	Materialized int
	UpToDate     int
	Failed       int
	Results      []MaterializeResult
}

// Materialize copies cached objects into their working-tree locations as
// declared by the manifest, skipping entries that already match,
// grounded on materialize.rs's materialize_with_backend.
func (s *Session) Materialize() (*MaterializeSummary, error) {
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}

	statePath := s.Layout.MaterializedStatePath()
	state, err := loadMaterializedState(s.FS, statePath)
	if err != nil {
		return nil, err
	}

	summary := &MaterializeSummary{}
	perm := configPerm(s.Config)

	for _, entry := range manifest.Entries {
		result := s.materializeSingleFile(entry.Path, entry.Oid, state, perm)
		switch {
		case result.ErrorDetail != "":
			summary.Failed++
		case result.Materialized:
			summary.Materialized++
		default:
			summary.UpToDate++
		}
		summary.Results = append(summary.Results, result)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return summary, err
	}
	if err := atomicWrite(s.FS, statePath, data, 0o660); err != nil {
		return summary, err
	}

	s.Logger.Info("materialize complete", zap.Int("materialized", summary.Materialized), zap.Int("up_to_date", summary.UpToDate), zap.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Session) materializeSingleFile(path string, id oid.Oid, state materializedState, perm os.FileMode) MaterializeResult {
	if !state.needsMaterialize(path, id) {
		return MaterializeResult{Path: path, Oid: id, Materialized: false}
	}

	cachedPath := s.Layout.CachedObjectPath(id)
	if exists, _ := afero.Exists(s.FS, cachedPath); !exists {
		return MaterializeResult{Path: path, Oid: id, ErrorDetail: "object not cached, run pull first"}
	}

	dest := filepath.Join(s.Backend.Root(), path)
	if err := copyFileAtomic(s.FS, cachedPath, dest, perm); err != nil {
		return MaterializeResult{Path: path, Oid: id, ErrorDetail: err.Error()}
	}

	state[path] = id.String()
	s.Logger.Debug("file materialized", zap.String("path", path), zap.String("oid", id.String()))
	return MaterializeResult{Path: path, Oid: id, Materialized: true}
}
