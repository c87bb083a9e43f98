package ops

import (
	"context"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/model"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/reflog"
)

// RollbackOptions configures a call to Rollback.
type RollbackOptions struct {
	Force       bool
	Materialize bool
}

// Rollback restores the workspace's metadata (and optionally its data
// files) to an earlier recorded state, grounded on rollback.rs's
// rollback_with_backend.
//
// Target resolution follows rollback.rs's RollbackTarget::parse: a target
// that parses as a non-negative integer is a reflog index counting back
// from HEAD (0 = current), anything else is treated as a state id prefix.
//
// Unlike the source, the dirty-worktree check here is real: it reuses
// Status to detect any tracked file whose content no longer matches its
// recorded checksum, and refuses the rollback with KindDirtyWorktree
// unless Force is set.
func (s *Session) Rollback(ctx context.Context, target string, opts RollbackOptions) (*RollbackResult, error) {
	targetSID, err := s.resolveRollbackTarget(target)
	if err != nil {
		return nil, err
	}

	currentSID, err := s.Reflog.ReadHead()
	if err != nil {
		return nil, err
	}

	if !opts.Force {
		statuses, err := s.Status(ctx, nil)
		if err != nil {
			return nil, err
		}
		for _, st := range statuses {
			if st.Status == StatusUnsynced {
				return nil, dvserrors.Newf(dvserrors.KindDirtyWorktree, "file %s has unsynced changes, use force to discard them", st.RelativePath)
			}
		}
	}

	if targetSID == currentSID {
		return &RollbackResult{TargetSID: targetSID}, nil
	}

	targetState, err := s.Snapshots.Load(targetSID)
	if err != nil {
		return nil, err
	}

	var currentState *model.WorkspaceState
	if currentSID != "" {
		currentState, err = s.Snapshots.Load(currentSID)
		if err != nil {
			return nil, err
		}
	}

	targetPaths := make(map[string]bool, len(targetState.Metadata))
	for _, entry := range targetState.Metadata {
		targetPaths[entry.Path] = true
	}

	result := &RollbackResult{TargetSID: targetSID}

	for _, entry := range targetState.Metadata {
		dataPath := filepath.Join(s.Backend.Root(), entry.Path)
		metaPath := model.MetadataPath(dataPath, entry.Format)
		if err := s.FS.MkdirAll(filepath.Dir(metaPath), 0o770); err != nil {
			return result, dvserrors.Newf(dvserrors.KindIOError, "creating %s", filepath.Dir(metaPath)).Wrap(err)
		}
		meta := entry.Meta
		if err := s.SaveMetadata(dataPath, &meta, entry.Format); err != nil {
			return result, err
		}
		result.RestoredPaths = append(result.RestoredPaths, entry.Path)
	}

	if currentState != nil {
		for _, entry := range currentState.Metadata {
			if targetPaths[entry.Path] {
				continue
			}
			dataPath := filepath.Join(s.Backend.Root(), entry.Path)
			if err := s.RemoveMetadata(dataPath); err != nil {
				return result, err
			}
			result.RemovedPaths = append(result.RemovedPaths, entry.Path)
		}
	}

	if targetState.Manifest != nil {
		if err := s.SaveManifest(targetState.Manifest); err != nil {
			return result, err
		}
	} else {
		if err := s.SaveManifest(model.NewManifest()); err != nil {
			return result, err
		}
	}

	if opts.Materialize && len(targetState.Metadata) > 0 {
		for _, entry := range targetState.Metadata {
			dataPath := filepath.Join(s.Backend.Root(), entry.Path)
			id := entry.Meta.Oid()
			algo := entry.Meta.EffectiveHashAlgo()
			if got, err := hashFile(s.FS, dataPath, algo); err == nil && got == entry.Meta.Checksum {
				continue
			}
			if err := s.restoreDataFile(ctx, dataPath, id); err != nil {
				result.MaterializedFail = append(result.MaterializedFail, entry.Path)
				continue
			}
			result.MaterializedOK = append(result.MaterializedOK, entry.Path)
		}
	}

	message := "rolled back to " + shortSID(targetSID)
	if err := s.Reflog.Record(s.Actor, model.ReflogOpRollback, message, currentSID, targetSID, result.RestoredPaths); err != nil {
		return result, err
	}

	s.Logger.Info("rollback complete",
		zap.String("target_sid", targetSID),
		zap.Int("restored", len(result.RestoredPaths)),
		zap.Int("removed", len(result.RemovedPaths)),
		zap.Int("materialize_failed", len(result.MaterializedFail)),
	)
	return result, nil
}

// restoreDataFile copies the object for id into dataPath from cache or
// external storage, mirroring Get's restore logic without the
// already-current short circuit (the caller has already checked that).
func (s *Session) restoreDataFile(ctx context.Context, dataPath string, id oid.Oid) error {
	perm := configPerm(s.Config)

	if s.Layout.IsCached(id) {
		return copyFileAtomic(s.FS, s.Layout.CachedObjectPath(id), dataPath, perm)
	}
	if has, err := s.External.Has(ctx, id); err == nil && has {
		return storeGet(ctx, s.External, s.FS, id, dataPath, perm)
	}
	return dvserrors.New(dvserrors.KindObjectMissing).WithPath(dataPath)
}

// resolveRollbackTarget resolves target to a snapshot id, treating a
// non-negative integer string as a reflog index counting back from HEAD
// (0 = current state) and anything else as a state id, grounded on
// rollback.rs's RollbackTarget::parse.
func (s *Session) resolveRollbackTarget(target string) (string, error) {
	if index, err := strconv.Atoi(target); err == nil && index >= 0 {
		entry, ok, err := s.Reflog.GetByIndex(index)
		if err != nil {
			return "", err
		}
		if !ok {
			return "", dvserrors.Newf(dvserrors.KindUnknownState, "no reflog entry at index %d", index)
		}
		sid, ok := reflog.ParseStateID(entry.NewSID)
		if !ok {
			return "", dvserrors.Newf(dvserrors.KindUnknownState, "reflog entry at index %d has no resolvable state", index)
		}
		return sid, nil
	}

	if s.Snapshots.Exists(target) {
		return target, nil
	}

	ids, err := s.Snapshots.List()
	if err != nil {
		return "", err
	}
	var match string
	for _, id := range ids {
		if len(target) <= len(id) && id[:len(target)] == target {
			if match != "" {
				return "", dvserrors.Newf(dvserrors.KindUnknownState, "ambiguous state prefix %q", target)
			}
			match = id
		}
	}
	if match == "" {
		return "", dvserrors.Newf(dvserrors.KindUnknownState, "no state matches %q", target)
	}
	return match, nil
}

func shortSID(sid string) string {
	if len(sid) > 8 {
		return sid[:8]
	}
	return sid
}
