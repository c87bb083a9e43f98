package ops

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/model"
	"github.com/dvs-io/dvs/pkg/oid"
)

// AddOptions configures a call to Add.
type AddOptions struct {
	Message        string
	MetadataFormat model.MetadataFormat // zero value = config default
}

// Add publishes one or more working-tree files into DVS tracking,
// grounded on add.rs's add_with_backend: expand globs, process each file
// through the atomic commit sequence of §4.5, update the manifest for
// every successfully tracked file, and append a single reflog entry
// covering every file actually copied in this call.
func (s *Session) Add(ctx context.Context, patterns []string, opts AddOptions) ([]FileResult, error) {
	oldState, err := s.captureWorkspaceState()
	if err != nil {
		return nil, err
	}
	var oldSID string
	if !oldState.IsEmpty() {
		oldSID, err = s.Snapshots.Save(oldState)
		if err != nil {
			return nil, err
		}
	}

	files, err := s.expandPatterns(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, dvserrors.Newf(dvserrors.KindInvalidTarget, "no files matched %s", strings.Join(patterns, ", "))
	}

	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}

	results := make([]FileResult, 0, len(files))
	var changedPaths []string
	manifestUpdated := false

	format := opts.MetadataFormat
	if format == "" {
		format = model.MetadataFormat(s.Config.MetadataFormat)
	}
	if format == "" {
		format = model.MetadataFormatTOML
	}

	for _, path := range files {
		result := s.addSingleFile(ctx, path, opts.Message, format)
		if result.Outcome == OutcomeCopied || result.Outcome == OutcomePresent {
			algo := s.Config.EffectiveHashAlgo()
			entry := model.ManifestEntry{Path: result.RelativePath, Oid: oid.New(algo, result.Checksum), Bytes: result.Size}
			manifest.Upsert(entry)
			manifestUpdated = true
			if result.Outcome == OutcomeCopied {
				changedPaths = append(changedPaths, result.RelativePath)
			}
		}
		results = append(results, result)
	}

	if manifestUpdated {
		if err := s.SaveManifest(manifest); err != nil {
			return results, err
		}
		s.Logger.Debug("manifest persisted", zap.String("path", s.Layout.ManifestPath()))
	}

	if len(changedPaths) > 0 {
		newState, err := s.captureWorkspaceState()
		if err != nil {
			return results, err
		}
		newSID, err := s.Snapshots.Save(newState)
		if err != nil {
			return results, err
		}
		if newSID != oldSID {
			sort.Strings(changedPaths)
			if err := s.Reflog.Record(s.Actor, model.ReflogOpAdd, opts.Message, oldSID, newSID, changedPaths); err != nil {
				return results, err
			}
			s.Logger.Debug("reflog appended", zap.String("op", "add"), zap.String("new_sid", newSID))
		}
	}

	s.Logger.Info("add complete", zap.Int("files", len(files)), zap.Int("changed", len(changedPaths)))
	return results, nil
}

// addSingleFile runs the atomic commit sequence of §4.5 for one
// repo-relative working-tree path, rolling back partial side effects on
// any failure at steps (a)-(d).
func (s *Session) addSingleFile(ctx context.Context, path, message string, format model.MetadataFormat) FileResult {
	relPath, err := s.Backend.Normalize(path)
	if err != nil {
		return fileError(path, path, string(dvserrors.KindOf(err)), err.Error())
	}

	info, err := s.FS.Stat(path)
	if err != nil {
		return fileError(relPath, path, "file_not_found", err.Error())
	}
	if info.IsDir() {
		return fileError(relPath, path, string(dvserrors.KindIsDirectory), "path is a directory")
	}
	if ignored, err := s.Backend.IsIgnored(path); err == nil && ignored {
		// Add itself writes each tracked file's name to the ignore file, so
		// an ignore match on a path that already has metadata is not a rejection.
		if _, _, merr := s.LoadMetadata(path); merr != nil {
			return fileError(relPath, path, string(dvserrors.KindIgnored), "path is ignored")
		}
	}

	algo := s.Config.EffectiveHashAlgo()
	checksum, err := hashFile(s.FS, path, algo)
	if err != nil {
		return fileError(relPath, path, string(dvserrors.KindHashError), err.Error())
	}
	size := uint64(info.Size())

	if existing, _, err := s.LoadMetadata(path); err == nil {
		if existing.Checksum == checksum && existing.EffectiveHashAlgo() == algo {
			return FileResult{RelativePath: relPath, Path: path, Outcome: OutcomePresent, Size: size, Checksum: checksum}
		}
	}

	id := oid.New(algo, checksum)

	metaPath := model.MetadataPath(path, format)
	cachePath := s.Layout.CachedObjectPath(id)
	wroteCache := false
	wroteExternal := false

	cacheExists, err := afero.Exists(s.FS, cachePath)
	if err != nil {
		return fileError(relPath, path, "storage_error", err.Error())
	}
	if cacheExists && !sameLength(s.FS, cachePath, size) {
		return fileError(relPath, path, string(dvserrors.KindSizeMismatch),
			fmt.Sprintf("cached object %s for %s has a different length than the working-tree file", cachePath, id))
	}
	if !cacheExists {
		if err := copyFileAtomic(s.FS, path, cachePath, configPerm(s.Config)); err != nil {
			return fileError(relPath, path, "storage_error", err.Error())
		}
		wroteCache = true
		s.Logger.Debug("object cached", zap.String("oid", id.String()), zap.String("path", cachePath))
	}

	if has, err := s.External.Has(ctx, id); err != nil {
		s.rollbackAdd(metaPath, cachePath, wroteCache, wroteExternal)
		return fileError(relPath, path, "storage_error", err.Error())
	} else if !has {
		f, err := s.FS.Open(path)
		if err != nil {
			s.rollbackAdd(metaPath, cachePath, wroteCache, wroteExternal)
			return fileError(relPath, path, "storage_error", err.Error())
		}
		err = s.External.Put(ctx, id, f)
		f.Close()
		if err != nil {
			s.rollbackAdd(metaPath, cachePath, wroteCache, wroteExternal)
			return fileError(relPath, path, "storage_error", err.Error())
		}
		wroteExternal = true
	}

	meta := model.NewMetadata(checksum, size, algo, message, s.Actor)
	if err := s.SaveMetadata(path, meta, format); err != nil {
		s.rollbackAdd(metaPath, cachePath, wroteCache, wroteExternal)
		return fileError(relPath, path, "metadata_error", err.Error())
	}

	if err := s.Backend.AddIgnore(filepath.Base(path)); err != nil {
		s.rollbackAdd(metaPath, cachePath, wroteCache, wroteExternal)
		return fileError(relPath, path, "io_error", err.Error())
	}

	return FileResult{RelativePath: relPath, Path: path, Outcome: OutcomeCopied, Size: size, Checksum: checksum}
}

// rollbackAdd undoes the side effects addSingleFile created before the
// failure: the metadata file, then the cache object if this call created
// it. The external-store object is never removed here: content
// immutability means it is identical to what a concurrent writer would
// produce, and another manifest entry may already reference the same oid.
func (s *Session) rollbackAdd(metaPath, cachePath string, wroteCache, wroteExternal bool) {
	if exists, _ := afero.Exists(s.FS, metaPath); exists {
		_ = s.FS.Remove(metaPath)
	}
	_ = wroteExternal
	if wroteCache {
		_ = s.FS.Remove(cachePath)
	}
}

// expandPatterns resolves each entry of patterns to a concrete
// repo-relative working-tree path, expanding glob metacharacters and
// dropping ignored matches, grounded on add.rs's expand_globs.
func (s *Session) expandPatterns(patterns []string) ([]string, error) {
	root := s.Backend.Root()
	var files []string
	seen := map[string]bool{}

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, pattern)
		}

		if strings.ContainsAny(pattern, "*?[") {
			matches, err := afero.Glob(s.FS, full)
			if err != nil {
				return nil, dvserrors.Newf(dvserrors.KindInvalidTarget, "invalid glob %q", pattern).Wrap(err)
			}
			for _, m := range matches {
				info, err := s.FS.Stat(m)
				if err != nil || info.IsDir() {
					continue
				}
				rel, err := s.Backend.Normalize(m)
				if err != nil {
					continue
				}
				if ignored, _ := s.Backend.IsIgnored(rel); ignored {
					continue
				}
				if !seen[m] {
					seen[m] = true
					files = append(files, m)
				}
			}
			continue
		}

		if !seen[full] {
			seen[full] = true
			files = append(files, full)
		}
	}
	return files, nil
}

// captureWorkspaceState walks the repository for tracked metadata files
// and builds a WorkspaceState snapshot, grounded on add.rs's
// capture_workspace_state.
func (s *Session) captureWorkspaceState() (*model.WorkspaceState, error) {
	root := s.Backend.Root()
	entries, err := s.collectMetadataEntries(root)
	if err != nil {
		return nil, err
	}
	manifest, err := s.LoadManifest()
	if err != nil {
		return nil, err
	}
	if manifest.IsEmpty() {
		manifest = nil
	}
	return model.NewWorkspaceState(manifest, entries), nil
}

func (s *Session) collectMetadataEntries(root string) ([]model.MetadataEntry, error) {
	var entries []model.MetadataEntry

	var walk func(dir string) error
	walk = func(dir string) error {
		infos, err := afero.ReadDir(s.FS, dir)
		if err != nil {
			return nil
		}
		for _, info := range infos {
			name := info.Name()
			if name == ".git" || name == ".dvs" {
				continue
			}
			full := filepath.Join(dir, name)
			if info.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}

			var format model.MetadataFormat
			switch {
			case strings.HasSuffix(name, ".dvs.toml"):
				format = model.MetadataFormatTOML
			case strings.HasSuffix(name, ".dvs"):
				format = model.MetadataFormatJSON
			default:
				continue
			}

			dataPath, ok := model.DataPathFromMetadata(full)
			if !ok {
				continue
			}
			data, err := afero.ReadFile(s.FS, full)
			if err != nil {
				continue
			}
			meta, err := model.UnmarshalMetadata(data, format)
			if err != nil {
				continue
			}
			rel, err := s.Backend.Normalize(dataPath)
			if err != nil {
				continue
			}
			entries = append(entries, model.MetadataEntry{Path: rel, Format: format, Meta: *meta})
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return entries, nil
}

