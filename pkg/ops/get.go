package ops

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/model"
)

// Get restores data files from cache or external storage using metadata
// as the source of truth, grounded on get.rs's get_with_backend.
func (s *Session) Get(ctx context.Context, patterns []string) ([]FileResult, error) {
	files, err := s.expandTrackedPatterns(patterns)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, dvserrors.Newf(dvserrors.KindMetadataNotFound, "no tracked files matched %s", strings.Join(patterns, ", "))
	}

	results := make([]FileResult, 0, len(files))
	for _, path := range files {
		results = append(results, s.getSingleFile(ctx, path))
	}
	return results, nil
}

func (s *Session) getSingleFile(ctx context.Context, path string) FileResult {
	relPath, err := s.Backend.Normalize(path)
	if err != nil {
		return fileError(path, path, string(dvserrors.KindOf(err)), err.Error())
	}

	meta, _, err := s.LoadMetadata(path)
	if err != nil {
		return fileError(relPath, path, string(dvserrors.KindMetadataNotFound), err.Error())
	}

	algo := meta.EffectiveHashAlgo()
	if exists, _ := afero.Exists(s.FS, path); exists {
		if got, err := hashFile(s.FS, path, algo); err == nil && got == meta.Checksum {
			return FileResult{RelativePath: relPath, Path: path, Outcome: OutcomePresent, Size: meta.Size, Checksum: meta.Checksum}
		}
	}

	id := meta.Oid()
	perm := configPerm(s.Config)

	if s.Layout.IsCached(id) {
		if err := copyFileAtomic(s.FS, s.Layout.CachedObjectPath(id), path, perm); err != nil {
			return fileError(relPath, path, "io_error", err.Error())
		}
	} else if has, err := s.External.Has(ctx, id); err == nil && has {
		if err := storeGet(ctx, s.External, s.FS, id, path, perm); err != nil {
			return fileError(relPath, path, string(dvserrors.KindOf(err)), err.Error())
		}
	} else {
		return fileError(relPath, path, string(dvserrors.KindObjectMissing), "object not found in cache or external storage")
	}

	got, err := hashFile(s.FS, path, algo)
	if err != nil {
		return fileError(relPath, path, string(dvserrors.KindHashError), err.Error())
	}
	if got != meta.Checksum {
		_ = s.FS.Remove(path)
		return fileError(relPath, path, string(dvserrors.KindIntegrityError), "restored content does not match recorded checksum")
	}

	return FileResult{RelativePath: relPath, Path: path, Outcome: OutcomeCopied, Size: meta.Size, Checksum: meta.Checksum}
}

// expandTrackedPatterns resolves patterns against tracked metadata files,
// mirroring get.rs's expand_globs_tracked: glob patterns match against
// metadata-file names and are translated back to data paths.
func (s *Session) expandTrackedPatterns(patterns []string) ([]string, error) {
	root := s.Backend.Root()
	var files []string
	seen := map[string]bool{}

	for _, pattern := range patterns {
		full := pattern
		if !filepath.IsAbs(full) {
			full = filepath.Join(root, pattern)
		}

		if strings.ContainsAny(pattern, "*?[") {
			for _, ext := range []string{".dvs", ".dvs.toml"} {
				matches, err := afero.Glob(s.FS, full+ext)
				if err != nil {
					return nil, dvserrors.Newf(dvserrors.KindInvalidTarget, "invalid glob %q", pattern).Wrap(err)
				}
				for _, m := range matches {
					dataPath, ok := model.DataPathFromMetadata(m)
					if !ok || seen[dataPath] {
						continue
					}
					seen[dataPath] = true
					files = append(files, dataPath)
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
