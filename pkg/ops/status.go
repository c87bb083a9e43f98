package ops

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/model"
)

// Status checks the sync state of tracked files, a pure read: it never
// mutates the working tree, metadata, manifest, or reflog. Grounded on
// status.rs's status_with_backend.
func (s *Session) Status(ctx context.Context, patterns []string) ([]StatusResult, error) {
	var targets []string
	var err error
	if len(patterns) == 0 {
		targets, err = s.findAllTrackedFiles()
	} else {
		targets, err = s.expandTrackedPatterns(patterns)
	}
	if err != nil {
		return nil, err
	}

	results := make([]StatusResult, 0, len(targets))
	for _, path := range targets {
		results = append(results, s.statusSingleFile(ctx, path))
	}
	return results, nil
}

func (s *Session) statusSingleFile(ctx context.Context, path string) StatusResult {
	relPath, err := s.Backend.Normalize(path)
	if err != nil {
		return statusError(path, path, string(dvserrors.KindOf(err)), err.Error())
	}

	meta, _, err := s.LoadMetadata(path)
	if err != nil {
		return statusError(relPath, path, string(dvserrors.KindMetadataNotFound), err.Error())
	}

	status, err := s.determineStatus(path, meta)
	if err != nil {
		return statusError(relPath, path, string(dvserrors.KindOf(err)), err.Error())
	}

	id := meta.Oid()
	if status != StatusUnsynced && !s.Layout.IsCached(id) {
		if has, hasErr := s.External.Has(ctx, id); hasErr != nil || !has {
			return statusError(relPath, path, "storage_missing", "object missing from storage")
		}
	}

	return StatusResult{
		RelativePath: relPath,
		Path:         path,
		Status:       status,
		Size:         meta.Size,
		Checksum:     meta.Checksum,
		AddTime:      meta.AddTime,
		SavedBy:      meta.SavedBy,
		Message:      meta.Message,
	}
}

func (s *Session) determineStatus(path string, meta *model.Metadata) (FileStatus, error) {
	exists, err := afero.Exists(s.FS, path)
	if err != nil {
		return "", dvserrors.Newf(dvserrors.KindIOError, "checking %s", path).WithPath(path).Wrap(err)
	}
	if !exists {
		return StatusAbsent, nil
	}
	got, err := hashFile(s.FS, path, meta.EffectiveHashAlgo())
	if err != nil {
		return "", err
	}
	if got == meta.Checksum {
		return StatusCurrent, nil
	}
	return StatusUnsynced, nil
}

// findAllTrackedFiles walks the repository for every *.dvs/*.dvs.toml
// metadata file and returns the data paths they describe, grounded on
// status.rs's find_all_tracked_files.
func (s *Session) findAllTrackedFiles() ([]string, error) {
	root := s.Backend.Root()
	var files []string
	seen := map[string]bool{}

	var walk func(dir string) error
	walk = func(dir string) error {
		infos, err := afero.ReadDir(s.FS, dir)
		if err != nil {
			return nil
		}
		for _, info := range infos {
			name := info.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(dir, name)
			if info.IsDir() {
				if err := walk(full); err != nil {
					return err
				}
				continue
			}
			if !strings.HasSuffix(name, ".dvs") && !strings.HasSuffix(name, ".dvs.toml") {
				continue
			}
			dataPath, ok := model.DataPathFromMetadata(full)
			if !ok || seen[dataPath] {
				continue
			}
			seen[dataPath] = true
			files = append(files, dataPath)
		}
		return nil
	}

	if err := walk(root); err != nil {
		return nil, err
	}
	return files, nil
}
