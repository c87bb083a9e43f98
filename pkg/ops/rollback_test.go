package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRollback_ByIndexRestoresPriorManifest(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()

	writeFile(t, root, "a.bin", "1")
	_, err := s.Add(context.Background(), []string{"a.bin"}, AddOptions{Message: "add a"})
	require.NoError(t, err)

	writeFile(t, root, "b.bin", "2")
	_, err = s.Add(context.Background(), []string{"b.bin"}, AddOptions{Message: "add b"})
	require.NoError(t, err)

	manifest, err := s.LoadManifest()
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 2)

	result, err := s.Rollback(context.Background(), "1", RollbackOptions{})
	require.NoError(t, err)
	require.Contains(t, result.RemovedPaths, "b.bin")

	manifest, err = s.LoadManifest()
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 1)
	require.Equal(t, "a.bin", manifest.Entries[0].Path)
}

func TestRollback_RefusesDirtyWorktreeWithoutForce(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()

	writeFile(t, root, "a.bin", "1")
	_, err := s.Add(context.Background(), []string{"a.bin"}, AddOptions{Message: "add a"})
	require.NoError(t, err)

	writeFile(t, root, "b.bin", "2")
	_, err = s.Add(context.Background(), []string{"b.bin"}, AddOptions{Message: "add b"})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "a.bin"), []byte("modified"), 0o644))

	_, err = s.Rollback(context.Background(), "1", RollbackOptions{})
	require.Error(t, err)

	result, err := s.Rollback(context.Background(), "1", RollbackOptions{Force: true})
	require.NoError(t, err)
	require.Contains(t, result.RemovedPaths, "b.bin")
}

func TestRollback_WithMaterializeRestoresDataFile(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()

	writeFile(t, root, "a.bin", "1")
	_, err := s.Add(context.Background(), []string{"a.bin"}, AddOptions{Message: "add a"})
	require.NoError(t, err)

	writeFile(t, root, "b.bin", "2")
	_, err = s.Add(context.Background(), []string{"b.bin"}, AddOptions{Message: "add b"})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "b.bin")))

	writeFile(t, root, "c.bin", "3")
	_, err = s.Add(context.Background(), []string{"c.bin"}, AddOptions{Message: "add c"})
	require.NoError(t, err)

	result, err := s.Rollback(context.Background(), "1", RollbackOptions{Force: true, Materialize: true})
	require.NoError(t, err)
	require.Contains(t, result.MaterializedOK, "b.bin")

	content, err := os.ReadFile(filepath.Join(root, "b.bin"))
	require.NoError(t, err)
	require.Equal(t, "2", string(content))
}
