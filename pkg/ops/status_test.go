package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatus_CurrentAfterAdd(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "v1")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	results, err := s.Status(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, StatusCurrent, results[0].Status)
}

func TestStatus_UnsyncedAfterEdit(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "v1")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(root, "data.bin"), []byte("v2"), 0o644))

	results, err := s.Status(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, StatusUnsynced, results[0].Status)
}

func TestStatus_AbsentAfterRemoval(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	path := writeFile(t, root, "data.bin", "v1")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	results, err := s.Status(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, StatusAbsent, results[0].Status)
}
