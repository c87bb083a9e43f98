package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaterialize_CopiesCachedObjectIntoWorkingTree(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	path := writeFile(t, root, "data.bin", "hello")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	summary, err := s.Materialize()
	require.NoError(t, err)
	require.Equal(t, 1, summary.Materialized)
	require.Equal(t, 0, summary.Failed)

	content, err := os.ReadFile(filepath.Join(root, "data.bin"))
	require.NoError(t, err)
	require.Equal(t, "hello", string(content))
}

func TestMaterialize_SkipsUpToDateEntries(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "hello")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	_, err = s.Materialize()
	require.NoError(t, err)

	summary, err := s.Materialize()
	require.NoError(t, err)
	require.Equal(t, 0, summary.Materialized)
	require.Equal(t, 1, summary.UpToDate)
}
