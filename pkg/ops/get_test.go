package ops

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGet_RestoresFileFromCache(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	path := writeFile(t, root, "data.bin", "hello world")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	results, err := s.Get(context.Background(), []string{"data.bin"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeCopied, results[0].Outcome)

	content, err := os.ReadFile(filepath.Join(root, "data.bin"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(content))
}

func TestGet_UnknownPathReportsPerFileError(t *testing.T) {
	s := newTestSession(t)
	results, err := s.Get(context.Background(), []string{"never-added.bin"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeError, results[0].Outcome)
}
