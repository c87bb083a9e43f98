package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAdd_CopiesAndCachesNewFile(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "hello world")

	results, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{Message: "first"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeCopied, results[0].Outcome)
	require.Equal(t, "data.bin", results[0].RelativePath)

	manifest, err := s.LoadManifest()
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 1)
	require.Equal(t, "data.bin", manifest.Entries[0].Path)
}

func TestAdd_SecondCallWithUnchangedContentReportsPresent(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "hello world")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	results, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomePresent, results[0].Outcome)
}

func TestAdd_RejectsDirectory(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "sub/file.txt", "x")

	results, err := s.Add(context.Background(), []string{"sub"}, AddOptions{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, OutcomeError, results[0].Outcome)
}

func TestAdd_NoMatchesIsAnError(t *testing.T) {
	s := newTestSession(t)
	_, err := s.Add(context.Background(), []string{"nonexistent-*.bin"}, AddOptions{})
	require.Error(t, err)
}

func TestAdd_AppendsReflogEntry(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "v1")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{Message: "add v1"})
	require.NoError(t, err)

	entries, err := s.Log(10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "add v1", entries[0].Message)
	require.Contains(t, entries[0].AffectedPaths, "data.bin")
}
