package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLog_OrdersMostRecentFirst(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()

	writeFile(t, root, "a.bin", "1")
	_, err := s.Add(context.Background(), []string{"a.bin"}, AddOptions{Message: "add a"})
	require.NoError(t, err)

	writeFile(t, root, "b.bin", "2")
	_, err = s.Add(context.Background(), []string{"b.bin"}, AddOptions{Message: "add b"})
	require.NoError(t, err)

	entries, err := s.Log(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "add b", entries[0].Message)
	require.Equal(t, "add a", entries[1].Message)
}

func TestLog_RespectsLimit(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()

	writeFile(t, root, "a.bin", "1")
	_, err := s.Add(context.Background(), []string{"a.bin"}, AddOptions{Message: "add a"})
	require.NoError(t, err)

	writeFile(t, root, "b.bin", "2")
	_, err = s.Add(context.Background(), []string{"b.bin"}, AddOptions{Message: "add b"})
	require.NoError(t, err)

	entries, err := s.Log(1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "add b", entries[0].Message)
}
