package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDVSBackend_TypeAndBranch(t *testing.T) {
	b := NewDVSBackend("/tmp/workspace")
	require.Equal(t, "dvs", b.Type())
	branch, ok := b.CurrentBranch()
	require.False(t, ok)
	require.Empty(t, branch)
}

func TestGitBackend_Type(t *testing.T) {
	b := NewGitBackend("/tmp/repo")
	require.Equal(t, "git", b.Type())
}

func TestNormalize_RejectsOutsideRoot(t *testing.T) {
	_, err := normalize("/repo/root", "/elsewhere/file.txt")
	require.Error(t, err)
}

func TestNormalize_RelativeInsideRoot(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	rel, err := normalize(root, filepath.Join(root, "sub", "file.txt"))
	require.NoError(t, err)
	require.Equal(t, "sub/file.txt", rel)
}

func TestFindDVSRoot_DetectsConfigFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dvs.toml"), []byte("storage_dir = \"/x\""), 0o644))

	found, ok := findDVSRoot(filepath.Join(root))
	require.True(t, ok)
	require.Equal(t, root, found)
}

func TestFindDVSRoot_DetectsDotDVSDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".dvs"), 0o755))

	found, ok := findDVSRoot(root)
	require.True(t, ok)
	require.Equal(t, root, found)
}

func TestFindDVSRoot_WalksUpToParent(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "dvs.toml"), []byte("storage_dir = \"/x\""), 0o644))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	found, ok := findDVSRoot(sub)
	require.True(t, ok)
	require.Equal(t, root, found)
}

func TestFindDVSRoot_NoWorkspace(t *testing.T) {
	_, ok := findDVSRoot(t.TempDir())
	require.False(t, ok)
}
