package backend

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompilePatterns_BareNameMatchesAnyDepth(t *testing.T) {
	p, err := compilePatterns([]string{"*.csv", "# a comment", "", "build/"})
	require.NoError(t, err)

	require.True(t, p.IsIgnored("data.csv"))
	require.True(t, p.IsIgnored("nested/data.csv"))
	require.True(t, p.IsIgnored("build/output.bin"))
	require.False(t, p.IsIgnored("data.txt"))
}

func TestLoadGitignorePatterns_MissingFileIsEmpty(t *testing.T) {
	p, err := LoadGitignorePatterns(t.TempDir())
	require.NoError(t, err)
	require.False(t, p.IsIgnored("anything"))
}

func TestAddAndLoadDVSIgnorePattern(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, AddDVSIgnorePattern(root, "*.tmp"))

	p, err := LoadDVSIgnorePatterns(root)
	require.NoError(t, err)
	require.True(t, p.IsIgnored("scratch.tmp"))
	require.False(t, p.IsIgnored("scratch.dat"))

	data, err := os.ReadFile(filepath.Join(root, DVSignoreFile))
	require.NoError(t, err)
	require.Contains(t, string(data), "*.tmp")
}
