package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/backend"
	"github.com/dvs-io/dvs/pkg/oid"
)

// newTestSession builds a real-filesystem workspace under t.TempDir(),
// initialized via Init and opened via OpenWithBackend, since
// backend.DVSBackend's ignore-file handling always hits the OS
// filesystem directly regardless of the afero.Fs passed to Session.
func newTestSession(t *testing.T) *Session {
	t.Helper()

	root := t.TempDir()
	storageDir := filepath.Join(t.TempDir(), "storage")
	fs := afero.NewOsFs()

	b := backend.NewDVSBackend(root)
	_, err := Init(fs, b, InitOptions{
		StorageDir:     storageDir,
		HashAlgo:       oid.Blake3,
		MetadataFormat: "toml",
	})
	require.NoError(t, err)

	s, err := OpenWithBackend(fs, b)
	require.NoError(t, err)
	return s
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
