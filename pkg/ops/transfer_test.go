package ops

import (
	"context"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/casserver"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage/localfs"
)

func newTestRemote(t *testing.T) *httptest.Server {
	t.Helper()
	store := localfs.New(afero.NewOsFs(), t.TempDir())
	srv := casserver.New(casserver.Config{}, store)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func TestPush_UploadsObjectsToRemote(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "hello world")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	remote := newTestRemote(t)

	summary, err := s.Push(context.Background(), remote.URL)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Uploaded)
	require.Equal(t, 0, summary.Failed)

	summary, err = s.Push(context.Background(), remote.URL)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Present)
}

func TestPull_DownloadsMissingObjectsFromRemote(t *testing.T) {
	s := newTestSession(t)
	root := s.Backend.Root()
	writeFile(t, root, "data.bin", "hello world")

	_, err := s.Add(context.Background(), []string{"data.bin"}, AddOptions{})
	require.NoError(t, err)

	remote := newTestRemote(t)
	_, err = s.Push(context.Background(), remote.URL)
	require.NoError(t, err)

	cachePath := s.Layout.CachedObjectPath(mustManifestOid(t, s))
	require.NoError(t, os.Remove(cachePath))

	summary, err := s.Pull(context.Background(), remote.URL)
	require.NoError(t, err)
	require.Equal(t, 1, summary.Uploaded)

	_, err = os.Stat(cachePath)
	require.NoError(t, err)
}

func mustManifestOid(t *testing.T, s *Session) oid.Oid {
	t.Helper()
	manifest, err := s.LoadManifest()
	require.NoError(t, err)
	require.Len(t, manifest.Entries, 1)
	return manifest.Entries[0].Oid
}
