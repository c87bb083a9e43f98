package casserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/hashengine"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage/localfs"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	store := localfs.New(afero.NewOsFs(), t.TempDir())
	srv := New(cfg, store)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func putObject(t *testing.T, baseURL, content string) oid.Oid {
	t.Helper()
	hex, err := hashengine.HashReader(bytes.NewBufferString(content), oid.Blake3)
	require.NoError(t, err)
	id := oid.New(oid.Blake3, hex)

	req, err := http.NewRequest(http.MethodPut, baseURL+"/objects/blake3/"+hex, bytes.NewBufferString(content))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return id
}

func TestObjectsHandler_PutThenGetRoundTrips(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := putObject(t, ts.URL, "hello world")

	resp, err := http.Get(ts.URL + "/objects/blake3/" + id.Hex)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(body))
}

func TestObjectsHandler_PutRejectsHashMismatch(t *testing.T) {
	ts := newTestServer(t, Config{})

	wrongHex, err := hashengine.HashReader(bytes.NewBufferString("something else"), oid.Blake3)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/objects/blake3/"+wrongHex, bytes.NewBufferString("hello world"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// The mismatched bytes must never have been committed: a later
	// request for that oid still sees nothing stored under it.
	headResp, err := http.Head(ts.URL + "/objects/blake3/" + wrongHex)
	require.NoError(t, err)
	headResp.Body.Close()
	require.Equal(t, http.StatusNotFound, headResp.StatusCode)
}

func TestObjectsHandler_HeadReportsPresence(t *testing.T) {
	ts := newTestServer(t, Config{})

	absentHex, err := hashengine.HashReader(bytes.NewBufferString("never written"), oid.Blake3)
	require.NoError(t, err)
	resp, err := http.Head(ts.URL + "/objects/blake3/" + absentHex)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	id := putObject(t, ts.URL, "present")
	resp, err = http.Head(ts.URL + "/objects/blake3/" + id.Hex)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestObjectsHandler_DeleteRemovesObject(t *testing.T) {
	ts := newTestServer(t, Config{})
	id := putObject(t, ts.URL, "to be deleted")

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/objects/blake3/"+id.Hex, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/objects/blake3/" + id.Hex)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestObjectsHandler_RequiresAuthWhenKeysConfigured(t *testing.T) {
	ts := newTestServer(t, Config{Auth: AuthConfig{Keys: []APIKey{
		{Token: "secret", Name: "writer", Permissions: []string{"write", "read"}},
	}}})

	hex, err := hashengine.HashReader(bytes.NewBufferString("hi"), oid.Blake3)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/objects/blake3/"+hex, bytes.NewBufferString("hi"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Body = io.NopCloser(bytes.NewBufferString("hi"))
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestHealthHandler_ReturnsOK(t *testing.T) {
	ts := newTestServer(t, Config{})
	resp, err := http.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
