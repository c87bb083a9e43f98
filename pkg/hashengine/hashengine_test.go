package hashengine

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/oid"
)

func writeTemp(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "data.bin")
	data := bytes.Repeat([]byte{0x42}, size)
	require.NoError(t, ioutil.WriteFile(path, data, 0o644))
	return path
}

func TestHashFile_AgreesAcrossSmallAndLargeSizes(t *testing.T) {
	dir := t.TempDir()

	small := writeTemp(t, dir, 8)
	large := writeTemp(t, dir, MmapThreshold+1024)

	for _, algo := range []oid.Algo{oid.Blake3, oid.SHA256, oid.XXH3} {
		hSmall, err := HashFile(small, algo)
		require.NoError(t, err)
		require.Len(t, hSmall, algo.HexLen())

		hLarge, err := HashFile(large, algo)
		require.NoError(t, err)
		require.Len(t, hLarge, algo.HexLen())

		// A reader-based hash of the same bytes must agree with the
		// mmap/buffered file hash for every algorithm.
		f, err := os.Open(large)
		require.NoError(t, err)
		hFromReader, err := HashReader(f, algo)
		require.NoError(t, err)
		f.Close()
		require.Equal(t, hLarge, hFromReader)
	}
}

func TestHashFile_UnknownAlgo(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, 4)
	_, err := HashFile(path, oid.Algo("rot13"))
	require.Error(t, err)
}

func TestTeeHashWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewTeeHashWriter(&buf, oid.Blake3)
	require.NoError(t, err)

	payload := []byte("hello dvs")
	n, err := w.Write(payload)
	require.NoError(t, err)
	require.Equal(t, len(payload), n)
	require.Equal(t, payload, buf.Bytes())

	expect, err := HashReader(bytes.NewReader(payload), oid.Blake3)
	require.NoError(t, err)
	require.Equal(t, expect, w.Sum())
}
