package localfs

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/oid"
)

func testOid() oid.Oid {
	return oid.New(oid.Blake3, "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"[:64])
}

func TestStore_PutGetHas(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/objects")
	id := testOid()

	has, err := s.Has(ctx, id)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, s.Put(ctx, id, bytes.NewReader([]byte("payload"))))

	has, err = s.Has(ctx, id)
	require.NoError(t, err)
	require.True(t, has)

	var buf bytes.Buffer
	require.NoError(t, s.Get(ctx, id, &buf))
	require.Equal(t, "payload", buf.String())
}

func TestStore_PutIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/objects")
	id := testOid()

	require.NoError(t, s.Put(ctx, id, bytes.NewReader([]byte("first"))))
	// A second Put under the same id must not overwrite existing bytes.
	require.NoError(t, s.Put(ctx, id, bytes.NewReader([]byte("second-different-length"))))

	var buf bytes.Buffer
	require.NoError(t, s.Get(ctx, id, &buf))
	require.Equal(t, "first", buf.String())
}

func TestStore_GetMissingIsObjectMissing(t *testing.T) {
	ctx := context.Background()
	s := New(afero.NewMemMapFs(), "/objects")
	var buf bytes.Buffer
	err := s.Get(ctx, testOid(), &buf)
	require.Error(t, err)
}
