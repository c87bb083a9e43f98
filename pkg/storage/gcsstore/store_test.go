package gcsstore

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/api/googleapi"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
)

func testOid() oid.Oid {
	return oid.New(oid.Blake3, "ff00112233445566778899aabbccddeeff00112233445566778899aabbccdd")
}

func TestStore_KeyMatchesStorageSubpath(t *testing.T) {
	s := &Store{bucket: "dvs-objects"}
	id := testOid()
	require.Equal(t, id.StorageSubpath(), s.key(id))
	require.Equal(t, "gcs", s.Type())
}

func TestMapAPIError(t *testing.T) {
	require.Equal(t, dvserrors.KindObjectMissing, dvserrors.KindOf(mapAPIError(&googleapi.Error{Code: 404}, "k")))
	require.Equal(t, dvserrors.KindUnauthorized, dvserrors.KindOf(mapAPIError(&googleapi.Error{Code: 401}, "k")))
	require.Equal(t, dvserrors.KindForbidden, dvserrors.KindOf(mapAPIError(&googleapi.Error{Code: 403}, "k")))
}

func TestIsPreconditionFailed(t *testing.T) {
	require.True(t, isPreconditionFailed(&googleapi.Error{Code: 412}))
	require.False(t, isPreconditionFailed(&googleapi.Error{Code: 500}))
}
