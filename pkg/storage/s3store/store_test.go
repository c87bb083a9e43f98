package s3store

import (
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/oid"
)

func testOid() oid.Oid {
	return oid.New(oid.Blake3, "00112233445566778899aabbccddeeff00112233445566778899aabbccddee")
}

// NewSession does not perform any network I/O, so a Store can be built and
// its key derivation exercised without a live AWS account.
func TestStore_KeyMatchesStorageSubpath(t *testing.T) {
	cfg := aws.NewConfig().
		WithRegion("us-east-1").
		WithCredentials(credentials.NewStaticCredentials("id", "secret", ""))

	s := New(Bucket("dvs-objects"), AWSConfig(cfg))
	require.Equal(t, "s3", s.Type())

	id := testOid()
	require.Equal(t, id.StorageSubpath(), s.key(id))
}
