// Package s3store implements storage.Store against an S3 bucket, keyed by
// an oid's storage subpath (algo/hex[0:2]/hex[2:]).
//
// Grounded on the teacher's pkg/storage/sthree: the functional-options
// constructor (Bucket/AWSConfig), the session/s3/s3manager wiring, and the
// HeadObjectWithContext 404-via-awserr.RequestFailure detection, narrowed
// to the oid-keyed Has/Get/Put/Type capability this project needs (§11
// DOMAIN STACK, storage_dir scheme s3://).
package s3store

import (
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage"
)

// Store is an S3-backed content-addressable store.
type Store struct {
	bucket    string
	awsConfig *aws.Config
	client    *s3.S3
	uploader  *s3manager.Uploader
}

// Option configures a Store at construction time.
type Option func(*Store)

// Bucket sets the destination S3 bucket.
func Bucket(bucket string) Option {
	return func(s *Store) { s.bucket = bucket }
}

// AWSConfig overrides the aws.Config used to build the session, e.g. for
// custom endpoints or credentials in tests.
func AWSConfig(cfg *aws.Config) Option {
	return func(s *Store) { s.awsConfig = cfg }
}

// New builds a Store, requiring at least one Option to set the bucket.
func New(opt Option, opts ...Option) *Store {
	s := &Store{awsConfig: aws.NewConfig()}
	opt(s)
	for _, o := range opts {
		o(s)
	}

	sess := session.Must(session.NewSession(s.awsConfig))
	s.client = s3.New(sess)
	s.uploader = s3manager.NewUploaderWithClient(s.client)
	return s
}

var _ storage.Store = (*Store)(nil)

func (s *Store) Type() string { return "s3" }

func (s *Store) key(id oid.Oid) string {
	return id.StorageSubpath()
}

func (s *Store) Has(ctx context.Context, id oid.Oid) (bool, error) {
	key := s.key(id)
	_, err := s.client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if reqErr, ok := err.(awserr.RequestFailure); ok && reqErr.StatusCode() == 404 {
			return false, nil
		}
		return false, dvserrors.Newf(dvserrors.KindHTTPError, "HEAD s3://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, id oid.Oid, dest io.Writer) error {
	key := s.key(id)
	obj, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if reqErr, ok := err.(awserr.RequestFailure); ok && reqErr.StatusCode() == 404 {
			return dvserrors.New(dvserrors.KindObjectMissing).WithPath(key)
		}
		return dvserrors.Newf(dvserrors.KindHTTPError, "GET s3://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	defer obj.Body.Close()

	if _, err := io.Copy(dest, obj.Body); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "reading s3://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	return nil
}

// Put uploads src under id's key. S3 has no native "fail if exists", so
// idempotency here relies on content addressing: a re-upload of identical
// bytes under the same key is a harmless overwrite.
func (s *Store) Put(ctx context.Context, id oid.Oid, src io.Reader) error {
	key := s.key(id)
	_, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   src,
	})
	if err != nil {
		return dvserrors.Newf(dvserrors.KindHTTPError, "PUT s3://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	return nil
}
