// Package gcsstore implements storage.Store against a Google Cloud Storage
// bucket, keyed by an oid's storage subpath (algo/hex[0:2]/hex[2:]).
//
// Grounded on the teacher's pkg/storage/gcs: the read-only/read-write
// client split, the conditional NewWriter(Conditions{DoesNotExist: true})
// put-if-absent idiom, and ErrObjectNotExist detection on Attrs, narrowed
// to the oid-keyed Has/Get/Put/Type capability (§11 DOMAIN STACK,
// storage_dir scheme gs://).
package gcsstore

import (
	"context"
	"io"

	gcsStorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
	"github.com/dvs-io/dvs/pkg/storage"
)

// Store is a GCS-backed content-addressable store. It keeps separate
// read-only and read-write clients, mirroring the teacher's least-privilege
// split between object reads and writes.
type Store struct {
	readOnlyClient *gcsStorage.Client
	client         *gcsStorage.Client
	bucket         string
}

// New builds a Store against bucket, acquiring a read-only client for
// Has/Get and a full-control client for Put.
func New(ctx context.Context, bucket string) (*Store, error) {
	s := &Store{bucket: bucket}

	ro, err := gcsStorage.NewClient(ctx, option.WithScopes(gcsStorage.ScopeReadOnly))
	if err != nil {
		return nil, dvserrors.Newf(dvserrors.KindIOError, "opening read-only gcs client for %s", bucket).Wrap(err)
	}
	s.readOnlyClient = ro

	rw, err := gcsStorage.NewClient(ctx, option.WithScopes(gcsStorage.ScopeFullControl))
	if err != nil {
		return nil, dvserrors.Newf(dvserrors.KindIOError, "opening read-write gcs client for %s", bucket).Wrap(err)
	}
	s.client = rw

	return s, nil
}

var _ storage.Store = (*Store)(nil)

func (s *Store) Type() string { return "gcs" }

func (s *Store) key(id oid.Oid) string {
	return id.StorageSubpath()
}

func (s *Store) Has(ctx context.Context, id oid.Oid) (bool, error) {
	key := s.key(id)
	_, err := s.readOnlyClient.Bucket(s.bucket).Object(key).Attrs(ctx)
	if err != nil {
		if err == gcsStorage.ErrObjectNotExist {
			return false, nil
		}
		return false, mapAPIError(err, key)
	}
	return true, nil
}

func (s *Store) Get(ctx context.Context, id oid.Oid, dest io.Writer) error {
	key := s.key(id)
	r, err := s.readOnlyClient.Bucket(s.bucket).Object(key).NewReader(ctx)
	if err != nil {
		if err == gcsStorage.ErrObjectNotExist {
			return dvserrors.New(dvserrors.KindObjectMissing).WithPath(key)
		}
		return mapAPIError(err, key)
	}
	defer r.Close()

	if _, err := io.Copy(dest, r); err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "reading gs://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	return nil
}

// Put writes src under id's key using a DoesNotExist precondition, so a
// concurrent or repeat upload of the same oid is rejected by GCS rather
// than overwriting, then treated as the idempotent success case.
func (s *Store) Put(ctx context.Context, id oid.Oid, src io.Reader) error {
	key := s.key(id)
	w := s.client.Bucket(s.bucket).Object(key).If(gcsStorage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(w, src); err != nil {
		_ = w.Close()
		return dvserrors.Newf(dvserrors.KindIOError, "writing gs://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			// Another writer already put this content-addressed object;
			// since content is immutable by hash, that is success.
			return nil
		}
		return dvserrors.Newf(dvserrors.KindIOError, "closing gs://%s/%s", s.bucket, key).WithPath(key).Wrap(err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	apiErr, ok := err.(*googleapi.Error)
	return ok && apiErr.Code == 412
}

// mapAPIError translates a googleapi.Error status into the §7 taxonomy,
// mirroring the teacher's apiErrors status-code switch.
func mapAPIError(err error, key string) error {
	apiErr, ok := err.(*googleapi.Error)
	if !ok {
		return dvserrors.Newf(dvserrors.KindIOError, "gcs request for %s", key).WithPath(key).Wrap(err)
	}
	switch apiErr.Code {
	case 401:
		return dvserrors.New(dvserrors.KindUnauthorized).WithPath(key).Wrap(err)
	case 403:
		return dvserrors.New(dvserrors.KindForbidden).WithPath(key).Wrap(err)
	case 404:
		return dvserrors.New(dvserrors.KindObjectMissing).WithPath(key).Wrap(err)
	default:
		return dvserrors.Newf(dvserrors.KindHTTPError, "gcs status %d for %s", apiErr.Code, key).WithPath(key).Wrap(err)
	}
}
