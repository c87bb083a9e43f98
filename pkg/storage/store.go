// Package storage defines the object store capability shared by every
// backend that can hold DVS content-addressable objects: a local
// filesystem tree, an HTTP CAS client, a chain of stores tried in order,
// and cloud-object-storage variants (S3, GCS).
//
// Grounded on the teacher's pkg/storage.Store interface, narrowed from a
// generic string-keyed K/V store to one keyed specifically by oid.Oid,
// and on pkg/storage/localfs's temp+rename idempotent-put discipline.
package storage

import (
	"context"
	"io"

	"github.com/dvs-io/dvs/pkg/oid"
)

// Store is the capability every DVS object-store backend implements:
// existence check, streamed fetch, streamed store.
type Store interface {
	// Type names the backend for logging and diagnostics ("local", "http",
	// "chain", "s3", "gcs").
	Type() string

	// Has reports whether id is present.
	Has(ctx context.Context, id oid.Oid) (bool, error)

	// Get streams the object's bytes to dest. Returns a taxonomy
	// object_missing error if absent.
	Get(ctx context.Context, id oid.Oid, dest io.Writer) error

	// Put stores src's bytes under id. Implementations must be idempotent:
	// putting an id that already exists with matching content is a no-op,
	// never an error, and never re-writes existing bytes (content
	// immutability, §4.2).
	Put(ctx context.Context, id oid.Oid, src io.Reader) error
}
