package storage

import (
	"context"
	"io"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"

	"github.com/dvs-io/dvs/pkg/oid"
)

// deleter is the out-of-band capability pkg/casserver also recognizes
// structurally; declared here only so Instrument can preserve it through
// the wrapper when the underlying store supports it.
type deleter interface {
	Delete(ctx context.Context, id oid.Oid) error
}

// Instrument wraps store so every Has/Get/Put(/Delete) call opens a span
// child of any span already in ctx, grounded on the teacher's
// pkg/blob.Instrument.
func Instrument(tr opentracing.Tracer, store Store) Store {
	base := &instrumentedStore{tr: tr, store: store}
	if d, ok := store.(deleter); ok {
		return &instrumentedDeletableStore{instrumentedStore: base, del: d}
	}
	return base
}

type instrumentedStore struct {
	store Store
	tr    opentracing.Tracer
}

func (i *instrumentedStore) Type() string { return i.store.Type() }

func (i *instrumentedStore) opName(name string) string {
	return strings.Join([]string{"storage", i.store.Type(), name}, ".")
}

func (i *instrumentedStore) spanFromContext(ctx context.Context, name string) opentracing.Span {
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		return i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	}
	return i.tr.StartSpan(name)
}

func (i *instrumentedStore) Has(ctx context.Context, id oid.Oid) (bool, error) {
	span := i.spanFromContext(ctx, i.opName("Has"))
	defer span.Finish()
	return i.store.Has(ctx, id)
}

func (i *instrumentedStore) Get(ctx context.Context, id oid.Oid, dest io.Writer) error {
	span := i.spanFromContext(ctx, i.opName("Get"))
	defer span.Finish()
	return i.store.Get(ctx, id, dest)
}

func (i *instrumentedStore) Put(ctx context.Context, id oid.Oid, src io.Reader) error {
	span := i.spanFromContext(ctx, i.opName("Put"))
	defer span.Finish()
	return i.store.Put(ctx, id, src)
}

// instrumentedDeletableStore adds the passthrough Delete a deleter-capable
// wrapped store provides; kept distinct from instrumentedStore so wrapping
// a store that lacks Delete never fabricates the capability (pkg/casserver's
// admin DELETE endpoint type-asserts on it to decide 405 vs. 204).
type instrumentedDeletableStore struct {
	*instrumentedStore
	del deleter
}

func (i *instrumentedDeletableStore) Delete(ctx context.Context, id oid.Oid) error {
	span := i.spanFromContext(ctx, i.opName("Delete"))
	defer span.Finish()
	return i.del.Delete(ctx, id)
}
