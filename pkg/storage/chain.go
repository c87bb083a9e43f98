package storage

import (
	"bytes"
	"context"
	"io"
	"io/ioutil"
	"sync"

	"go.uber.org/multierr"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
)

// Chain is a composite Store: Has/Get scan members in order and
// short-circuit on the first hit; Put fans out to every member in
// parallel, tolerating failures per-member.
//
// Grounded on the teacher's pkg/storage.MultiStoreUnit/MultiPut parallel
// fan-out pattern, generalized to also implement Has/Get as ordered scans.
type Chain struct {
	members []chainMember
}

type chainMember struct {
	store           Store
	tolerateFailure bool
}

// ChainOption configures a member of a Chain.
type ChainOption func(*chainMember)

// TolerateFailure marks a member whose Put failures should not fail the
// overall chain Put — used for best-effort cache warming.
func TolerateFailure() ChainOption {
	return func(m *chainMember) { m.tolerateFailure = true }
}

// NewChain builds a Chain that tries store in the given order.
func NewChain(stores ...Store) *Chain {
	c := &Chain{}
	for _, s := range stores {
		c.members = append(c.members, chainMember{store: s})
	}
	return c
}

// Add appends another member store, applying any ChainOptions.
func (c *Chain) Add(s Store, opts ...ChainOption) {
	m := chainMember{store: s}
	for _, opt := range opts {
		opt(&m)
	}
	c.members = append(c.members, m)
}

var _ Store = (*Chain)(nil)

func (c *Chain) Type() string { return "chain" }

func (c *Chain) Has(ctx context.Context, id oid.Oid) (bool, error) {
	for _, m := range c.members {
		ok, err := m.store.Has(ctx, id)
		if err != nil {
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (c *Chain) Get(ctx context.Context, id oid.Oid, dest io.Writer) error {
	var lastErr error
	for _, m := range c.members {
		err := m.store.Get(ctx, id, dest)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return dvserrors.New(dvserrors.KindObjectMissing)
	}
	return lastErr
}

// Put reads src into memory once, then writes the same bytes to every
// member concurrently, matching the teacher's MultiPut fan-out.
func (c *Chain) Put(ctx context.Context, id oid.Oid, src io.Reader) error {
	payload, err := ioutil.ReadAll(src)
	if err != nil {
		return dvserrors.Newf(dvserrors.KindIOError, "buffering payload for %s", id).Wrap(err)
	}

	var wg sync.WaitGroup
	errs := make([]error, len(c.members))
	for i, m := range c.members {
		wg.Add(1)
		go func(i int, m chainMember) {
			defer wg.Done()
			err := m.store.Put(ctx, id, bytes.NewReader(payload))
			if err != nil && !m.tolerateFailure {
				errs[i] = err
			}
		}(i, m)
	}
	wg.Wait()

	var combined error
	for _, e := range errs {
		combined = multierr.Append(combined, e)
	}
	return combined
}
