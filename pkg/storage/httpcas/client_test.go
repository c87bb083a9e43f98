package httpcas

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dvs-io/dvs/pkg/dvserrors"
	"github.com/dvs-io/dvs/pkg/oid"
)

func testOid() oid.Oid {
	return oid.New(oid.Blake3, "1122334455667788112233445566778811223344556677881122334455667788"[:64])
}

func TestClient_HasGetPut(t *testing.T) {
	objects := map[string][]byte{}

	mux := http.NewServeMux()
	mux.HandleFunc("/objects/blake3/", func(w http.ResponseWriter, r *http.Request) {
		key := r.URL.Path
		switch r.Method {
		case http.MethodHead:
			if _, ok := objects[key]; ok {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodGet:
			body, ok := objects[key]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Write(body)
		case http.MethodPut:
			buf := new(bytes.Buffer)
			buf.ReadFrom(r.Body)
			_, existed := objects[key]
			objects[key] = buf.Bytes()
			if existed {
				w.WriteHeader(http.StatusOK)
			} else {
				w.WriteHeader(http.StatusCreated)
			}
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	ctx := context.Background()
	id := testOid()

	has, err := c.Has(ctx, id)
	require.NoError(t, err)
	require.False(t, has)

	require.NoError(t, c.Put(ctx, id, bytes.NewReader([]byte("payload"))))

	has, err = c.Has(ctx, id)
	require.NoError(t, err)
	require.True(t, has)

	var buf bytes.Buffer
	require.NoError(t, c.Get(ctx, id, &buf))
	require.Equal(t, "payload", buf.String())
}

func TestClient_GetMissingMapsToObjectMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(srv.URL)
	var buf bytes.Buffer
	err := c.Get(context.Background(), testOid(), &buf)
	require.Error(t, err)
	require.Equal(t, dvserrors.KindObjectMissing, dvserrors.KindOf(err))
}

func TestClient_UnauthorizedMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Has(context.Background(), testOid())
	require.Error(t, err)
	require.Equal(t, dvserrors.KindUnauthorized, dvserrors.KindOf(err))
}
