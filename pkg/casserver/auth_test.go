package casserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAuthorizer_DisabledGrantsEverything(t *testing.T) {
	a := newAuthorizer(nil)
	require.True(t, a.disabled())

	r := httptest.NewRequest(http.MethodGet, "/objects/blake3/abc", nil)
	key, status := a.authorize(r, "admin")
	require.Equal(t, 0, status)
	require.Equal(t, "anonymous", key.Name)
}

func TestAuthorizer_MissingTokenIsUnauthorized(t *testing.T) {
	a := newAuthorizer([]APIKey{{Token: "secret", Name: "writer", Permissions: []string{"write"}}})

	r := httptest.NewRequest(http.MethodGet, "/objects/blake3/abc", nil)
	_, status := a.authorize(r, "write")
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthorizer_WrongPermissionIsForbidden(t *testing.T) {
	a := newAuthorizer([]APIKey{{Token: "secret", Name: "reader", Permissions: []string{"read"}}})

	r := httptest.NewRequest(http.MethodGet, "/objects/blake3/abc", nil)
	r.Header.Set("Authorization", "Bearer secret")
	_, status := a.authorize(r, "delete")
	require.Equal(t, http.StatusForbidden, status)
}

func TestAuthorizer_AdminImpliesEveryPermission(t *testing.T) {
	a := newAuthorizer([]APIKey{{Token: "secret", Name: "root", Permissions: []string{"admin"}}})

	r := httptest.NewRequest(http.MethodGet, "/objects/blake3/abc", nil)
	r.Header.Set("Authorization", "Bearer secret")
	_, status := a.authorize(r, "delete")
	require.Equal(t, 0, status)
}

func TestAuthorizer_ValidTokenIsAuthorized(t *testing.T) {
	a := newAuthorizer([]APIKey{{Token: "secret", Name: "writer", Permissions: []string{"write"}}})

	r := httptest.NewRequest(http.MethodGet, "/objects/blake3/abc", nil)
	r.Header.Set("Authorization", "Bearer secret")
	key, status := a.authorize(r, "write")
	require.Equal(t, 0, status)
	require.Equal(t, "writer", key.Name)
}
