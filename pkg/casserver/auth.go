package casserver

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// authorizer resolves a bearer token to the permission set granted for a
// request, via constant-time comparison against the static key table.
type authorizer struct {
	keys []APIKey
}

func newAuthorizer(keys []APIKey) *authorizer {
	return &authorizer{keys: keys}
}

// disabled reports whether no keys were configured, in which case every
// request is authorized (matches an open-by-default local deployment).
func (a *authorizer) disabled() bool {
	return len(a.keys) == 0
}

// authorize returns the matched key and an HTTP status: 0 if the request
// is authorized for perm, 401 if the token is missing or unrecognized,
// 403 if the token is valid but lacks perm.
func (a *authorizer) authorize(r *http.Request, perm string) (APIKey, int) {
	if a.disabled() {
		return APIKey{Name: "anonymous", Permissions: []string{"admin"}}, 0
	}

	token, ok := bearerToken(r)
	if !ok {
		return APIKey{}, http.StatusUnauthorized
	}

	for _, k := range a.keys {
		if subtle.ConstantTimeCompare([]byte(k.Token), []byte(token)) == 1 {
			if k.HasPermission(perm) {
				return k, 0
			}
			return k, http.StatusForbidden
		}
	}
	return APIKey{}, http.StatusUnauthorized
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return strings.TrimPrefix(h, prefix), true
}
